package imagereader

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/fs"
	"testing/fstest"

	"github.com/bodgit/imagereader/rgb565"
)

// bmpFile describes a synthetic BMP file. Pixel colors come from pattern
// using coordinates with the origin at the top-left of the image.
type bmpFile struct {
	width       int32
	height      int32 // Negative for top-down
	planes      uint16
	depth       uint16
	compression uint32
	offset      uint32
	truncate    int // Drop this many bytes from the end
}

func newBMP(width, height int32) bmpFile {
	return bmpFile{
		width:  width,
		height: height,
		planes: 1,
		depth:  24,
		offset: 54,
	}
}

func pattern(x, y int) (uint8, uint8, uint8) {
	return uint8(x*37 + y*11), uint8(y*53 + 7), uint8(x*y + x*3 + 101)
}

func expected(x, y int) uint16 {
	r, g, b := pattern(x, y)
	return rgb565.Pack(r, g, b)
}

func (f bmpFile) bytes() []byte {
	b := new(bytes.Buffer)

	w, h := int(f.width), int(f.height)
	bottomUp := h >= 0
	if !bottomUp {
		h = -h
	}
	stride := (w*3 + 3) &^ 3
	if w < 0 {
		stride = 0
	}

	b.WriteString("BM")
	fields := []interface{}{
		uint32(int(f.offset) + stride*h), // File size
		uint32(0),                        // Creator bytes
		f.offset,
		uint32(40), // DIB header size
		f.width,
		f.height,
		f.planes,
		f.depth,
		f.compression,
		uint32(stride * h), // Image size
		[4]uint32{2835, 2835, 0, 0},
	}
	for _, v := range fields {
		if err := binary.Write(b, binary.LittleEndian, v); err != nil {
			panic(err)
		}
	}

	for b.Len() < int(f.offset) {
		b.WriteByte(0xaa)
	}

	row := make([]byte, stride)
	for s := 0; s < h; s++ {
		y := s
		if bottomUp {
			y = h - 1 - s
		}
		for i := range row {
			row[i] = 0xee // Padding
		}
		for x := 0; x < w; x++ {
			r, g, bl := pattern(x, y)
			row[x*3], row[x*3+1], row[x*3+2] = bl, g, r
		}
		b.Write(row)
	}

	out := b.Bytes()
	if f.truncate > 0 {
		out = out[:len(out)-f.truncate]
	}
	return out
}

// countingFS tracks the files opened from the wrapped filesystem and calls
// probe before every read or seek.
type countingFS struct {
	fs.FS
	opens, closes, seeks int
	probe                func()
}

func newCountingFS(files map[string][]byte) *countingFS {
	m := make(fstest.MapFS)
	for name, data := range files {
		m[name] = &fstest.MapFile{Data: data}
	}
	return &countingFS{FS: m}
}

func (c *countingFS) Open(name string) (fs.File, error) {
	f, err := c.FS.Open(name)
	if err != nil {
		return nil, err
	}
	c.opens++
	return &countingFile{File: f, fs: c}, nil
}

type countingFile struct {
	fs.File
	fs *countingFS
}

func (f *countingFile) Read(b []byte) (int, error) {
	if f.fs.probe != nil {
		f.fs.probe()
	}
	return f.File.Read(b)
}

func (f *countingFile) Seek(offset int64, whence int) (int64, error) {
	if f.fs.probe != nil {
		f.fs.probe()
	}
	f.fs.seeks++
	return f.File.(io.Seeker).Seek(offset, whence)
}

func (f *countingFile) Close() error {
	f.fs.closes++
	return f.File.Close()
}

// streamFS serves files that cannot seek.
type streamFS struct {
	fs.FS
}

func (s streamFS) Open(name string) (fs.File, error) {
	f, err := s.FS.Open(name)
	if err != nil {
		return nil, err
	}
	return struct{ fs.File }{f}, nil
}
