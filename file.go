package imagereader

import (
	"encoding/binary"
	"io"
	"io/fs"
)

// file is an open image together with the position of the next byte that
// will be read from it.
type file struct {
	f    fs.File
	rs   io.ReadSeeker
	pos  int64
	size int64 // Negative if unknown
	tmp  [4]byte
}

func newFile(f fs.File, rs io.ReadSeeker) *file {
	size := int64(-1)
	if info, err := f.Stat(); err == nil && info.Mode().IsRegular() {
		size = info.Size()
	}
	return &file{f: f, rs: rs, size: size}
}

// read fills b from the current position. A short read caused by reaching
// the end of the file is not an error; the remainder of b is zeroed.
func (f *file) read(b []byte) error {
	n, err := io.ReadFull(f.rs, b)
	f.pos += int64(n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		for i := n; i < len(b); i++ {
			b[i] = 0
		}
		return nil
	}
	return err
}

// seek moves to offset. Offsets past the end of a file of known size stop at
// the end, subsequent reads then return only zeroes.
func (f *file) seek(offset int64) error {
	if f.size >= 0 && offset > f.size {
		offset = f.size
	}
	pos, err := f.rs.Seek(offset, io.SeekStart)
	if err != nil {
		return err
	}
	f.pos = pos
	return nil
}

// readLE16 reads a little-endian uint16.
func (f *file) readLE16() (uint16, error) {
	if err := f.read(f.tmp[:2]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(f.tmp[:2]), nil
}

// readLE32 reads a little-endian uint32.
func (f *file) readLE32() (uint32, error) {
	if err := f.read(f.tmp[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(f.tmp[:4]), nil
}

func (f *file) close() error {
	return f.f.Close()
}
