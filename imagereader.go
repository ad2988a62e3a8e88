/*
Package imagereader is a library for decoding uncompressed 24-bit BMP images
from a block storage filesystem, such as an SD card, and either streaming them
to a small SPI display or loading them into a 16-bit surface in memory.

Pixels are converted from 8-bit BGR to 5/6/5 packed color on the fly. Only a
small, bounded amount of memory is used when drawing to a display, regardless
of the size of the image.
*/
package imagereader

import (
	"io"
	"io/fs"
	"path"
	"runtime"
	"strings"
)

const (
	// DefaultDrawPixels is the default number of pixels buffered when
	// drawing to a display, 5 bytes each
	DefaultDrawPixels = 200
	// DefaultLoadPixels is the default number of pixels buffered when
	// loading into memory, 3 bytes each
	DefaultLoadPixels = 320
	// DefaultMaxPixels is the default largest surface LoadBMP will allocate
	DefaultMaxPixels = 1 << 24
)

// Reader reads BMP images from a filesystem. A Reader holds no per-call
// state and may be used from multiple goroutines at once.
type Reader struct {
	fsys       fs.FS
	drawPixels int
	loadPixels int
	maxPixels  int
	yield      func()
}

// Option configures a Reader.
type Option func(*Reader)

// WithDrawPixels sets the capacity, in pixels, of both the storage read-ahead
// buffer and the display write buffer used by DrawBMP.
func WithDrawPixels(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.drawPixels = n
		}
	}
}

// WithLoadPixels sets the capacity, in pixels, of the storage read-ahead
// buffer used by LoadBMP.
func WithLoadPixels(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.loadPixels = n
		}
	}
}

// WithMaxPixels sets the largest surface, in pixels, that LoadBMP will
// allocate. Larger images fail with ErrMalloc.
func WithMaxPixels(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxPixels = n
		}
	}
}

// WithYield sets the function called once per scanline to give a cooperative
// scheduler a chance to run. It defaults to runtime.Gosched.
func WithYield(f func()) Option {
	return func(r *Reader) {
		if f == nil {
			f = func() {}
		}
		r.yield = f
	}
}

// New returns a Reader for images found in fsys.
func New(fsys fs.FS, options ...Option) *Reader {
	r := &Reader{
		fsys:       fsys,
		drawPixels: DefaultDrawPixels,
		loadPixels: DefaultLoadPixels,
		maxPixels:  DefaultMaxPixels,
		yield:      runtime.Gosched,
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// CleanPath turns an SD card style path such as "/images/cat.bmp" into an
// fs.FS compatible one.
func CleanPath(name string) string {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" {
		return "."
	}
	return name
}

func (r *Reader) open(name string) (*file, error) {
	f, err := r.fsys.Open(CleanPath(name))
	if err != nil {
		return nil, &Error{Op: "open", Path: name, Err: ErrFileNotFound, cause: err}
	}

	rs, ok := f.(io.ReadSeeker)
	if !ok {
		f.Close()
		return nil, &Error{Op: "open", Path: name, Err: errNotSeekable}
	}

	return newFile(f, rs), nil
}
