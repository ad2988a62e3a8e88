package imagereader

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound is returned when the image file could not be opened
	ErrFileNotFound = errors.New("file not found")
	// ErrFormat is returned for anything other than an uncompressed,
	// single plane, 24-bit BMP
	ErrFormat = errors.New("unsupported image format")
	// ErrMalloc is returned when a surface could not be allocated for
	// LoadBMP
	ErrMalloc = errors.New("surface allocation failed")

	errNotSeekable = errors.New("file is not seekable")
)

// Error records the failed operation and the file it was reading. Err is one
// of the package sentinels or an error from the storage or display.
type Error struct {
	Op   string
	Path string
	Err  error

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("imagereader: %s %s: %v: %v", e.Op, e.Path, e.Err, e.cause)
	}
	return fmt.Sprintf("imagereader: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap allows errors.Is and errors.As to match both the sentinel and the
// underlying storage error, if any.
func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Err, e.cause}
	}
	return []error{e.Err}
}
