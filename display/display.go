/*
Package display implements a virtual SPI display panel held in memory.

The panel mirrors the command model of the small TFT controllers found on
microcontroller boards: a bus transaction is started, an address window is
set and pixels are then streamed into that window left to right, top to
bottom, wrapping back to the top-left corner of the window once it is full.
*/
package display

import (
	"errors"
	"image"

	"github.com/bodgit/imagereader/rgb565"
)

var (
	// ErrNoTransaction is returned when pixels are written while the bus has
	// not been acquired with StartWrite
	ErrNoTransaction = errors.New("display: write outside of transaction")
	errNoWindow      = errors.New("display: no address window")
)

// Stats counts the operations performed on a Framebuffer.
type Stats struct {
	Transactions int // Number of StartWrite calls
	Windows      int // Number of SetAddrWindow calls
	Writes       int // Number of WritePixels calls
	Pixels       int // Total pixels passed to WritePixels
}

// Framebuffer is an in-memory display. It is not safe for concurrent use.
type Framebuffer struct {
	img    *rgb565.Image
	window image.Rectangle
	cursor image.Point
	active bool
	strict bool
	stats  Stats
}

// New returns a Framebuffer of the given size in pixels. When strict is set,
// writes outside of a transaction fail with ErrNoTransaction and nested
// transactions or unbalanced EndWrite calls panic.
func New(width, height int, strict bool) *Framebuffer {
	return &Framebuffer{
		img:    rgb565.New(image.Rect(0, 0, width, height)),
		strict: strict,
	}
}

// Size returns the width and height of the panel.
func (fb *Framebuffer) Size() (int, int) {
	return fb.img.Rect.Dx(), fb.img.Rect.Dy()
}

// StartWrite acquires the bus.
func (fb *Framebuffer) StartWrite() {
	if fb.active && fb.strict {
		panic("display: nested transaction")
	}
	fb.active = true
	fb.stats.Transactions++
}

// EndWrite releases the bus.
func (fb *Framebuffer) EndWrite() {
	if !fb.active && fb.strict {
		panic("display: no transaction to end")
	}
	fb.active = false
}

// InTransaction reports whether the bus is currently held.
func (fb *Framebuffer) InTransaction() bool {
	return fb.active
}

// SetAddrWindow sets the rectangle subsequent pixel writes fill. The window is
// clipped to the panel.
func (fb *Framebuffer) SetAddrWindow(x, y, width, height int) {
	fb.window = image.Rect(x, y, x+width, y+height).Intersect(fb.img.Rect)
	fb.cursor = fb.window.Min
	fb.stats.Windows++
}

// WritePixels streams p into the current address window.
func (fb *Framebuffer) WritePixels(p []uint16) error {
	if !fb.active && fb.strict {
		return ErrNoTransaction
	}
	if fb.window.Empty() {
		return errNoWindow
	}

	fb.stats.Writes++
	fb.stats.Pixels += len(p)

	for _, c := range p {
		fb.img.SetRGB565(fb.cursor.X, fb.cursor.Y, c)
		fb.cursor.X++
		if fb.cursor.X >= fb.window.Max.X {
			fb.cursor.X = fb.window.Min.X
			fb.cursor.Y++
			if fb.cursor.Y >= fb.window.Max.Y {
				fb.cursor.Y = fb.window.Min.Y
			}
		}
	}

	return nil
}

// Image returns the pixels currently shown on the panel.
func (fb *Framebuffer) Image() *rgb565.Image {
	return fb.img
}

// Stats returns the operation counters.
func (fb *Framebuffer) Stats() Stats {
	return fb.stats
}

// Fill paints every pixel of the panel with c, without touching the counters.
func (fb *Framebuffer) Fill(c uint16) {
	for i := range fb.img.Pix {
		fb.img.Pix[i] = c
	}
}
