/*
Package rgb565 implements an in-memory image surface storing 16-bit packed
pixels.

Each pixel is a uint16 holding 5 bits of red, 6 bits of green and 5 bits of
blue, most significant bits first. This matches the native color space of most
small SPI TFT panels so a surface can be pushed to a display without any
further conversion.
*/
package rgb565

import (
	"image"
	"image/color"
)

// Color is a single 5/6/5 packed pixel.
type Color uint16

// Pack converts 8-bit channels to a 5/6/5 pixel by discarding the low bits of
// each channel. There is no rounding or dithering.
func Pack(r, g, b uint8) uint16 {
	return uint16(r&0xf8)<<8 | uint16(g&0xfc)<<3 | uint16(b&0xf8)>>3
}

// RGBA implements the color.Color interface. Channels are expanded by
// replicating the high bits into the vacated low bits.
func (c Color) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1f
	g6 := uint32(c>>5) & 0x3f
	b5 := uint32(c) & 0x1f

	r = r5<<3 | r5>>2
	g = g6<<2 | g6>>4
	b = b5<<3 | b5>>2

	return r | r<<8, g | g<<8, b | b<<8, 0xffff
}

// Model converts any color to a Color.
var Model = color.ModelFunc(func(c color.Color) color.Color {
	if _, ok := c.(Color); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return Color(Pack(uint8(r>>8), uint8(g>>8), uint8(b>>8)))
})

// Image is a 16-bit per pixel surface. Pix holds one element per pixel in
// row-major order, Stride is the number of elements between vertically
// adjacent pixels.
type Image struct {
	Pix    []uint16
	Stride int
	Rect   image.Rectangle
}

// New returns a new Image with the given bounds. All pixels start as black.
func New(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	return &Image{
		Pix:    make([]uint16, w*h),
		Stride: w,
		Rect:   r,
	}
}

func (p *Image) ColorModel() color.Model { return Model }

func (p *Image) Bounds() image.Rectangle { return p.Rect }

func (p *Image) At(x, y int) color.Color {
	return Color(p.RGB565At(x, y))
}

// RGB565At returns the raw packed pixel at (x, y), or zero when outside the
// bounds.
func (p *Image) RGB565At(x, y int) uint16 {
	if !(image.Point{x, y}.In(p.Rect)) {
		return 0
	}
	return p.Pix[p.PixOffset(x, y)]
}

// PixOffset returns the index of the element of Pix that corresponds to the
// pixel at (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x - p.Rect.Min.X)
}

func (p *Image) Set(x, y int, c color.Color) {
	p.SetRGB565(x, y, uint16(Model.Convert(c).(Color)))
}

// SetRGB565 stores the raw packed pixel at (x, y).
func (p *Image) SetRGB565(x, y int, c uint16) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	p.Pix[p.PixOffset(x, y)] = c
}

// Opaque always returns true, there is no alpha channel.
func (p *Image) Opaque() bool {
	return true
}

// Row returns the pixels of row y, or nil when outside the bounds.
func (p *Image) Row(y int) []uint16 {
	if y < p.Rect.Min.Y || y >= p.Rect.Max.Y {
		return nil
	}
	i := p.PixOffset(p.Rect.Min.X, y)
	return p.Pix[i : i+p.Rect.Dx()]
}
