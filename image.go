package imagereader

import (
	"image"

	"github.com/bodgit/imagereader/rgb565"
)

// CanvasFormat identifies the kind of surface held by an Image.
type CanvasFormat int

// The surface kinds an Image can describe. Only Canvas16 is currently
// produced by LoadBMP.
const (
	CanvasNone CanvasFormat = iota
	Canvas1
	Canvas8
	Canvas16
)

func (f CanvasFormat) String() string {
	switch f {
	case CanvasNone:
		return "none"
	case Canvas1:
		return "1-bit"
	case Canvas8:
		return "8-bit"
	case Canvas16:
		return "16-bit"
	default:
		return "unknown"
	}
}

// Image is the result of LoadBMP. The caller owns the surface.
type Image struct {
	Format CanvasFormat
	Canvas *rgb565.Image
	// Mask is a transparency bitmask, not yet produced by any decoder
	Mask image.Image
	// Palette holds 5/6/5 colors for indexed surfaces, not yet produced by
	// any decoder
	Palette []uint16
}

// Width returns the width of the surface in pixels.
func (img *Image) Width() int {
	if img == nil || img.Canvas == nil {
		return 0
	}
	return img.Canvas.Rect.Dx()
}

// Height returns the height of the surface in pixels.
func (img *Image) Height() int {
	if img == nil || img.Canvas == nil {
		return 0
	}
	return img.Canvas.Rect.Dy()
}

// Draw copies the surface to d with its top-left corner at (x, y), clipping
// it to the edges of the display. An Image without a surface draws nothing.
func (img *Image) Draw(d Display, x, y int) error {
	if img == nil || img.Canvas == nil || img.Format != Canvas16 {
		return nil
	}

	width, height := d.Size()
	if offSurface(x, y, width, height) {
		return nil
	}

	r := clip(x, y, img.Width(), img.Height(), width, height)
	if r.empty() {
		return nil
	}

	d.StartWrite()
	defer d.EndWrite()

	d.SetAddrWindow(r.dstX, r.dstY, r.w, r.h)

	origin := img.Canvas.Rect.Min
	for row := 0; row < r.h; row++ {
		pix := img.Canvas.Row(origin.Y + r.srcY + row)
		if err := d.WritePixels(pix[r.srcX : r.srcX+r.w]); err != nil {
			return err
		}
	}

	return nil
}
