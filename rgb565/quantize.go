package rgb565

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"
)

// MaxColors is the largest palette Quantize will build
const MaxColors = 256

// Quantize reduces the image to a paletted image of at most colors entries
// using median cut. The result has its top-left corner at (0, 0).
func Quantize(m image.Image, colors int) (*image.Paletted, error) {
	if colors < 1 || colors > MaxColors {
		return nil, errors.New("rgb565: palette size out of range")
	}

	b := m.Bounds()
	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), q.Quantize(make(color.Palette, 0, colors), m))
	draw.Draw(pm, pm.Rect, m, b.Min, draw.Src)

	return pm, nil
}
