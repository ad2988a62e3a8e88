package imagereader

import (
	"image"

	"github.com/bodgit/imagereader/rgb565"
)

// DrawBMP draws the named BMP image on d with its top-left corner at (x, y).
// Coordinates may be negative; the image is clipped to the edges of the
// display. Drawing an image that falls entirely off the display is not an
// error, and when x or y is beyond the right or bottom edge the file is not
// even opened.
func (r *Reader) DrawBMP(name string, d Display, x, y int) error {
	width, height := d.Size()
	if offSurface(x, y, width, height) {
		return nil
	}

	f, err := r.open(name)
	if err != nil {
		return err
	}
	defer f.close()

	hdr, err := readHeader(f, true)
	if err != nil {
		return &Error{Op: "draw", Path: name, Err: err}
	}

	rgn := clip(x, y, hdr.width, hdr.height, width, height)
	if rgn.empty() {
		return nil
	}

	s := newDisplaySink(d, r.drawPixels)
	defer s.release()

	if err := newPipeline(f, hdr, r.drawPixels, r.yield).run(rgn, s); err != nil {
		return &Error{Op: "draw", Path: name, Err: err}
	}

	return nil
}

// LoadBMP decodes the whole of the named BMP image into a newly allocated
// 16-bit surface.
func (r *Reader) LoadBMP(name string) (*Image, error) {
	f, err := r.open(name)
	if err != nil {
		return nil, err
	}
	defer f.close()

	hdr, err := readHeader(f, true)
	if err != nil {
		return nil, &Error{Op: "load", Path: name, Err: err}
	}

	if hdr.width <= 0 || hdr.height <= 0 || int64(hdr.width)*int64(hdr.height) > int64(r.maxPixels) {
		return nil, &Error{Op: "load", Path: name, Err: ErrMalloc}
	}

	m := rgb565.New(image.Rect(0, 0, hdr.width, hdr.height))
	rgn := region{w: hdr.width, h: hdr.height}

	if err := newPipeline(f, hdr, r.loadPixels, r.yield).run(rgn, &surfaceSink{pix: m.Pix}); err != nil {
		return nil, &Error{Op: "load", Path: name, Err: err}
	}

	return &Image{
		Format: Canvas16,
		Canvas: m,
	}, nil
}

// BMPDimensions returns the width and height of the named BMP image. Only the
// signature is validated.
func (r *Reader) BMPDimensions(name string) (int, int, error) {
	f, err := r.open(name)
	if err != nil {
		return 0, 0, err
	}
	defer f.close()

	hdr, err := readHeader(f, false)
	if err != nil {
		return 0, 0, &Error{Op: "dimensions", Path: name, Err: err}
	}

	return hdr.width, hdr.height, nil
}
