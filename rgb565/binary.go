package rgb565

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
)

const (
	headerSize = 8

	// MaxDimension caps the width and height accepted by UnmarshalBinary
	MaxDimension = 1 << 15
)

var (
	errNotEnough = errors.New("rgb565: not enough pixel data")
	errTooMuch   = errors.New("rgb565: too much pixel data")
)

// MarshalBinary encodes the image as its width and height, each a
// little-endian uint32, followed by every pixel as a little-endian uint16 in
// row-major order.
func (p *Image) MarshalBinary() ([]byte, error) {
	w, h := p.Rect.Dx(), p.Rect.Dy()

	b := new(bytes.Buffer)
	b.Grow(headerSize + w*h*2)

	dims := [2]uint32{uint32(w), uint32(h)}
	if err := binary.Write(b, binary.LittleEndian, &dims); err != nil {
		return nil, err
	}

	for y := p.Rect.Min.Y; y < p.Rect.Max.Y; y++ {
		if err := binary.Write(b, binary.LittleEndian, p.Row(y)); err != nil {
			return nil, err
		}
	}

	return b.Bytes(), nil
}

// UnmarshalBinary decodes an image previously encoded with MarshalBinary. The
// decoded image always has its top-left corner at (0, 0).
func (p *Image) UnmarshalBinary(b []byte) error {
	if len(b) < headerSize {
		return errNotEnough
	}

	w := binary.LittleEndian.Uint32(b[0:])
	h := binary.LittleEndian.Uint32(b[4:])
	if w > MaxDimension || h > MaxDimension {
		return fmt.Errorf("rgb565: dimensions %dx%d too large", w, h)
	}

	switch need := headerSize + int64(w)*int64(h)*2; {
	case int64(len(b)) < need:
		return errNotEnough
	case int64(len(b)) > need:
		return errTooMuch
	}

	pix := make([]uint16, int(w)*int(h))

	if err := binary.Read(bytes.NewReader(b[headerSize:]), binary.LittleEndian, pix); err != nil {
		return err
	}

	p.Pix = pix
	p.Stride = int(w)
	p.Rect = image.Rect(0, 0, int(w), int(h))

	return nil
}
