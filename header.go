package imagereader

import "math"

const (
	signature    = 0x4d42 // "BM"
	planes       = 1
	depth        = 24
	uncompressed = 0
)

// header is the geometry of a validated BMP file.
type header struct {
	offset   int64 // Start of pixel data
	width    int
	height   int   // Always positive
	stride   int64 // Bytes per stored row including padding
	bottomUp bool
}

// rowOffset returns the position in the file of column col of row row,
// counted from the top of the image.
func (h *header) rowOffset(row, col int) int64 {
	if h.bottomUp {
		row = h.height - 1 - row
	}
	return h.offset + int64(row)*h.stride + int64(col)*3
}

// readHeader parses the BMP file and info headers from the start of f. When
// full is false only the signature is checked and parsing stops once the
// dimensions have been read.
func readHeader(f *file, full bool) (*header, error) {
	var fields [4]uint32

	sig, err := f.readLE16()
	if err != nil {
		return nil, err
	}
	if sig != signature {
		return nil, ErrFormat
	}

	// File size, creator bytes, pixel data offset, DIB header size
	for i := range fields {
		if fields[i], err = f.readLE32(); err != nil {
			return nil, err
		}
	}

	w, err := f.readLE32()
	if err != nil {
		return nil, err
	}
	h, err := f.readLE32()
	if err != nil {
		return nil, err
	}

	// The height of a top-down image has no positive counterpart
	if int32(h) == math.MinInt32 {
		return nil, ErrFormat
	}

	hdr := &header{
		offset:   int64(fields[2]),
		width:    int(int32(w)),
		height:   int(int32(h)),
		bottomUp: true,
	}

	// Top-down images have a negative height
	if hdr.height < 0 {
		hdr.height = -hdr.height
		hdr.bottomUp = false
	}

	// Rows are padded to a 4-byte boundary
	hdr.stride = (int64(hdr.width)*3 + 3) &^ 3

	if !full {
		return hdr, nil
	}

	if n, err := f.readLE16(); err != nil {
		return nil, err
	} else if n != planes {
		return nil, ErrFormat
	}

	if n, err := f.readLE16(); err != nil {
		return nil, err
	} else if n != depth {
		return nil, ErrFormat
	}

	if n, err := f.readLE32(); err != nil {
		return nil, err
	} else if n != uncompressed {
		return nil, ErrFormat
	}

	return hdr, nil
}
