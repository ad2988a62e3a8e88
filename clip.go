package imagereader

// region is the part of an image that lands on a destination surface. The
// block of w by h pixels starting at (srcX, srcY) in the image is written at
// (dstX, dstY) on the surface.
type region struct {
	dstX, dstY int
	srcX, srcY int
	w, h       int
}

func (r region) empty() bool {
	return r.w <= 0 || r.h <= 0
}

// offSurface reports whether an image placed at (x, y) cannot be visible on
// a surface of the given size, whatever its dimensions.
func offSurface(x, y, width, height int) bool {
	return x >= width || y >= height
}

// clip places a w by h image at (x, y) on a surface of the given size and
// returns the visible region. Negative coordinates crop columns from the left
// and rows from the top of the image.
func clip(x, y, w, h, width, height int) region {
	r := region{dstX: x, dstY: y, w: w, h: h}
	if r.empty() {
		return r
	}

	if r.dstX < 0 {
		r.w += r.dstX
		r.srcX = -r.dstX
		r.dstX = 0
	}
	if r.dstY < 0 {
		r.h += r.dstY
		r.srcY = -r.dstY
		r.dstY = 0
	}

	// Written so that huge dimensions cannot overflow
	if r.w > width-r.dstX {
		r.w = width - r.dstX
	}
	if r.h > height-r.dstY {
		r.h = height - r.dstY
	}

	return r
}
