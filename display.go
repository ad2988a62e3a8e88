package imagereader

// Display is a pixel addressable panel sharing a command bus, such as an SPI
// TFT. Pixels are 5/6/5 packed.
type Display interface {
	// Size returns the width and height of the panel in pixels.
	Size() (int, int)
	// StartWrite acquires the bus.
	StartWrite()
	// EndWrite releases the bus.
	EndWrite()
	// SetAddrWindow selects the rectangle that subsequent writes fill, left
	// to right and top to bottom.
	SetAddrWindow(x, y, width, height int)
	// WritePixels sends pixels to the current address window.
	WritePixels([]uint16) error
}
