package imagereader

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/bodgit/imagereader/display"
	"github.com/bodgit/imagereader/rgb565"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func single(name string, f bmpFile) *countingFS {
	return newCountingFS(map[string][]byte{name: f.bytes()})
}

func TestBMPDimensions(t *testing.T) {
	f16 := newBMP(7, 9)
	f16.depth = 16

	tables := []struct {
		file          bmpFile
		width, height int
	}{
		{newBMP(4, 2), 4, 2},
		{newBMP(4, -2), 4, 2},
		{newBMP(321, -240), 321, 240},
		{f16, 7, 9},
	}

	for _, table := range tables {
		t.Run(fmt.Sprintf("%dx%d", table.file.width, table.file.height), func(t *testing.T) {
			fsys := single("image.bmp", table.file)
			w, h, err := New(fsys).BMPDimensions("image.bmp")
			require.NoError(t, err)
			assert.Equal(t, table.width, w)
			assert.Equal(t, table.height, h)
			assert.Equal(t, 1, fsys.opens)
			assert.Equal(t, fsys.opens, fsys.closes)
		})
	}
}

func TestBMPDimensionsErrors(t *testing.T) {
	fsys := newCountingFS(map[string][]byte{
		"empty.bmp": {},
		"text.bmp":  []byte("hello, world, this is not a bitmap"),
	})
	r := New(fsys)

	_, _, err := r.BMPDimensions("missing.bmp")
	assert.True(t, errors.Is(err, ErrFileNotFound))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, _, err = r.BMPDimensions("empty.bmp")
	assert.True(t, errors.Is(err, ErrFormat))

	_, _, err = r.BMPDimensions("text.bmp")
	assert.True(t, errors.Is(err, ErrFormat))

	assert.Equal(t, 2, fsys.opens)
	assert.Equal(t, fsys.opens, fsys.closes)
}

func TestLoadBMP(t *testing.T) {
	for _, height := range []int32{5, -5} {
		for _, width := range []int32{1, 2, 3, 4, 5, 17} {
			for _, pixels := range []int{1, 2, 7, DefaultLoadPixels} {
				name := fmt.Sprintf("%dx%d/%d", width, height, pixels)
				t.Run(name, func(t *testing.T) {
					fsys := single("image.bmp", newBMP(width, height))

					img, err := New(fsys, WithLoadPixels(pixels)).LoadBMP("image.bmp")
					require.NoError(t, err)
					require.NotNil(t, img)

					assert.Equal(t, Canvas16, img.Format)
					assert.Nil(t, img.Mask)
					assert.Nil(t, img.Palette)
					assert.Equal(t, int(width), img.Width())
					assert.Equal(t, 5, img.Height())

					for y := 0; y < img.Height(); y++ {
						for x := 0; x < img.Width(); x++ {
							require.Equal(t, expected(x, y), img.Canvas.RGB565At(x, y), "pixel (%d,%d)", x, y)
						}
					}

					assert.Equal(t, 1, fsys.opens)
					assert.Equal(t, fsys.opens, fsys.closes)
				})
			}
		}
	}
}

func TestLoadBMPScenario(t *testing.T) {
	// 4x2 bottom-up, pixel data at 54, rows padded from 12 to 16 bytes
	b := make([]byte, 54+16*2)
	copy(b, newBMP(4, 2).bytes()[:54])
	for i := 54; i < len(b); i++ {
		b[i] = 0
	}
	// Top-left pixel is the first pixel of the last stored row, BGR order
	b[54+16+2] = 0xff

	fsys := newCountingFS(map[string][]byte{"red.bmp": b})
	img, err := New(fsys).LoadBMP("red.bmp")
	require.NoError(t, err)
	assert.Equal(t, []uint16{0xf800, 0, 0, 0, 0, 0, 0, 0}, img.Canvas.Pix)
}

func TestLoadBMPOrientation(t *testing.T) {
	up := single("image.bmp", newBMP(6, 4))
	down := single("image.bmp", newBMP(6, -4))

	a, err := New(up).LoadBMP("image.bmp")
	require.NoError(t, err)
	b, err := New(down).LoadBMP("image.bmp")
	require.NoError(t, err)

	assert.Equal(t, a.Canvas.Pix, b.Canvas.Pix)
}

func TestLoadBMPEncoded(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 13, 7))
	for y := 0; y < 7; y++ {
		for x := 0; x < 13; x++ {
			r, g, b := pattern(x, y)
			src.SetRGBA(x, y, color.RGBA{r, g, b, 0xff})
		}
	}

	buf := new(bytes.Buffer)
	require.NoError(t, bmp.Encode(buf, src))

	fsys := fstest.MapFS{"encoded.bmp": &fstest.MapFile{Data: buf.Bytes()}}
	img, err := New(fsys).LoadBMP("/encoded.bmp")
	require.NoError(t, err)

	ref, err := bmp.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	for y := 0; y < 7; y++ {
		for x := 0; x < 13; x++ {
			assert.Equal(t, rgb565.Model.Convert(ref.At(x, y)), img.Canvas.At(x, y), "pixel (%d,%d)", x, y)
			assert.Equal(t, expected(x, y), img.Canvas.RGB565At(x, y))
		}
	}
}

func TestLoadBMPTruncated(t *testing.T) {
	f := newBMP(3, -3)
	f.truncate = 17 // Lose the last row and the green and red of the pixel before

	fsys := single("short.bmp", f)
	img, err := New(fsys, WithLoadPixels(2)).LoadBMP("short.bmp")
	require.NoError(t, err)

	for x := 0; x < 3; x++ {
		assert.Equal(t, expected(x, 0), img.Canvas.RGB565At(x, 0))
		assert.Equal(t, uint16(0), img.Canvas.RGB565At(x, 2))
	}
	assert.Equal(t, expected(0, 1), img.Canvas.RGB565At(0, 1))
	assert.Equal(t, expected(1, 1), img.Canvas.RGB565At(1, 1))

	// Only the blue byte of the last pixel survived
	_, _, b := pattern(2, 1)
	assert.Equal(t, rgb565.Pack(0, 0, b), img.Canvas.RGB565At(2, 1))
}

func TestFormatRejection(t *testing.T) {
	badPlanes := newBMP(4, 4)
	badPlanes.planes = 2
	badDepth := newBMP(4, 4)
	badDepth.depth = 16
	badCompression := newBMP(4, 4)
	badCompression.compression = 1

	files := map[string][]byte{
		"planes.bmp":      badPlanes.bytes(),
		"depth.bmp":       badDepth.bytes(),
		"compression.bmp": badCompression.bytes(),
		"signature.bmp":   append([]byte("PM"), newBMP(4, 4).bytes()[2:]...),
	}
	fsys := newCountingFS(files)
	r := New(fsys)
	fb := display.New(8, 8, true)

	for i := 0; i < 3; i++ {
		for name := range files {
			_, err := r.LoadBMP(name)
			assert.True(t, errors.Is(err, ErrFormat), name)

			err = r.DrawBMP(name, fb, 0, 0)
			assert.True(t, errors.Is(err, ErrFormat), name)
		}
	}

	assert.Equal(t, 3*2*len(files), fsys.opens)
	assert.Equal(t, fsys.opens, fsys.closes)
	assert.Equal(t, display.Stats{}, fb.Stats())
}

func TestLoadBMPMalloc(t *testing.T) {
	fsys := newCountingFS(map[string][]byte{
		"big.bmp":   newBMP(3, 2).bytes(),
		"empty.bmp": newBMP(0, 2).bytes(),
		"wide.bmp":  newBMP(-3, 2).bytes(),
	})
	r := New(fsys, WithMaxPixels(5))

	for _, name := range []string{"big.bmp", "empty.bmp", "wide.bmp"} {
		img, err := r.LoadBMP(name)
		assert.Nil(t, img)
		assert.True(t, errors.Is(err, ErrMalloc), name)
	}

	assert.Equal(t, 3, fsys.opens)
	assert.Equal(t, fsys.opens, fsys.closes)
}

func TestOpenErrors(t *testing.T) {
	m := fstest.MapFS{"image.bmp": &fstest.MapFile{Data: newBMP(2, 2).bytes()}}

	_, err := New(m).LoadBMP("nope.bmp")
	assert.True(t, errors.Is(err, ErrFileNotFound))

	_, err = New(streamFS{m}).LoadBMP("image.bmp")
	assert.True(t, errors.Is(err, errNotSeekable))
	assert.False(t, errors.Is(err, ErrFileNotFound))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "open", e.Op)
	assert.Equal(t, "image.bmp", e.Path)
}

// drawn returns what a w by h display shows after drawing f at (x, y), built
// directly from the pattern.
func drawn(f bmpFile, w, h, x, y int) []uint16 {
	fw, fh := int(f.width), int(f.height)
	if fh < 0 {
		fh = -fh
	}
	pix := make([]uint16, w*h)
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			sx, sy := dx-x, dy-y
			if sx >= 0 && sy >= 0 && sx < fw && sy < fh {
				pix[dy*w+dx] = expected(sx, sy)
			}
		}
	}
	return pix
}

func TestDrawBMP(t *testing.T) {
	tables := []struct {
		file bmpFile
		x, y int
	}{
		{newBMP(5, 3), 0, 0},
		{newBMP(5, 3), 2, 1},
		{newBMP(5, -3), 2, 1},
		{newBMP(5, 3), -2, -1},
		{newBMP(5, -3), -2, -1},
		{newBMP(5, 3), 6, 4},
		{newBMP(12, 9), -3, -2},
		{newBMP(12, -9), 1, -4},
		{newBMP(4, 4), -3, 5},
		{newBMP(9, 2), 0, 6},
	}

	for _, table := range tables {
		for _, pixels := range []int{1, 3, DefaultDrawPixels} {
			name := fmt.Sprintf("%dx%d@%d,%d/%d", table.file.width, table.file.height, table.x, table.y, pixels)
			t.Run(name, func(t *testing.T) {
				fsys := single("image.bmp", table.file)
				fb := display.New(8, 7, true)

				fsys.probe = func() {
					assert.False(t, fb.InTransaction(), "bus held during storage access")
				}

				err := New(fsys, WithDrawPixels(pixels)).DrawBMP("image.bmp", fb, table.x, table.y)
				require.NoError(t, err)

				assert.Equal(t, drawn(table.file, 8, 7, table.x, table.y), fb.Image().Pix)
				assert.False(t, fb.InTransaction())
				assert.Equal(t, fsys.opens, fsys.closes)
			})
		}
	}
}

func TestDrawBMPBufferBound(t *testing.T) {
	fsys := single("image.bmp", newBMP(80, 2))
	fb := display.New(100, 2, true)

	require.NoError(t, New(fsys, WithDrawPixels(16)).DrawBMP("image.bmp", fb, 0, 0))

	stats := fb.Stats()
	assert.Equal(t, 160, stats.Pixels)
	assert.Equal(t, 1, stats.Windows)
	// 80 pixels per row in 16 pixel buffers, five writes per row
	assert.Equal(t, 10, stats.Writes)
}

func TestDrawBMPOffSurface(t *testing.T) {
	fsys := newCountingFS(nil)
	fb := display.New(10, 10, true)
	r := New(fsys)

	// Nothing is opened, the file does not even have to exist
	assert.NoError(t, r.DrawBMP("missing.bmp", fb, 10, 0))
	assert.NoError(t, r.DrawBMP("missing.bmp", fb, 0, 10))
	assert.NoError(t, r.DrawBMP("missing.bmp", fb, 100, 100))
	assert.Equal(t, 0, fsys.opens)
	assert.Equal(t, display.Stats{}, fb.Stats())

	err := r.DrawBMP("missing.bmp", fb, 9, 9)
	assert.True(t, errors.Is(err, ErrFileNotFound))
}

func TestDrawBMPClippedAway(t *testing.T) {
	fsys := single("image.bmp", newBMP(4, 4))
	fb := display.New(10, 10, true)
	r := New(fsys)

	assert.NoError(t, r.DrawBMP("image.bmp", fb, -4, 0))
	assert.NoError(t, r.DrawBMP("image.bmp", fb, 0, -10))
	assert.Equal(t, display.Stats{}, fb.Stats())
	assert.Equal(t, 2, fsys.opens)
	assert.Equal(t, fsys.opens, fsys.closes)
}

func TestDrawBMPCrop(t *testing.T) {
	fsys := single("image.bmp", newBMP(6, 5))
	fb := display.New(6, 5, true)

	require.NoError(t, New(fsys).DrawBMP("image.bmp", fb, -2, -3))

	// Pixel (0,0) of the panel is pixel (2,3) of the image
	assert.Equal(t, expected(2, 3), fb.Image().RGB565At(0, 0))
	assert.Equal(t, expected(5, 4), fb.Image().RGB565At(3, 1))
	assert.Equal(t, uint16(0), fb.Image().RGB565At(4, 0))
	assert.Equal(t, uint16(0), fb.Image().RGB565At(0, 2))
}

func TestSeekElision(t *testing.T) {
	// Top-down without padding is stored contiguously, a single seek to the
	// pixel data suffices
	contiguous := single("image.bmp", newBMP(4, -6))
	a, err := New(contiguous, WithLoadPixels(5)).LoadBMP("image.bmp")
	require.NoError(t, err)
	assert.Equal(t, 1, contiguous.seeks)

	// The same image stored bottom-up needs a seek per row
	reversed := single("image.bmp", newBMP(4, 6))
	b, err := New(reversed, WithLoadPixels(5)).LoadBMP("image.bmp")
	require.NoError(t, err)
	assert.Equal(t, 6, reversed.seeks)

	assert.Equal(t, a.Canvas.Pix, b.Canvas.Pix)

	// Cropping breaks the contiguous run on every row
	fb := display.New(3, 6, true)
	require.NoError(t, New(contiguous, WithDrawPixels(5)).DrawBMP("image.bmp", fb, -1, 0))
	assert.Equal(t, 1+6, contiguous.seeks)
	assert.Equal(t, drawn(newBMP(4, -6), 3, 6, -1, 0), fb.Image().Pix)
}

func TestYield(t *testing.T) {
	fsys := single("image.bmp", newBMP(3, 9))

	var n int
	r := New(fsys, WithYield(func() { n++ }))

	_, err := r.LoadBMP("image.bmp")
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	n = 0
	require.NoError(t, r.DrawBMP("image.bmp", display.New(3, 4, true), 0, 0))
	assert.Equal(t, 4, n)

	assert.NotPanics(t, func() {
		_, err = New(fsys, WithYield(nil)).LoadBMP("image.bmp")
	})
	assert.NoError(t, err)
}

func TestImageDraw(t *testing.T) {
	fsys := single("images/image.bmp", newBMP(5, 4))
	img, err := New(fsys).LoadBMP("/images/image.bmp")
	require.NoError(t, err)

	for _, p := range []image.Point{{0, 0}, {3, 2}, {-2, -1}, {-5, 0}, {7, 0}} {
		fb := display.New(7, 5, true)
		require.NoError(t, img.Draw(fb, p.X, p.Y))
		assert.Equal(t, drawn(newBMP(5, 4), 7, 5, p.X, p.Y), fb.Image().Pix, "%v", p)
		assert.False(t, fb.InTransaction())
	}

	var none *Image
	assert.NoError(t, none.Draw(display.New(1, 1, true), 0, 0))
	assert.NoError(t, (&Image{}).Draw(display.New(1, 1, true), 0, 0))
}

func TestCanvasFormatString(t *testing.T) {
	assert.Equal(t, "none", CanvasNone.String())
	assert.Equal(t, "16-bit", Canvas16.String())
	assert.Equal(t, "unknown", CanvasFormat(42).String())
}
