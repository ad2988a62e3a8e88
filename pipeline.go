package imagereader

import (
	"github.com/bodgit/imagereader/rgb565"
)

// sink receives the converted pixels of a region, one row after another.
type sink interface {
	// begin is called once before the first pixel.
	begin(r region) error
	// writePixel stores the next pixel.
	writePixel(c uint16) error
	// suspend is called before every storage read or seek.
	suspend() error
	// endRow is called after the last pixel of each row.
	endRow() error
	// finish is called once after the last row.
	finish() error
}

// displaySink buffers pixels and writes them to a display. The bus is held
// only while writing and is always released before storage is accessed and at
// the end of every row.
type displaySink struct {
	d      Display
	buf    []uint16
	active bool
}

func newDisplaySink(d Display, n int) *displaySink {
	return &displaySink{
		d:   d,
		buf: make([]uint16, 0, n),
	}
}

func (s *displaySink) start() {
	if !s.active {
		s.d.StartWrite()
		s.active = true
	}
}

func (s *displaySink) release() {
	if s.active {
		s.d.EndWrite()
		s.active = false
	}
}

func (s *displaySink) flush() error {
	if len(s.buf) == 0 {
		return nil
	}
	s.start()
	err := s.d.WritePixels(s.buf)
	s.buf = s.buf[:0]
	return err
}

func (s *displaySink) begin(r region) error {
	s.start()
	s.d.SetAddrWindow(r.dstX, r.dstY, r.w, r.h)
	return nil
}

func (s *displaySink) writePixel(c uint16) error {
	if len(s.buf) == cap(s.buf) {
		if err := s.flush(); err != nil {
			return err
		}
	}
	s.buf = append(s.buf, c)
	return nil
}

func (s *displaySink) suspend() error {
	err := s.flush()
	s.release()
	return err
}

func (s *displaySink) endRow() error {
	return s.suspend()
}

func (s *displaySink) finish() error {
	s.release()
	return nil
}

// surfaceSink writes pixels straight into consecutive positions of a surface
// covering the whole region.
type surfaceSink struct {
	pix []uint16
	i   int
}

func (s *surfaceSink) begin(region) error { return nil }

func (s *surfaceSink) writePixel(c uint16) error {
	s.pix[s.i] = c
	s.i++
	return nil
}

func (s *surfaceSink) suspend() error { return nil }

func (s *surfaceSink) endRow() error { return nil }

func (s *surfaceSink) finish() error { return nil }

// pipeline pumps the pixels of one region from an open file to a sink.
type pipeline struct {
	f     *file
	hdr   *header
	yield func()

	buf []byte // Read-ahead, whole pixels only
	i   int    // Next unconsumed byte in buf
	n   int    // Bytes of buf holding data
	cur int64  // Position in the file of buf[i]
}

func newPipeline(f *file, hdr *header, pixels int, yield func()) *pipeline {
	return &pipeline{
		f:     f,
		hdr:   hdr,
		yield: yield,
		buf:   make([]byte, pixels*3),
		cur:   f.pos,
	}
}

// position moves the logical read position to offset. The file is only
// seeked when offset is not the next byte available, in which case any
// buffered data is discarded.
func (p *pipeline) position(s sink, offset int64) error {
	if offset == p.cur {
		return nil
	}
	if err := s.suspend(); err != nil {
		return err
	}
	if err := p.f.seek(offset); err != nil {
		return err
	}
	p.i, p.n, p.cur = 0, 0, offset
	return nil
}

// refill tops up the read-ahead buffer, keeping any partial pixel left over.
func (p *pipeline) refill(s sink) error {
	if err := s.suspend(); err != nil {
		return err
	}
	if p.f.pos != p.cur+int64(p.n-p.i) {
		// Only possible once the end of the file has been reached
		p.i, p.n = 0, 0
		if err := p.f.seek(p.cur); err != nil {
			return err
		}
	}
	left := copy(p.buf, p.buf[p.i:p.n])
	if err := p.f.read(p.buf[left:]); err != nil {
		return err
	}
	p.i, p.n = 0, len(p.buf)
	return nil
}

func (p *pipeline) run(r region, s sink) error {
	if err := s.begin(r); err != nil {
		return err
	}

	for row := 0; row < r.h; row++ {
		p.yield()

		if err := p.position(s, p.hdr.rowOffset(r.srcY+row, r.srcX)); err != nil {
			return err
		}

		for col := 0; col < r.w; col++ {
			if p.i+3 > p.n {
				if err := p.refill(s); err != nil {
					return err
				}
			}

			b, g, red := p.buf[p.i], p.buf[p.i+1], p.buf[p.i+2]
			p.i += 3
			p.cur += 3

			if err := s.writePixel(rgb565.Pack(red, g, b)); err != nil {
				return err
			}
		}

		if err := s.endRow(); err != nil {
			return err
		}
	}

	return s.finish()
}
