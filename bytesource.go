package umidiparser

import (
	"io"

	"github.com/pkg/errors"
)

// byteSource is a seekable, forward-consuming reader over one track's
// payload bytes. It never reads past its end offset. When windowSize is 0
// the whole payload is loaded once into an owned buffer and every slice it
// returns is stable for the source's lifetime; otherwise it keeps a sliding
// window of windowSize bytes, refilling from r on demand.
type byteSource struct {
	r    io.ReaderAt
	base int64
	cur  int64
	end  int64

	owned []byte // only set when windowSize == 0; owned[0] corresponds to file offset base

	window     []byte
	windowBase int64 // file offset of window[0]
	windowLen  int   // valid bytes currently in window
}

// newByteSource constructs a byteSource over r covering [base, base+length).
// windowSize == 0 reads the whole range into an owned buffer immediately.
func newByteSource(r io.ReaderAt, base, length int64, windowSize int) (*byteSource, error) {
	s := &byteSource{base: base, cur: base, end: base + length}
	if windowSize <= 0 {
		buf := make([]byte, length)
		if length > 0 {
			if _, err := r.ReadAt(buf, base); err != nil && err != io.EOF {
				return nil, errors.Wrap(ErrTruncatedTrack, err.Error())
			}
		}
		s.owned = buf
		return s, nil
	}
	s.r = r
	s.window = make([]byte, windowSize)
	return s, nil
}

// newOwnedByteSource wraps an already-loaded payload buffer in a fresh
// byteSource positioned at its start. payload is aliased, not copied, so
// callers must give each call its own independent cursor state rather than
// share one byteSource across iterators: the returned source is exactly
// that independent cursor.
func newOwnedByteSource(base int64, payload []byte) *byteSource {
	return &byteSource{base: base, cur: base, end: base + int64(len(payload)), owned: payload}
}

func (s *byteSource) eof() bool {
	return s.cur >= s.end
}

func (s *byteSource) remaining() int64 {
	return s.end - s.cur
}

// readBytes returns the next n bytes. When the source owns its buffer, the
// returned slice aliases owned memory and is stable for the source's
// lifetime. Otherwise it is either a slice of the sliding window (valid only
// until the next readBytes/skip call) or, for reads larger than the window,
// a freshly allocated and independently stable slice.
func (s *byteSource) readBytes(n int) ([]byte, error) {
	if n < 0 || int64(n) > s.remaining() {
		return nil, errors.Wrapf(ErrTruncatedTrack, "need %d bytes, %d remaining", n, s.remaining())
	}
	if s.owned != nil {
		off := s.cur - s.base
		b := s.owned[off : off+int64(n)]
		s.cur += int64(n)
		return b, nil
	}
	if n > len(s.window) {
		buf := make([]byte, n)
		if _, err := s.r.ReadAt(buf, s.cur); err != nil && err != io.EOF {
			return nil, errors.Wrap(ErrTruncatedTrack, err.Error())
		}
		s.cur += int64(n)
		s.invalidateWindow()
		return buf, nil
	}
	if !s.windowContains(s.cur, n) {
		if err := s.refillWindow(); err != nil {
			return nil, err
		}
	}
	rel := int(s.cur - s.windowBase)
	b := s.window[rel : rel+n]
	s.cur += int64(n)
	return b, nil
}

func (s *byteSource) windowContains(offset int64, n int) bool {
	if offset < s.windowBase || offset+int64(n) > s.windowBase+int64(s.windowLen) {
		return false
	}
	return true
}

func (s *byteSource) invalidateWindow() {
	s.windowLen = 0
}

func (s *byteSource) refillWindow() error {
	want := len(s.window)
	if int64(want) > s.remaining() {
		want = int(s.remaining())
	}
	n, err := s.r.ReadAt(s.window[:want], s.cur)
	if err != nil && err != io.EOF {
		return errors.Wrap(ErrTruncatedTrack, err.Error())
	}
	s.windowBase = s.cur
	s.windowLen = n
	return nil
}

func (s *byteSource) skip(n int64) error {
	if n < 0 || n > s.remaining() {
		return errors.Wrapf(ErrTruncatedTrack, "cannot skip %d bytes, %d remaining", n, s.remaining())
	}
	s.cur += n
	return nil
}

func (s *byteSource) readU8() (uint8, error) {
	b, err := s.readBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *byteSource) peekU8() (uint8, error) {
	if s.eof() {
		return 0, errors.Wrap(ErrTruncatedTrack, "peek past end of track")
	}
	if s.owned != nil {
		return s.owned[s.cur-s.base], nil
	}
	if !s.windowContains(s.cur, 1) {
		if err := s.refillWindow(); err != nil {
			return 0, err
		}
	}
	return s.window[s.cur-s.windowBase], nil
}

func (s *byteSource) readU16BE() (uint16, error) {
	b, err := s.readBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func (s *byteSource) readU32BE() (uint32, error) {
	b, err := s.readBytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// readVlq decodes a MIDI variable-length quantity: up to 4 bytes, 7 data
// bits per byte, MSB set on every byte but the last.
func (s *byteSource) readVlq() (uint32, error) {
	var value uint32
	for i := 0; i < 4; i++ {
		b, err := s.readU8()
		if err != nil {
			return 0, err
		}
		value = value<<7 | uint32(b&0x7f)
		if b&0x80 == 0 {
			return value, nil
		}
	}
	return 0, errors.Wrap(ErrMalformedVlq, "no terminating byte within 4 bytes")
}
