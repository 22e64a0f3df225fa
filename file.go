package umidiparser

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// scanWindow bounds how much of the file a File keeps buffered while
// scanning the header and chunk table; scanning only ever reads 8-byte
// chunk headers plus the 6-byte MThd body, so this only needs to be large
// enough to avoid pathological refill counts.
const scanWindow = 4096

// File is the entry point for reading one Standard MIDI File: it parses the
// header and chunk table once at Open and hands out iterators and players
// over the tracks it found.
type File struct {
	path       string
	header     Header
	tracks     []TrackHandle
	bufferSize int
	reuse      bool

	// ownedPayload holds one fully-loaded track payload when bufferSize<=0;
	// nil otherwise, in which case each iterator opens its own file handle.
	// trackParserAt wraps a fresh byteSource around the relevant slice on
	// every call so that independently constructed iterators never share a
	// mutable read cursor.
	ownedPayload [][]byte
}

// Open parses path's header and chunk table and returns a File ready to
// iterate or play. bufferSize<=0 loads every track fully into memory and
// releases the file handle before returning; bufferSize>0 keeps each
// track's payload in a sliding window of that many bytes, opening a fresh
// handle per track iterator. reuseEventObject selects whether iterators
// overwrite one Event in place (true) or allocate a fresh Event per step
// (false).
func Open(path string, bufferSize int, reuseEventObject bool) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	fileLen := info.Size()

	scanSrc, err := newByteSource(f, 0, fileLen, scanWindow)
	if err != nil {
		return nil, err
	}

	header, afterHeader, err := readHeader(scanSrc)
	if err != nil {
		return nil, err
	}
	handles, err := scanTrackChunks(scanSrc, afterHeader, fileLen)
	if err != nil {
		return nil, err
	}

	result := &File{
		path:       path,
		header:     header,
		tracks:     handles,
		bufferSize: bufferSize,
		reuse:      reuseEventObject,
	}

	if bufferSize <= 0 {
		payloads := make([][]byte, len(handles))
		for i, h := range handles {
			buf := make([]byte, h.Length)
			if h.Length > 0 {
				if _, err := f.ReadAt(buf, h.Offset); err != nil && err != io.EOF {
					return nil, errors.Wrap(ErrTruncatedTrack, err.Error())
				}
			}
			payloads[i] = buf
		}
		result.ownedPayload = payloads
	}

	return result, nil
}

// FormatType returns the SMF format (0, 1 or 2) declared in the header.
func (f *File) FormatType() uint16 { return f.header.FormatType }

// PPQ returns the ticks-per-quarter-note division. SMPTE-divided files are
// rejected at Open, so this is always the ticks-per-quarter-note reading.
func (f *File) PPQ() uint16 { return f.header.PPQ }

// NumTracks returns the number of MTrk chunks found in the file.
func (f *File) NumTracks() int { return len(f.tracks) }

// BufferSize returns the buffer_size this File was opened with.
func (f *File) BufferSize() int { return f.bufferSize }

// ReuseEventObject returns the reuse_event_object policy this File was
// opened with.
func (f *File) ReuseEventObject() bool { return f.reuse }

// Close releases any file handle still held open by f. Handles are already
// released during Open in every configuration this package supports, so
// this is currently always a no-op; it exists for symmetry with the
// per-track iterators' Close and to remain safe if a future buffering mode
// needs to retain one.
func (f *File) Close() error { return nil }

func (f *File) trackParserAt(index int) (*trackParser, io.Closer, error) {
	if index < 0 || index >= len(f.tracks) {
		return nil, nil, errors.Errorf("umidiparser: track index %d out of range [0,%d)", index, len(f.tracks))
	}
	if f.ownedPayload != nil {
		handle := f.tracks[index]
		src := newOwnedByteSource(handle.Offset, f.ownedPayload[index])
		return newTrackParser(src, index, f.reuse), nil, nil
	}
	handle := f.tracks[index]
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, nil, err
	}
	src, err := newByteSource(fh, handle.Offset, handle.Length, f.bufferSize)
	if err != nil {
		fh.Close()
		return nil, nil, err
	}
	return newTrackParser(src, index, f.reuse), fh, nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Iterator is an eventIterator with an associated Close, returned by Iter
// and TrackIter. Close releases any file handles the iterator opened;
// it is safe to call even when nothing was opened (bufferSize<=0).
type Iterator struct {
	eventIterator
	closer io.Closer
}

// Close releases the file handles backing it.
func (it *Iterator) Close() error {
	if it.closer == nil {
		return nil
	}
	return it.closer.Close()
}

func (f *File) allTrackParsers() ([]*trackParser, io.Closer, error) {
	parsers := make([]*trackParser, len(f.tracks))
	closers := make(multiCloser, len(f.tracks))
	for i := range f.tracks {
		p, c, err := f.trackParserAt(i)
		if err != nil {
			closers.Close()
			return nil, nil, err
		}
		parsers[i] = p
		closers[i] = c
	}
	return parsers, closers, nil
}

// terminalEotZeroer forces the DeltaTicks of the single END_OF_TRACK an
// eventIterator emits to 0, matching the merger's synthesized terminal
// event (merger.go's Next, best == -1 branch) so that single-track files
// agree with merged multi-track files on the terminal event regardless of
// whatever real delta preceded the wire-level FF 2F 00.
type terminalEotZeroer struct {
	eventIterator
}

func (z *terminalEotZeroer) Next() (*Event, error) {
	ev, err := z.eventIterator.Next()
	if err != nil {
		return nil, err
	}
	if ev.Status == EndOfTrack {
		ev.DeltaTicks = 0
	}
	return ev, nil
}

// Iter returns the whole-file merged event stream, tempo-mapped, in
// non-decreasing absolute-tick order. Only format 0 and format 1 files
// support merged iteration; format 2 files with more than one track return
// ErrFormat2RequiresTrackSelection.
func (f *File) Iter() (*Iterator, error) {
	if f.header.FormatType == 2 && len(f.tracks) > 1 {
		return nil, ErrFormat2RequiresTrackSelection
	}
	parsers, closer, err := f.allTrackParsers()
	if err != nil {
		return nil, err
	}
	var src eventIterator
	if len(parsers) == 1 {
		src = &terminalEotZeroer{eventIterator: parsers[0]}
	} else {
		m, err := newMerger(parsers, f.reuse)
		if err != nil {
			closer.Close()
			return nil, err
		}
		src = m
	}
	return &Iterator{eventIterator: newTempoMapper(src, f.header.PPQ), closer: closer}, nil
}

// TrackIter returns the tempo-mapped event stream for a single track,
// independent of the file's format and unaffected by other tracks.
func (f *File) TrackIter(index int) (*Iterator, error) {
	p, closer, err := f.trackParserAt(index)
	if err != nil {
		return nil, err
	}
	return &Iterator{eventIterator: newTempoMapper(p, f.header.PPQ), closer: closer}, nil
}

// Play returns a BlockingPlayer scheduling the whole-file merged stream.
func (f *File) Play() (*BlockingPlayer, error) {
	it, err := f.Iter()
	if err != nil {
		return nil, err
	}
	return newBlockingPlayer(it, nil, nil, it), nil
}

// PlayCooperative returns a CooperativePlayer scheduling the whole-file
// merged stream, suspending via a context-cancellable sleep.
func (f *File) PlayCooperative() (*CooperativePlayer, error) {
	it, err := f.Iter()
	if err != nil {
		return nil, err
	}
	return newCooperativePlayer(it, nil, nil, it), nil
}

// TrackPlay returns a BlockingPlayer scheduling a single track's stream.
func (f *File) TrackPlay(index int) (*BlockingPlayer, error) {
	it, err := f.TrackIter(index)
	if err != nil {
		return nil, err
	}
	return newBlockingPlayer(it, nil, nil, it), nil
}

// TrackPlayCooperative returns a CooperativePlayer scheduling a single
// track's stream.
func (f *File) TrackPlayCooperative(index int) (*CooperativePlayer, error) {
	it, err := f.TrackIter(index)
	if err != nil {
		return nil, err
	}
	return newCooperativePlayer(it, nil, nil, it), nil
}

// LengthUs sums delta_us across the whole merged stream without scheduling
// or blocking. It is idempotent: calling it repeatedly re-derives the total
// from a fresh iterator and never perturbs any other iterator's state.
func (f *File) LengthUs() (uint64, error) {
	if f.header.FormatType == 2 && len(f.tracks) > 1 {
		return 0, ErrFormat2NotSupported
	}
	it, err := f.Iter()
	if err != nil {
		return 0, err
	}
	defer it.Close()
	return lengthUs(it)
}
