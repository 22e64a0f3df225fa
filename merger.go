package umidiparser

import "io"

// eventIterator is implemented by every stage of the pipeline: track
// parsers, the merger, the tempo mapper and the players. Next returns
// io.EOF once the stream is exhausted.
type eventIterator interface {
	Next() (*Event, error)
}

// trackCursor tracks one track parser's most recently read, not-yet-emitted
// event and, in cumTicks, the absolute tick time of that track's previously
// emitted event; the pending event occurs at cumTicks + next.DeltaTicks.
type trackCursor struct {
	track    *trackParser
	next     *Event
	cumTicks uint64
	done     bool
}

// merger performs a deterministic k-way merge over N track parsers,
// producing a single stream in non-decreasing absolute-tick order with ties
// broken by ascending track index. It collapses every track's terminal
// END_OF_TRACK into exactly one synthetic END_OF_TRACK at the very end of
// the merged stream.
type merger struct {
	cursors []*trackCursor
	lastAbs uint64
	primed  bool
	done    bool

	reuse   bool
	event   Event
	scratch []byte
}

func newMerger(tracks []*trackParser, reuse bool) (*merger, error) {
	m := &merger{cursors: make([]*trackCursor, len(tracks)), reuse: reuse}
	for i, t := range tracks {
		m.cursors[i] = &trackCursor{track: t}
	}
	return m, nil
}

func (m *merger) prime() error {
	for _, c := range m.cursors {
		if err := m.advance(c); err != nil {
			return err
		}
	}
	m.primed = true
	return nil
}

// advance pulls the next event from c's track parser into c.next. A track
// parser emits exactly one END_OF_TRACK before returning io.EOF; both cases
// collapse into cursor exhaustion here so END_OF_TRACK is never forwarded
// from an individual track into the merged stream.
func (m *merger) advance(c *trackCursor) error {
	ev, err := c.track.Next()
	if err == io.EOF || (err == nil && ev.Status == EndOfTrack) {
		c.next = nil
		c.done = true
		return nil
	}
	if err != nil {
		return err
	}
	c.next = ev
	return nil
}

// Next implements eventIterator.
func (m *merger) Next() (*Event, error) {
	if m.done {
		return nil, io.EOF
	}
	if !m.primed {
		if err := m.prime(); err != nil {
			return nil, err
		}
	}

	best := -1
	var bestAbs uint64
	for i, c := range m.cursors {
		if c.done || c.next == nil {
			continue
		}
		abs := c.cumTicks + uint64(c.next.DeltaTicks)
		if best == -1 || abs < bestAbs {
			best = i
			bestAbs = abs
		}
	}

	if best == -1 {
		m.done = true
		out := m.slot()
		*out = Event{Status: EndOfTrack, DeltaTicks: 0}
		return out, nil
	}

	c := m.cursors[best]
	ev := c.next
	deltaTicks := bestAbs - m.lastAbs
	m.lastAbs = bestAbs
	c.cumTicks = bestAbs

	out := m.slot()
	*out = *ev
	// ev.Payload may alias a track parser's reused scratch buffer, which
	// advance(c) below is about to overwrite in place: the copy must happen
	// before advance runs, regardless of this merger's own reuse policy.
	out.Payload = m.capturePayload(ev.Payload)
	out.DeltaTicks = uint32(deltaTicks)
	out.SourceTrack = best

	if err := m.advance(c); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *merger) slot() *Event {
	if m.reuse {
		return &m.event
	}
	return &Event{}
}

func (m *merger) capturePayload(b []byte) []byte {
	if b == nil {
		return nil
	}
	if !m.reuse {
		return append([]byte(nil), b...)
	}
	m.scratch = append(m.scratch[:0], b...)
	return m.scratch
}
