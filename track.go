package umidiparser

import (
	"io"

	"github.com/pkg/errors"
)

// trackParser turns one track chunk's payload into a stream of *Event,
// tracking running status and synthesizing a single trailing END_OF_TRACK
// if the track does not supply its own.
type trackParser struct {
	src   *byteSource
	index int

	runningStatus Status
	haveRunning   bool

	done bool // true once END_OF_TRACK has been emitted

	reuse   bool
	event   Event  // scratch event reused when reuse is true
	scratch []byte // growable payload buffer reused when reuse is true
}

func newTrackParser(src *byteSource, index int, reuse bool) *trackParser {
	return &trackParser{src: src, index: index, reuse: reuse}
}

// Next returns the next event in the track, or io.EOF after the track's
// END_OF_TRACK (real or synthesized) has been returned exactly once.
func (p *trackParser) Next() (*Event, error) {
	if p.done {
		return nil, io.EOF
	}

	deltaTicks, status, payload, err := p.readOne()
	if err != nil {
		p.done = true
		return nil, err
	}

	if status == EndOfTrack {
		p.done = true
	}

	ev := p.eventSlot()
	ev.Status = status
	ev.DeltaTicks = deltaTicks
	ev.Payload = payload
	if isChannelStatus(status) {
		ev.Channel = uint8(p.runningStatus) & 0x0f
	} else {
		ev.Channel = 0
	}
	return ev, nil
}

func (p *trackParser) eventSlot() *Event {
	if p.reuse {
		return &p.event
	}
	return &Event{}
}

// readOne reads a single raw event (delta_ticks, status, payload) from the
// byte source, synthesizing a trailing END_OF_TRACK when the source is
// exhausted without one.
func (p *trackParser) readOne() (uint32, Status, []byte, error) {
	if p.src.eof() {
		return 0, EndOfTrack, nil, nil
	}

	deltaTicks, err := p.src.readVlq()
	if err != nil {
		return 0, 0, nil, err
	}

	if p.src.eof() {
		// A delta with nothing following: treat as the missing-EOT repair
		// rather than a structural error, matching the tolerance for
		// tracks that never write their own END_OF_TRACK.
		return 0, EndOfTrack, nil, nil
	}

	b, err := p.src.peekU8()
	if err != nil {
		return 0, 0, nil, err
	}

	switch {
	case b&0x80 == 0:
		// Running-status continuation: b is the first data byte.
		status := p.runningStatus & 0xf0
		if !p.haveRunning || !isChannelStatus(status) {
			return 0, 0, nil, ErrRunningStatusWithoutPrior
		}
		payload, err := p.readChannelPayload(status)
		if err != nil {
			return 0, 0, nil, err
		}
		return deltaTicks, status, payload, nil

	case b == metaPrefix:
		if _, err := p.src.readU8(); err != nil { // consume 0xFF
			return 0, 0, nil, err
		}
		metaType, err := p.src.readU8()
		if err != nil {
			return 0, 0, nil, err
		}
		length, err := p.src.readVlq()
		if err != nil {
			return 0, 0, nil, err
		}
		body, err := p.src.readBytes(int(length))
		if err != nil {
			return 0, 0, nil, err
		}
		status := Status(metaType)
		if status == EndOfTrack {
			return deltaTicks, EndOfTrack, nil, nil
		}
		return deltaTicks, status, p.store(body), nil

	case Status(b) == Sysex || Status(b) == Escape:
		status := Status(b)
		if _, err := p.src.readU8(); err != nil { // consume F0/F7
			return 0, 0, nil, err
		}
		length, err := p.src.readVlq()
		if err != nil {
			return 0, 0, nil, err
		}
		body, err := p.src.readBytes(int(length))
		if err != nil {
			return 0, 0, nil, err
		}
		if status == Sysex && len(body) > 0 && body[len(body)-1] == 0xF7 {
			body = body[:len(body)-1]
		}
		return deltaTicks, status, p.store(body), nil

	case b >= uint8(firstChannel) && b <= uint8(lastChannel)+0x0f:
		status := Status(b & 0xf0)
		if _, err := p.src.readU8(); err != nil { // consume status byte
			return 0, 0, nil, err
		}
		p.runningStatus = Status(b) // full byte: Next takes the channel from its low nibble
		p.haveRunning = true
		payload, err := p.readChannelPayload(status)
		if err != nil {
			return 0, 0, nil, err
		}
		return deltaTicks, status, payload, nil

	default:
		// Not a channel status, 0xFF, 0xF0 or 0xF7, and not a running-status
		// continuation (high bit set): a system common/realtime byte with no
		// place in an SMF track.
		return 0, 0, nil, errors.Wrapf(ErrRunningStatusWithoutPrior, "unexpected status byte 0x%02x", b)
	}
}

func (p *trackParser) readChannelPayload(status Status) ([]byte, error) {
	n := 2
	if status >= first1ByteEvent && status <= last1ByteEvent {
		n = 1
	}
	body, err := p.src.readBytes(n)
	if err != nil {
		return nil, err
	}
	return p.store(body), nil
}

// store makes body safe to hand back as an Event's Payload. When the byte
// source owns its whole-track buffer (buffer_size==0), body already aliases
// memory stable for the source's entire lifetime and is returned unchanged.
// Otherwise body may alias the source's sliding window, which a later read
// can overwrite: with reuse enabled it is copied into a persistent, growable
// scratch buffer (avoiding an allocation per event); with reuse disabled it
// is copied into a fresh, independently-owned slice.
func (p *trackParser) store(body []byte) []byte {
	if p.src.owned != nil {
		return body
	}
	if !p.reuse {
		return append([]byte(nil), body...)
	}
	p.scratch = append(p.scratch[:0], body...)
	return p.scratch
}
