package umidiparser

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Event is the unit produced by every stage of iteration. A Track Parser
// fills in Status, Channel, Payload and DeltaTicks (ticks since the
// previous event in that track); the Merger rewrites DeltaTicks to be ticks
// since the previous event in the merged stream and sets SourceTrack; the
// Tempo Mapper fills in DeltaUs; a Player fills in TimestampUs. Depending on
// the reuse_event_object policy an iterator passes back, the same *Event may
// be overwritten on every call (copy it with Copy before holding onto it) or
// a fresh one may be allocated each time.
type Event struct {
	Status      Status
	Channel     uint8
	Payload     []byte
	DeltaTicks  uint32
	DeltaUs     uint64
	SourceTrack int
	TimestampUs uint64
}

// Copy returns an independent deep copy of e. Use this to retain an event
// returned from an iterator configured with reuse_event_object=true past the
// next call to Next.
func (e *Event) Copy() *Event {
	c := *e
	if e.Payload != nil {
		c.Payload = append([]byte(nil), e.Payload...)
	}
	return &c
}

// IsMeta reports whether e is a meta event (as opposed to a channel event or
// a sysex/escape event).
func (e *Event) IsMeta() bool {
	return isMetaStatus(e.Status)
}

// IsChannel reports whether e is a channel event such as NOTE_ON.
func (e *Event) IsChannel() bool {
	return isChannelStatus(e.Status)
}

// Data returns the raw payload of the event: for channel events this is the
// 1 or 2 data bytes; for meta events, the body with no type byte or length
// prefix; for sysex events, the body with no leading 0xF0, length, or
// trailing 0xF7; for escape events, the body with no leading 0xF7 or length.
func (e *Event) Data() []byte {
	return e.Payload
}

func fieldErr(e *Event, field string) error {
	return errors.Wrapf(ErrInvalidFieldForEvent, "field %q not valid for %s event", field, e.Status)
}

// Note returns the note number for NOTE_ON, NOTE_OFF and POLYTOUCH events.
func (e *Event) Note() (uint8, error) {
	switch e.Status {
	case NoteOn, NoteOff, PolyTouch:
		return e.Payload[0], nil
	}
	return 0, fieldErr(e, "note")
}

// Velocity returns the velocity for NOTE_ON and NOTE_OFF events.
func (e *Event) Velocity() (uint8, error) {
	switch e.Status {
	case NoteOn, NoteOff:
		return e.Payload[1], nil
	}
	return 0, fieldErr(e, "velocity")
}

// Value returns the pressure/value for AFTERTOUCH, CONTROL_CHANGE and
// POLYTOUCH events.
func (e *Event) Value() (uint8, error) {
	switch e.Status {
	case Aftertouch:
		return e.Payload[0], nil
	case ControlChange, PolyTouch:
		return e.Payload[1], nil
	}
	return 0, fieldErr(e, "value")
}

// Program returns the program number for PROGRAM_CHANGE events.
func (e *Event) Program() (uint8, error) {
	if e.Status != ProgramChange {
		return 0, fieldErr(e, "program")
	}
	return e.Payload[0], nil
}

// Control returns the controller number for CONTROL_CHANGE events.
func (e *Event) Control() (uint8, error) {
	if e.Status != ControlChange {
		return 0, fieldErr(e, "control")
	}
	return e.Payload[0], nil
}

// Pitch returns the pitch bend value for PITCHWHEEL events, in -8192..8191
// with 0 meaning no bend.
func (e *Event) Pitch() (int16, error) {
	if e.Status != PitchWheel {
		return 0, fieldErr(e, "pitch")
	}
	lsb := uint16(e.Payload[0]) & 0x7f
	msb := uint16(e.Payload[1]) & 0x7f
	return int16(msb<<7|lsb) - 8192, nil
}

// SequenceNumber returns the number for SEQUENCE_NUMBER events. A 0-byte
// payload (the number omitted) returns 0.
func (e *Event) SequenceNumber() (uint16, error) {
	if e.Status != SequenceNumber {
		return 0, fieldErr(e, "number")
	}
	if len(e.Payload) == 0 {
		return 0, nil
	}
	if len(e.Payload) < 2 {
		return 0, fieldErr(e, "number")
	}
	return uint16(e.Payload[0])<<8 | uint16(e.Payload[1]), nil
}

// Port returns the port number for MIDI_PORT events.
func (e *Event) Port() (uint8, error) {
	if e.Status != MIDIPort {
		return 0, fieldErr(e, "port")
	}
	return e.Payload[0], nil
}

// MetaChannel returns the channel for CHANNEL_PREFIX meta events.
func (e *Event) MetaChannel() (uint8, error) {
	if e.Status != ChannelPrefix {
		return 0, fieldErr(e, "channel")
	}
	return e.Payload[0], nil
}

// Tempo returns the microseconds-per-quarter-note value for SET_TEMPO
// events.
func (e *Event) Tempo() (uint32, error) {
	if e.Status != SetTempo {
		return 0, fieldErr(e, "tempo")
	}
	if len(e.Payload) < 3 {
		return 0, fieldErr(e, "tempo")
	}
	return uint32(e.Payload[0])<<16 | uint32(e.Payload[1])<<8 | uint32(e.Payload[2]), nil
}

// TimeSignatureInfo holds the decoded fields of a TIME_SIGNATURE meta event.
type TimeSignatureInfo struct {
	Numerator               uint8
	Denominator             uint8 // 2^x already applied
	ClocksPerClick          uint8
	Notated32ndNotesPerBeat uint8
}

// TimeSignature returns the decoded fields of a TIME_SIGNATURE event.
func (e *Event) TimeSignature() (TimeSignatureInfo, error) {
	if e.Status != TimeSignature {
		return TimeSignatureInfo{}, fieldErr(e, "time_signature")
	}
	if len(e.Payload) < 4 {
		return TimeSignatureInfo{}, fieldErr(e, "time_signature")
	}
	return TimeSignatureInfo{
		Numerator:               e.Payload[0],
		Denominator:             1 << e.Payload[1],
		ClocksPerClick:          e.Payload[2],
		Notated32ndNotesPerBeat: e.Payload[3],
	}, nil
}

// SMPTE holds the decoded fields of a SMPTE_OFFSET meta event.
type SMPTE struct {
	FrameRate float64 // 24, 25, 29.97 or 30
	Hours     uint8
	Minutes   uint8
	Seconds   uint8
	Frames    uint8
	SubFrames uint8
}

var smpteFrameRates = [4]float64{24, 25, 29.97, 30}

// SMPTEOffset returns the decoded fields of a SMPTE_OFFSET event.
func (e *Event) SMPTEOffset() (SMPTE, error) {
	if e.Status != SMPTEOffset {
		return SMPTE{}, fieldErr(e, "smpte_offset")
	}
	if len(e.Payload) < 5 {
		return SMPTE{}, errors.Wrap(ErrInvalidSmpteFrameRate, "payload too short")
	}
	return SMPTE{
		FrameRate: smpteFrameRates[e.Payload[0]>>6],
		Hours:     e.Payload[0] & 0x1f,
		Minutes:   e.Payload[1],
		Seconds:   e.Payload[2],
		Frames:    e.Payload[3],
		SubFrames: e.Payload[4],
	}, nil
}

var majorKeyNames = []string{"Cb", "Gb", "Db", "Ab", "Eb", "Bb", "F", "C", "G", "D", "A", "E", "B", "F#", "C#"}
var minorKeyNames = []string{"Abm", "Ebm", "Bbm", "Fm", "Cm", "Gm", "Dm", "Am", "Em", "Bm", "F#m", "C#m", "G#m", "D#m", "A#m"}

// Key returns the decoded key name for a KEY_SIGNATURE event, one of the 30
// names covering -7..+7 sharps/flats for major and minor keys.
func (e *Event) Key() (string, error) {
	if e.Status != KeySignature {
		return "", fieldErr(e, "key")
	}
	if len(e.Payload) < 2 {
		return "", fieldErr(e, "key")
	}
	sf := int8(e.Payload[0])
	mi := e.Payload[1]
	if sf < -7 || sf > 7 || mi > 1 {
		return "", errors.Wrapf(ErrInvalidKeySignature, "sf=%d mi=%d", sf, mi)
	}
	if mi == 0 {
		return majorKeyNames[sf+7], nil
	}
	return minorKeyNames[sf+7], nil
}

// Text returns the decoded text for TEXT, COPYRIGHT, LYRICS, MARKER and
// CUE_MARKER events. Bytes outside printable ASCII are preserved verbatim as
// \xNN escapes so the original bytes are always recoverable.
func (e *Event) Text() (string, error) {
	switch e.Status {
	case Text, Copyright, Lyrics, Marker, CueMarker:
		return asciiEscape(e.Payload), nil
	}
	return "", fieldErr(e, "text")
}

// Name returns the decoded text for TRACK_NAME, INSTRUMENT_NAME,
// PROGRAM_NAME and DEVICE_NAME events, using the same ASCII-with-escapes
// decoding as Text.
func (e *Event) Name() (string, error) {
	switch e.Status {
	case TrackName, InstrumentName, ProgramName, DeviceName:
		return asciiEscape(e.Payload), nil
	}
	return "", fieldErr(e, "name")
}

func asciiEscape(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c >= 0x20 && c < 0x7f {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "\\x%02x", c)
		}
	}
	return b.String()
}

// ToMIDI serializes a channel event back to the bytes it would occupy on the
// wire: the full status byte (status nibble OR channel) followed by its
// payload. Meta and sysex/escape events are not transmittable and return
// ErrNotTransmittable.
func (e *Event) ToMIDI() ([]byte, error) {
	if !e.IsChannel() {
		return nil, errors.Wrapf(ErrNotTransmittable, "%s", e.Status)
	}
	out := make([]byte, 0, 1+len(e.Payload))
	out = append(out, uint8(e.Status)|e.Channel&0x0f)
	out = append(out, e.Payload...)
	return out, nil
}

func (e *Event) String() string {
	return fmt.Sprintf("%s delta_ticks=%d delta_us=%d data=%v", e.Status, e.DeltaTicks, e.DeltaUs, e.Payload)
}
