package umidiparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventPitchBend(t *testing.T) {
	ev := &Event{Status: PitchWheel, Payload: []byte{0x00, 0x40}} // center
	p, err := ev.Pitch()
	require.NoError(t, err)
	assert.Equal(t, int16(0), p)
}

func TestEventFieldNotApplicable(t *testing.T) {
	ev := &Event{Status: NoteOn, Payload: []byte{0x3C, 0x64}}
	_, err := ev.Program()
	assert.ErrorIs(t, err, ErrInvalidFieldForEvent)
}

func TestEventKeySignature(t *testing.T) {
	cases := []struct {
		sf, mi int8
		want   string
	}{
		{0, 0, "C"},
		{0, 1, "Am"},
		{-7, 0, "Cb"},
		{7, 0, "C#"},
		{-1, 0, "F"},
		{3, 1, "F#m"},
	}
	for _, c := range cases {
		ev := &Event{Status: KeySignature, Payload: []byte{byte(c.sf), byte(c.mi)}}
		got, err := ev.Key()
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestEventKeySignatureInvalid(t *testing.T) {
	ev := &Event{Status: KeySignature, Payload: []byte{8, 0}}
	_, err := ev.Key()
	assert.ErrorIs(t, err, ErrInvalidKeySignature)
}

func TestEventSMPTEOffset(t *testing.T) {
	ev := &Event{Status: SMPTEOffset, Payload: []byte{0x01<<6 | 10, 20, 30, 5, 2}}
	s, err := ev.SMPTEOffset()
	require.NoError(t, err)
	assert.Equal(t, 25.0, s.FrameRate)
	assert.Equal(t, uint8(10), s.Hours)
	assert.Equal(t, uint8(20), s.Minutes)
}

func TestEventSMPTEOffsetTooShort(t *testing.T) {
	ev := &Event{Status: SMPTEOffset, Payload: []byte{0x00}}
	_, err := ev.SMPTEOffset()
	assert.ErrorIs(t, err, ErrInvalidSmpteFrameRate)
}

func TestEventTextEscaping(t *testing.T) {
	ev := &Event{Status: Text, Payload: []byte{'h', 'i', 0x01, 0x7f}}
	s, err := ev.Text()
	require.NoError(t, err)
	assert.Equal(t, "hi\\x01\\x7f", s)
}

func TestEventToMIDI(t *testing.T) {
	ev := &Event{Status: NoteOn, Channel: 3, Payload: []byte{0x3C, 0x64}}
	b, err := ev.ToMIDI()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x93, 0x3C, 0x64}, b)
}

func TestEventToMIDINotTransmittable(t *testing.T) {
	ev := &Event{Status: SetTempo, Payload: []byte{0x07, 0xA1, 0x20}}
	_, err := ev.ToMIDI()
	assert.ErrorIs(t, err, ErrNotTransmittable)
}

func TestEventCopyIsIndependent(t *testing.T) {
	ev := &Event{Status: NoteOn, Payload: []byte{1, 2}}
	c := ev.Copy()
	c.Payload[0] = 99
	assert.Equal(t, uint8(1), ev.Payload[0])
}
