package umidiparser

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeVlq appends v to out as a MIDI variable-length quantity.
func writeVlq(out []byte, v uint32) []byte {
	var stack [5]byte
	n := 0
	stack[n] = byte(v & 0x7f)
	n++
	v >>= 7
	for v > 0 {
		stack[n] = byte(v&0x7f) | 0x80
		n++
		v >>= 7
	}
	for i := n - 1; i >= 0; i-- {
		out = append(out, stack[i])
	}
	return out
}

// TestRoundTripChannelEvents builds a track purely from Event.ToMIDI output
// plus hand-assembled VLQ deltas and chunk headers (no running status, so
// each emitted event is self-contained), then re-parses it and checks the
// channel events come back equivalent.
func TestRoundTripChannelEvents(t *testing.T) {
	events := []*Event{
		{Status: ProgramChange, Channel: 0, DeltaTicks: 0, Payload: []byte{5}},
		{Status: NoteOn, Channel: 0, DeltaTicks: 0, Payload: []byte{0x4C, 0x40}},
		{Status: NoteOff, Channel: 0, DeltaTicks: 192, Payload: []byte{0x4C, 0x00}},
	}

	var body []byte
	for _, ev := range events {
		wire, err := ev.ToMIDI()
		require.NoError(t, err)
		body = writeVlq(body, ev.DeltaTicks)
		body = append(body, wire...)
	}
	body = writeVlq(body, 0)
	body = append(body, 0xFF, 0x2F, 0x00)

	data := append(mthd(0, 1, 480), mtrk(body)...)
	path := writeTempMidi(t, data)

	f, err := Open(path, 0, false)
	require.NoError(t, err)
	defer f.Close()

	it, err := f.Iter()
	require.NoError(t, err)
	defer it.Close()

	var got []*Event
	for {
		ev, err := it.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, ev.Copy())
	}

	require.Len(t, got, 4) // 3 channel events + END_OF_TRACK
	for i, want := range events {
		assert.Equal(t, want.Status, got[i].Status)
		assert.Equal(t, want.Channel, got[i].Channel)
		assert.Equal(t, want.Payload, got[i].Payload)
		assert.Equal(t, want.DeltaTicks, got[i].DeltaTicks)
	}
	assert.Equal(t, EndOfTrack, got[3].Status)
}
