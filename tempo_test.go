package umidiparser

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listIterator replays a fixed slice of events, for testing stages above
// the track parser in isolation.
type listIterator struct {
	events []*Event
	pos    int
}

func (l *listIterator) Next() (*Event, error) {
	if l.pos >= len(l.events) {
		return nil, io.EOF
	}
	ev := l.events[l.pos]
	l.pos++
	return ev, nil
}

func TestTempoMapperDefaultTempo(t *testing.T) {
	src := &listIterator{events: []*Event{
		{Status: NoteOn, DeltaTicks: 0},
		{Status: NoteOff, DeltaTicks: 96},
		{Status: EndOfTrack, DeltaTicks: 0},
	}}
	tm := newTempoMapper(src, 480)

	want := []uint64{0, 100000, 0}
	for i, w := range want {
		ev, err := tm.Next()
		require.NoError(t, err)
		assert.Equal(t, w, ev.DeltaUs, "event %d", i)
	}
}

func TestTempoMapperAppliesChangeAfterEvent(t *testing.T) {
	// The SET_TEMPO's own delta is converted at the default 500000; the new
	// tempo applies only to the events after it.
	setTempo := &Event{Status: SetTempo, DeltaTicks: 96, Payload: []byte{0x03, 0xD0, 0x90}} // 250000
	src := &listIterator{events: []*Event{
		setTempo,
		{Status: NoteOn, DeltaTicks: 96},
		{Status: NoteOff, DeltaTicks: 96},
		{Status: EndOfTrack, DeltaTicks: 0},
	}}
	tm := newTempoMapper(src, 96)

	want := []uint64{500000, 250000, 250000, 0}
	for i, w := range want {
		ev, err := tm.Next()
		require.NoError(t, err)
		assert.Equal(t, w, ev.DeltaUs, "event %d", i)
	}
}

func TestLengthUsSumsDeltaUs(t *testing.T) {
	src := &listIterator{events: []*Event{
		{Status: NoteOn, DeltaTicks: 0},
		{Status: NoteOff, DeltaTicks: 96},
		{Status: EndOfTrack, DeltaTicks: 0},
	}}
	tm := newTempoMapper(src, 480)
	total, err := lengthUs(tm)
	require.NoError(t, err)
	assert.Equal(t, uint64(100000), total)
}
