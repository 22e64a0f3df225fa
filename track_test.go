package umidiparser

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTrack(t *testing.T, body []byte, reuse bool) *trackParser {
	t.Helper()
	src, err := newByteSource(bytes.NewReader(body), 0, int64(len(body)), 0)
	require.NoError(t, err)
	return newTrackParser(src, 0, reuse)
}

func TestTrackParserSimpleSequence(t *testing.T) {
	body := []byte{
		0x00, 0x90, 0x3C, 0x64, // NOTE_ON ch0 note60 vel100
		0x60, 0x80, 0x3C, 0x40, // delta 96, NOTE_OFF ch0 note60 vel64
		0x00, 0xFF, 0x2F, 0x00, // END_OF_TRACK
	}
	p := newTestTrack(t, body, false)

	e1, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, NoteOn, e1.Status)
	assert.Equal(t, uint32(0), e1.DeltaTicks)
	note, _ := e1.Note()
	assert.Equal(t, uint8(0x3C), note)

	e2, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, NoteOff, e2.Status)
	assert.Equal(t, uint32(96), e2.DeltaTicks)

	e3, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, EndOfTrack, e3.Status)

	_, err = p.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestTrackParserRunningStatus(t *testing.T) {
	body := []byte{
		0x00, 0x90, 0x3C, 0x64,
		0x10, 0x3E, 0x64,
		0x10, 0x3F, 0x64,
		0x00, 0xFF, 0x2F, 0x00,
	}
	p := newTestTrack(t, body, false)

	var notes []uint8
	var deltas []uint32
	for {
		ev, err := p.Next()
		require.NoError(t, err)
		if ev.Status == EndOfTrack {
			break
		}
		require.Equal(t, NoteOn, ev.Status)
		assert.Equal(t, uint8(0), ev.Channel)
		n, _ := ev.Note()
		notes = append(notes, n)
		deltas = append(deltas, ev.DeltaTicks)
	}
	assert.Equal(t, []uint8{0x3C, 0x3E, 0x3F}, notes)
	assert.Equal(t, []uint32{0, 16, 16}, deltas)
}

func TestTrackParserRunningStatusSurvivesMeta(t *testing.T) {
	body := []byte{
		0x00, 0x90, 0x3C, 0x64,
		0x00, 0xFF, 0x01, 0x03, 'a', 'b', 'c',
		0x00, 0x3E, 0x64,
		0x00, 0xFF, 0x2F, 0x00,
	}
	p := newTestTrack(t, body, false)

	e1, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, NoteOn, e1.Status)
	n1, _ := e1.Note()
	assert.Equal(t, uint8(0x3C), n1)

	e2, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, Text, e2.Status)
	text, err := e2.Text()
	require.NoError(t, err)
	assert.Equal(t, "abc", text)

	e3, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, NoteOn, e3.Status)
	n3, _ := e3.Note()
	assert.Equal(t, uint8(0x3E), n3)
}

func TestTrackParserMissingEndOfTrack(t *testing.T) {
	body := []byte{0x00, 0x90, 0x3C, 0x64}
	p := newTestTrack(t, body, false)

	_, err := p.Next()
	require.NoError(t, err)

	ev, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, EndOfTrack, ev.Status)
	assert.Equal(t, uint32(0), ev.DeltaTicks)

	_, err = p.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestTrackParserRunningStatusWithoutPrior(t *testing.T) {
	body := []byte{0x00, 0x3C, 0x64}
	p := newTestTrack(t, body, false)
	_, err := p.Next()
	assert.ErrorIs(t, err, ErrRunningStatusWithoutPrior)
}

func TestTrackParserReuseOverwritesSameObject(t *testing.T) {
	body := []byte{
		0x00, 0x90, 0x3C, 0x64,
		0x00, 0x90, 0x40, 0x64,
		0x00, 0xFF, 0x2F, 0x00,
	}
	p := newTestTrack(t, body, true)
	e1, err := p.Next()
	require.NoError(t, err)
	saved := e1.Copy()

	e2, err := p.Next()
	require.NoError(t, err)
	assert.Same(t, e1, e2)

	n1, _ := saved.Note()
	n2, _ := e2.Note()
	assert.Equal(t, uint8(0x3C), n1)
	assert.Equal(t, uint8(0x40), n2)
}
