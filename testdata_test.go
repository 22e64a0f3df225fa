package umidiparser

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTempMidi writes data to a temporary .mid file and returns its path,
// registering cleanup with t.
func writeTempMidi(t *testing.T, data []byte) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "umidiparser-*.mid")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func u32be(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func u16be(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

// mthd builds a minimal MThd chunk.
func mthd(format, numTracks, division uint16) []byte {
	out := []byte{'M', 'T', 'h', 'd'}
	out = append(out, u32be(6)...)
	out = append(out, u16be(format)...)
	out = append(out, u16be(numTracks)...)
	out = append(out, u16be(division)...)
	return out
}

// mtrk wraps body in an MTrk chunk header.
func mtrk(body []byte) []byte {
	out := []byte{'M', 'T', 'r', 'k'}
	out = append(out, u32be(uint32(len(body)))...)
	out = append(out, body...)
	return out
}
