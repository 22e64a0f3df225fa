package umidiparser

import "github.com/pkg/errors"

// Sentinel errors. Wrapped instances returned by this package remain
// comparable against these with errors.Is.
var (
	// ErrBadMagic is returned when a file does not start with the "MThd"
	// chunk tag.
	ErrBadMagic = errors.New("umidiparser: bad MThd magic")

	// ErrTruncatedHeader is returned when the MThd chunk is shorter than
	// the 6 bytes required to hold format, track count and division.
	ErrTruncatedHeader = errors.New("umidiparser: truncated MThd chunk")

	// ErrUnsupportedDivision is returned when the header's division field
	// has the high bit set, indicating SMPTE time division.
	ErrUnsupportedDivision = errors.New("umidiparser: SMPTE time division not supported")

	// ErrUnexpectedEOF is returned when the file ends before the end of a
	// chunk: the MThd chunk or any later chunk declares a length that runs
	// past the end of the file.
	ErrUnexpectedEOF = errors.New("umidiparser: unexpected end of file")

	// ErrTruncatedTrack is returned when a read inside a track would cross
	// the track's chunk boundary.
	ErrTruncatedTrack = errors.New("umidiparser: truncated track")

	// ErrMalformedVlq is returned when a variable-length quantity does not
	// terminate within 4 bytes.
	ErrMalformedVlq = errors.New("umidiparser: malformed variable-length quantity")

	// ErrRunningStatusWithoutPrior is returned when a running-status byte
	// is encountered before any channel event has set the running status.
	ErrRunningStatusWithoutPrior = errors.New("umidiparser: running status byte without prior channel event")

	// ErrFormat2RequiresTrackSelection is returned by Iter/Play on a
	// format-2 file with more than one track: format 2 tracks are
	// independent and must not be merged.
	ErrFormat2RequiresTrackSelection = errors.New("umidiparser: format 2 files require selecting a single track")

	// ErrFormat2NotSupported is returned by LengthUs on a format-2 file
	// with more than one track.
	ErrFormat2NotSupported = errors.New("umidiparser: LengthUs is not supported for multi-track format 2 files")

	// ErrInvalidFieldForEvent is returned when a field accessor is called
	// on an event whose status does not carry that field.
	ErrInvalidFieldForEvent = errors.New("umidiparser: field not available for this event")

	// ErrInvalidKeySignature is returned when a KEY_SIGNATURE event's
	// payload encodes sharps/flats or major/minor values outside their
	// valid ranges.
	ErrInvalidKeySignature = errors.New("umidiparser: invalid key signature payload")

	// ErrInvalidSmpteFrameRate is returned when a SMPTE_OFFSET event's
	// payload is shorter than the 5 bytes (frame rate and hours, minutes,
	// seconds, frames, sub-frames) it must hold.
	ErrInvalidSmpteFrameRate = errors.New("umidiparser: invalid SMPTE frame rate payload")

	// ErrNotTransmittable is returned by Event.ToMIDI for meta and
	// sysex/escape events, which have no wire representation as a MIDI
	// channel message.
	ErrNotTransmittable = errors.New("umidiparser: event is not transmittable over MIDI")
)
