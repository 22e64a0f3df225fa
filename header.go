package umidiparser

import "github.com/pkg/errors"

// Header holds the decoded fields of an SMF file's MThd chunk.
type Header struct {
	FormatType uint16
	NumTracks  uint16
	PPQ        uint16
}

// TrackHandle records where one MTrk chunk's payload lives in the file.
type TrackHandle struct {
	Offset int64
	Length int64
}

const mthdSize = 6

// readHeader parses the MThd chunk starting at offset 0 and scans forward
// past it, returning the decoded header and the byte offset immediately
// following the MThd chunk (where chunk scanning for MTrk chunks resumes).
func readHeader(r *byteSource) (Header, int64, error) {
	tag, err := r.readBytes(4)
	if err != nil {
		return Header{}, 0, errors.Wrap(ErrTruncatedHeader, err.Error())
	}
	if string(tag) != "MThd" {
		return Header{}, 0, errors.Wrapf(ErrBadMagic, "got %q", tag)
	}
	length, err := r.readU32BE()
	if err != nil {
		return Header{}, 0, errors.Wrap(ErrTruncatedHeader, err.Error())
	}
	if length < mthdSize {
		return Header{}, 0, errors.Wrapf(ErrTruncatedHeader, "MThd length %d < %d", length, mthdSize)
	}
	format, err := r.readU16BE()
	if err != nil {
		return Header{}, 0, errors.Wrap(ErrTruncatedHeader, err.Error())
	}
	numTracks, err := r.readU16BE()
	if err != nil {
		return Header{}, 0, errors.Wrap(ErrTruncatedHeader, err.Error())
	}
	division, err := r.readU16BE()
	if err != nil {
		return Header{}, 0, errors.Wrap(ErrTruncatedHeader, err.Error())
	}
	if division&0x8000 != 0 || division == 0 {
		return Header{}, 0, errors.Wrapf(ErrUnsupportedDivision, "division 0x%04x", division)
	}
	if err := r.skip(int64(length) - mthdSize); err != nil {
		return Header{}, 0, errors.Wrap(ErrUnexpectedEOF, err.Error())
	}
	return Header{FormatType: format, NumTracks: numTracks, PPQ: division}, 8 + int64(length), nil
}

// scanTrackChunks scans chunk headers starting at offset, returning the
// offset/length of every MTrk chunk found and skipping unknown chunks by
// their declared length. fileLen bounds the scan.
func scanTrackChunks(r *byteSource, offset, fileLen int64) ([]TrackHandle, error) {
	var handles []TrackHandle
	for offset+8 <= fileLen {
		tag, err := r.readBytes(4)
		if err != nil {
			return nil, errors.Wrap(ErrUnexpectedEOF, err.Error())
		}
		length, err := r.readU32BE()
		if err != nil {
			return nil, errors.Wrap(ErrUnexpectedEOF, err.Error())
		}
		payloadOffset := offset + 8
		if payloadOffset+int64(length) > fileLen {
			return nil, errors.Wrapf(ErrUnexpectedEOF, "chunk %q at %d declares length %d past end of file", tag, offset, length)
		}
		if string(tag) == "MTrk" {
			handles = append(handles, TrackHandle{Offset: payloadOffset, Length: int64(length)})
		}
		if err := r.skip(int64(length)); err != nil {
			return nil, errors.Wrap(ErrUnexpectedEOF, err.Error())
		}
		offset = payloadOffset + int64(length)
	}
	return handles, nil
}
