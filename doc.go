// Package umidiparser parses Standard MIDI Files (SMF) and schedules their
// events in real time. It is a low-footprint, streaming parser: tracks are
// read lazily, events are decoded field-by-field on demand, and memory use is
// bounded by a caller-chosen window size rather than the size of the file.
//
// A typical playback loop looks like:
//
//	f, err := umidiparser.Open("song.mid", 100, false)
//	if err != nil {
//		...
//	}
//	defer f.Close()
//	player, err := f.Play()
//	if err != nil {
//		...
//	}
//	defer player.Close()
//	for {
//		event, err := player.Next()
//		if err == io.EOF {
//			break
//		}
//		if err != nil {
//			...
//		}
//		... send event to a MIDI output ...
//	}
//
// This package does not write or modify MIDI files, and it does not talk to
// any MIDI output device, synthesizer, or serial port; it only decodes events
// and tells the caller when to send them.
package umidiparser
