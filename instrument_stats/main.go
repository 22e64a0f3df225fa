// instrument_stats is a command-line utility for gathering statistics about
// which General MIDI instruments and percussion notes are used by a set of
// Standard MIDI files.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/bixb922/umidiparser"
)

const percussionChannel = 9

// instrumentStats accumulates NOTE_ON counts per General MIDI instrument
// (tracked via the most recent PROGRAM_CHANGE seen on each channel) and per
// percussion note on the percussion channel.
type instrumentStats struct {
	eventCounts           [128]uint64
	percussionEventCounts [128]uint64
}

func (s *instrumentStats) printInfo() {
	for i := 0; i < 128; i++ {
		if s.eventCounts[i] > 0 {
			fmt.Printf("Instrument %d: %d events.\n", i, s.eventCounts[i])
		}
	}
	for i := 0; i < 128; i++ {
		if s.percussionEventCounts[i] > 0 {
			fmt.Printf("Percussion note %d: %d events.\n", i, s.percussionEventCounts[i])
		}
	}
}

// addFile adds the instrument events found in the named MIDI file to the
// running totals.
func (s *instrumentStats) addFile(name string) error {
	f, err := umidiparser.Open(name, 0, false)
	if err != nil {
		return err
	}
	defer f.Close()

	it, err := f.Iter()
	if err != nil {
		return err
	}
	defer it.Close()

	var channelInstruments [16]uint8
	for {
		ev, err := it.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch ev.Status {
		case umidiparser.ProgramChange:
			program, err := ev.Program()
			if err != nil {
				return err
			}
			channelInstruments[ev.Channel] = program
		case umidiparser.NoteOn:
			velocity, err := ev.Velocity()
			if err != nil {
				return err
			}
			if velocity == 0 {
				// A note-on with velocity 0 is a note-off in disguise.
				continue
			}
			note, err := ev.Note()
			if err != nil {
				return err
			}
			if ev.Channel == percussionChannel {
				s.percussionEventCounts[note]++
			} else {
				s.eventCounts[channelInstruments[ev.Channel]]++
			}
		}
	}
}

func run() int {
	var baseDir string
	flag.StringVar(&baseDir, "dir", "", "The directory to scan for .mid files")
	flag.Parse()
	if baseDir == "" {
		fmt.Println("A base directory must be specified. Run with -help for usage.")
		return 1
	}
	filenames, err := filepath.Glob(baseDir + "/*.mid")
	if err != nil {
		logrus.WithError(err).WithField("dir", baseDir).Error("failed globbing directory")
		return 1
	}
	if len(filenames) == 0 {
		fmt.Printf("Didn't find any MIDI (.mid) files in dir %s.\n", baseDir)
		return 1
	}

	stats := &instrumentStats{}
	for i, name := range filenames {
		fmt.Printf("Scanning file %d/%d: %s\n", i+1, len(filenames), name)
		if err := stats.addFile(name); err != nil {
			logrus.WithError(err).WithField("file", name).Warn("failed analyzing file")
		}
	}
	stats.printInfo()
	return 0
}

func main() {
	os.Exit(run())
}
