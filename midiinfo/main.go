// midiinfo is a command-line utility for inspecting Standard MIDI files
// (SMF, usually with a ".mid" extension).
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/bixb922/umidiparser"
)

func run() int {
	var filename string
	var dumpEvents bool
	var bufferSize int
	flag.StringVar(&filename, "input_file", "", "The .mid file to open.")
	flag.BoolVar(&dumpEvents, "dump_events", false, "If set, print a list of "+
		"all events in the file to stdout.")
	flag.IntVar(&bufferSize, "buffer_size", 0, "Track read window in bytes; "+
		"0 loads each track fully into memory.")
	flag.Parse()
	if filename == "" {
		fmt.Println("Invalid arguments. Run with -help for more information.")
		return 1
	}

	log := logrus.WithField("file", filename)

	f, err := umidiparser.Open(filename, bufferSize, false)
	if err != nil {
		log.WithError(err).Error("failed opening file")
		return 1
	}
	defer f.Close()

	lengthUs, err := f.LengthUs()
	if err != nil && !errors.Is(err, umidiparser.ErrFormat2NotSupported) {
		log.WithError(err).Error("failed computing length")
		return 1
	}

	fmt.Printf("Parsed %s OK. Format %d, %d track(s), %d ticks per quarter note.\n",
		filename, f.FormatType(), f.NumTracks(), f.PPQ())
	if err == nil {
		fmt.Printf("Length: %d us (%.2f s)\n", lengthUs, float64(lengthUs)/1e6)
	} else {
		fmt.Println("Length: not available for multi-track format 2 files.")
	}

	if !dumpEvents {
		return 0
	}

	it, err := f.Iter()
	if err != nil {
		log.WithError(err).Error("failed opening merged iterator")
		return 1
	}
	defer it.Close()

	n := 0
	for {
		ev, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.WithError(err).Error("failed reading event")
			return 1
		}
		fmt.Printf("%d. track=%d %s\n", n, ev.SourceTrack, ev)
		n++
	}
	return 0
}

func main() {
	os.Exit(run())
}
