package umidiparser

import "io"

const defaultTempoUspqn = 500000

// tempoMapper wraps an eventIterator producing tick-delta events and
// annotates each one with DeltaUs, tracking the current microseconds-per-
// quarter-note tempo (500000 by default, i.e. 120 BPM) and updating it from
// SET_TEMPO events after the event carrying the change has itself been
// converted.
type tempoMapper struct {
	src        eventIterator
	ppq        uint16
	tempoUspqn uint32
}

func newTempoMapper(src eventIterator, ppq uint16) *tempoMapper {
	return &tempoMapper{src: src, ppq: ppq, tempoUspqn: defaultTempoUspqn}
}

// Next implements eventIterator.
func (t *tempoMapper) Next() (*Event, error) {
	ev, err := t.src.Next()
	if err != nil {
		return nil, err
	}
	ev.DeltaUs = deltaUs(ev.DeltaTicks, t.tempoUspqn, t.ppq)
	if ev.Status == SetTempo {
		if tempo, err := ev.Tempo(); err == nil {
			t.tempoUspqn = tempo
		}
	}
	return ev, nil
}

// deltaUs rounds delta_ticks * tempoUspqn / ppq to the nearest integer.
func deltaUs(deltaTicks uint32, tempoUspqn uint32, ppq uint16) uint64 {
	if ppq == 0 {
		return 0
	}
	num := uint64(deltaTicks) * uint64(tempoUspqn)
	return (num + uint64(ppq)/2) / uint64(ppq)
}

// lengthUs drains a freshly constructed iterator over the whole file,
// summing DeltaUs, without scheduling. Callers must pass a new iterator
// each time; it is fully consumed by this call.
func lengthUs(it eventIterator) (uint64, error) {
	var total uint64
	for {
		ev, err := it.Next()
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return 0, err
		}
		total += ev.DeltaUs
	}
}
