package umidiparser

import (
	"context"
	"io"
	"time"
)

// Clock supplies the monotonic microsecond time base a Player schedules
// against. The default implementation wraps time.Now, relying on the
// monotonic reading Go's runtime embeds in every time.Time.
type Clock interface {
	NowUs() uint64
}

type systemClock struct{ start time.Time }

func newSystemClock() *systemClock {
	return &systemClock{start: time.Now()}
}

func (c *systemClock) NowUs() uint64 {
	return uint64(time.Since(c.start) / time.Microsecond)
}

// Sleeper blocks the calling goroutine for at least d.
type Sleeper interface {
	Sleep(d time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// AsyncSleepFunc suspends for d or until ctx is cancelled, returning ctx's
// error in the latter case.
type AsyncSleepFunc func(ctx context.Context, d time.Duration) error

// contextSleep is the default AsyncSleepFunc, grounded on the
// select{ case <-time.After(d): case <-ctx.Done(): } cancellation pattern.
func contextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// scheduleState holds the drift-compensation bookkeeping shared by both
// player variants: cumulative scheduled time never resets, so any overrun
// on one sleep is absorbed by shorter (possibly zero) sleeps on subsequent
// events instead of compounding.
type scheduleState struct {
	clock          Clock
	startWallUs    uint64
	cumScheduledUs uint64
	started        bool
}

func (s *scheduleState) targetUs(ev *Event) uint64 {
	if !s.started {
		s.startWallUs = s.clock.NowUs()
		s.started = true
	}
	s.cumScheduledUs += ev.DeltaUs
	return s.startWallUs + s.cumScheduledUs
}

// BlockingPlayer schedules events from a tempo-mapped iterator against wall
// clock time using a blocking Sleeper. Next blocks the calling goroutine
// until the event's scheduled time arrives.
type BlockingPlayer struct {
	src     eventIterator
	sleeper Sleeper
	state   scheduleState
	closer  io.Closer
}

func newBlockingPlayer(src eventIterator, clock Clock, sleeper Sleeper, closer io.Closer) *BlockingPlayer {
	if clock == nil {
		clock = newSystemClock()
	}
	if sleeper == nil {
		sleeper = realSleeper{}
	}
	return &BlockingPlayer{src: src, sleeper: sleeper, state: scheduleState{clock: clock}, closer: closer}
}

// Next returns the next event, sleeping as needed so it is not delivered
// before its scheduled wall-clock time. The event's TimestampUs field is
// set to that scheduled time.
func (p *BlockingPlayer) Next() (*Event, error) {
	ev, err := p.src.Next()
	if err != nil {
		return nil, err
	}
	target := p.state.targetUs(ev)
	if now := p.state.clock.NowUs(); target > now {
		p.sleeper.Sleep(time.Duration(target-now) * time.Microsecond)
	}
	ev.TimestampUs = target
	return ev, nil
}

// Close releases the underlying file handles. Pending events are dropped;
// no MIDI state is restored.
func (p *BlockingPlayer) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// CooperativePlayer schedules events the same way as BlockingPlayer but
// suspends via an injectable, context-cancellable AsyncSleepFunc instead of
// blocking the calling goroutine outright.
type CooperativePlayer struct {
	src   eventIterator
	sleep AsyncSleepFunc
	state scheduleState
	closer io.Closer
}

func newCooperativePlayer(src eventIterator, clock Clock, sleep AsyncSleepFunc, closer io.Closer) *CooperativePlayer {
	if clock == nil {
		clock = newSystemClock()
	}
	if sleep == nil {
		sleep = contextSleep
	}
	return &CooperativePlayer{src: src, sleep: sleep, state: scheduleState{clock: clock}, closer: closer}
}

// Next returns the next event once its scheduled wall-clock time arrives,
// or ctx's error if ctx is cancelled first. On cancellation the event that
// was about to be scheduled is dropped.
func (p *CooperativePlayer) Next(ctx context.Context) (*Event, error) {
	ev, err := p.src.Next()
	if err != nil {
		return nil, err
	}
	target := p.state.targetUs(ev)
	now := p.state.clock.NowUs()
	var wait time.Duration
	if target > now {
		wait = time.Duration(target-now) * time.Microsecond
	}
	if err := p.sleep(ctx, wait); err != nil {
		return nil, err
	}
	ev.TimestampUs = target
	return ev, nil
}

// Close releases the underlying file handles. Pending events are dropped;
// no MIDI state is restored.
func (p *CooperativePlayer) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}
