package bench

import (
	"errors"
	"time"
)

// ErrInvalidTrials is returned when fewer than one trial is requested.
var ErrInvalidTrials = errors.New("bench: trials must be >= 1")

// Clock supplies timestamps. time.Time values from time.Now carry a
// monotonic reading, so Sub between two of them is immune to wall-clock
// steps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the monotonic process clock.
var SystemClock Clock = systemClock{}

// Timer runs an operation a fixed number of times and reports the mean.
type Timer struct {
	Clock Clock
}

// NewTimer returns a Timer on the system clock.
func NewTimer() *Timer {
	return &Timer{Clock: SystemClock}
}

type measureOptions struct {
	reset   func()
	observe func(time.Duration)
}

// MeasureOption configures a single Measure call.
type MeasureOption func(*measureOptions)

// WithReset runs fn before every trial, outside the timed region.
func WithReset(fn func()) MeasureOption {
	return func(o *measureOptions) { o.reset = fn }
}

// WithObserver receives every per-trial duration.
func WithObserver(fn func(time.Duration)) MeasureOption {
	return func(o *measureOptions) { o.observe = fn }
}

// Measure invokes op exactly trials times, sequentially, and returns the
// summed per-call duration divided by trials in whole nanoseconds
// (truncating). There is no warm-up and nothing is discarded. State left by
// one call is what the next call sees unless WithReset is given. The first
// error from op aborts the measurement.
func (t *Timer) Measure(trials int, op func() error, opts ...MeasureOption) (int64, error) {
	if trials < 1 {
		return 0, ErrInvalidTrials
	}
	var o measureOptions
	for _, fn := range opts {
		fn(&o)
	}
	clock := t.Clock
	if clock == nil {
		clock = SystemClock
	}

	var total time.Duration
	for i := 0; i < trials; i++ {
		if o.reset != nil {
			o.reset()
		}
		start := clock.Now()
		err := op()
		elapsed := clock.Now().Sub(start)
		if err != nil {
			return 0, err
		}
		if o.observe != nil {
			o.observe(elapsed)
		}
		total += elapsed
	}
	return int64(total) / int64(trials), nil
}
