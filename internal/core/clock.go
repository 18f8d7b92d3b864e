package core

import (
	"time"

	"github.com/lthibault/jitterbug/v2"
)

// Clock supplies the current time and tickers. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks on a channel until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// SystemClock is the wall clock. When Jitter is positive, tickers are
// perturbed by a normal distribution with that standard deviation.
type SystemClock struct {
	Jitter time.Duration
}

var _ Clock = SystemClock{}

func (c SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func (c SystemClock) NewTicker(d time.Duration) Ticker {
	if c.Jitter > 0 {
		return jitterTicker{jitterbug.New(d, &jitterbug.Norm{Stdev: c.Jitter})}
	}
	return stdTicker{time.NewTicker(d)}
}

type stdTicker struct{ t *time.Ticker }

func (t stdTicker) C() <-chan time.Time { return t.t.C }
func (t stdTicker) Stop()               { t.t.Stop() }

type jitterTicker struct{ t *jitterbug.Ticker }

func (t jitterTicker) C() <-chan time.Time { return t.t.C }
func (t jitterTicker) Stop()               { t.t.Stop() }
