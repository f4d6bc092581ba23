package batch

import (
	"context"
	"time"
)

// Pacer enforces a fixed minimum spacing between outbound HR platform calls.
// Fixed-delay pacing is enough here: the engine drives one strictly serial
// sequence of calls per tick, never concurrent ones.
type Pacer struct {
	interval time.Duration
}

// NewPacer derives the spacing from the platform's per-minute call budget.
func NewPacer(maxCallsPerMinute int) *Pacer {
	if maxCallsPerMinute <= 0 {
		maxCallsPerMinute = 1
	}
	return &Pacer{interval: time.Minute / time.Duration(maxCallsPerMinute)}
}

// Interval returns the enforced spacing between calls.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Pace blocks for one interval or until the context is done.
func (p *Pacer) Pace(ctx context.Context) error {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
