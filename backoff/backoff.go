// Package backoff provides the retry delay strategy used by the processor.
// Strategy is an interface so a caller can supply a different policy via
// processor.WithBackoff; the engine itself only ever needs Constant.
package backoff

import "time"

// Strategy computes the delay before a retry attempt.
type Strategy interface {
	// Delay returns how long to wait before retry attempt n (1-indexed).
	// Attempt 1 is the first retry after the initial failure.
	Delay(attempt int) time.Duration
}

// Constant always returns the same delay regardless of attempt number. It
// is the processor's default strategy, seeded from Config.DefaultRetryDelay.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant backoff strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Delay returns the fixed interval.
func (c *Constant) Delay(_ int) time.Duration {
	return c.Interval
}
