package processor

import "time"

// Config tunes the Processor's two periodic loops, worker pool, and retry
// defaults.
type Config struct {
	// MaxConcurrentJobs bounds the worker pool.
	MaxConcurrentJobs int
	// PollingInterval is the cadence of the scheduled-jobs loop.
	PollingInterval time.Duration
	// RecurringPollingInterval is the cadence of the recurring-jobs loop.
	RecurringPollingInterval time.Duration
	// BatchSize caps each storage fetch.
	BatchSize int
	// DefaultRetryDelay is the fallback delay before a retry when neither
	// the handler's Result nor a configured backoff.Strategy overrides it.
	DefaultRetryDelay time.Duration
	// ShutdownTimeout bounds how long Stop waits for in-flight workers.
	ShutdownTimeout time.Duration
	// StaleJobThreshold, when nonzero, enables the optional reaper sweep:
	// jobs stuck in Processing longer than this are reset to Scheduled.
	// Zero disables the sweep.
	StaleJobThreshold time.Duration
}

// DefaultConfig returns the engine's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentJobs:        10,
		PollingInterval:          5 * time.Second,
		RecurringPollingInterval: time.Minute,
		BatchSize:                100,
		DefaultRetryDelay:        30 * time.Second,
		ShutdownTimeout:          30 * time.Second,
		StaleJobThreshold:        0,
	}
}
