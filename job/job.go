// Package job defines the Job and RecurringJob data model and the Storage
// Contract that any persistence backend must satisfy to participate in the
// engine.
package job

import (
	"encoding/json"
	"fmt"
	"time"
)

// State represents the lifecycle state of a job.
//
// The numeric values are part of the wire/storage contract: backends that
// store state as a small integer column rely on these exact values.
type State int

const (
	// Created is the transient in-memory state before a job is first
	// persisted. No Client method leaves a job in this state; every
	// submission path transitions it to Scheduled, AwaitingContinuation,
	// or AwaitingBatch before the first StoreJob/StoreContinuation/
	// StoreBatch call.
	Created State = iota
	// Scheduled means the job is eligible for dispatch once ScheduledAt
	// has passed.
	Scheduled
	// Processing means a worker currently holds the job.
	Processing
	// Succeeded is a terminal state: the handler returned Success.
	Succeeded
	// Failed is reserved by the core state machine and never assigned by
	// the processor; the retry path always uses Scheduled or Abandoned.
	// Backends must still accept it as a valid column value.
	Failed
	// Cancelled is a terminal state reachable only from Scheduled.
	Cancelled
	// Abandoned is a terminal state: retries exhausted, or the handler
	// declared the failure non-retryable.
	Abandoned
	// AwaitingContinuation means the job is a continuation waiting for
	// its parent to succeed.
	AwaitingContinuation
	// AwaitingBatch means the job is a batch-continuation waiting for
	// every sibling to reach a terminal state.
	AwaitingBatch
)

var stateNames = [...]string{
	"Created", "Scheduled", "Processing", "Succeeded", "Failed",
	"Cancelled", "Abandoned", "AwaitingContinuation", "AwaitingBatch",
}

// String returns the symbolic name of the state.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalJSON encodes the state as its symbolic name rather than its
// numeric value, keeping persisted/logged JSON human-readable.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts either the symbolic name or the numeric value.
func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		for i, n := range stateNames {
			if n == name {
				*s = State(i)
				return nil
			}
		}
		return fmt.Errorf("job: unknown state %q", name)
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("job: invalid state: %w", err)
	}
	*s = State(n)
	return nil
}

// IsTerminal reports whether the state is one the processor will never
// transition out of on its own (Succeeded, Abandoned, Cancelled).
func (s State) IsTerminal() bool {
	return s == Succeeded || s == Abandoned || s == Cancelled
}

// Job is a unit of deferred work with identity, payload, schedule, and
// retry policy. See spec §3 for the full invariant set; once the Client has
// submitted a Job, only the Processor mutates it, apart from
// Client.CancelJob.
type Job struct {
	ID string `json:"id"`

	// TypeName is the routing key the Handler Registry resolves against.
	TypeName string `json:"type_name"`

	// Arguments is the opaque serialized payload. The Client treats it as
	// a string; callers choose the serialization format.
	Arguments string `json:"arguments,omitempty"`

	State State `json:"state"`

	CreatedAt time.Time `json:"created_at"`

	// ScheduledAt is the earliest instant at which the job becomes
	// eligible for dispatch. Zero means "not yet scheduled" (continuation
	// and batch-continuation jobs before admission).
	ScheduledAt time.Time `json:"scheduled_at,omitempty"`

	// ExecutedAt is set when a worker begins processing the job.
	ExecutedAt *time.Time `json:"executed_at,omitempty"`

	RetryCount    int    `json:"retry_count"`
	MaxRetryCount int    `json:"max_retry_count"`
	ErrorMessage  string `json:"error_message,omitempty"`
	Result        string `json:"result,omitempty"`

	// BatchID, when set, marks membership in a batch.
	BatchID string `json:"batch_id,omitempty"`
	// ParentJobID, when set, marks the job as a continuation of the
	// referenced parent.
	ParentJobID string `json:"parent_job_id,omitempty"`
}

// RecurringJob is a template plus a cron schedule that materializes new
// Job instances on each fire. See spec §3.
type RecurringJob struct {
	// ID is caller-chosen and serves as the idempotency key: repeated
	// registration under the same ID updates the schedule and template
	// in place.
	ID string `json:"id"`

	CronExpression string `json:"cron_expression"`
	JobTypeName    string `json:"job_type_name"`
	JobArguments   string `json:"job_arguments,omitempty"`
	MaxRetryCount  int    `json:"max_retry_count"`

	NextExecution *time.Time `json:"next_execution,omitempty"`
	LastExecution *time.Time `json:"last_execution,omitempty"`

	IsEnabled bool      `json:"is_enabled"`
	CreatedAt time.Time `json:"created_at"`
}
