package job

import "context"

// ListOpts holds a result limit. No Store method takes it; GetJobsByState
// and GetScheduledJobs take a batchSize argument instead.
type ListOpts struct {
	Limit int
}

// CountOpts holds a state filter. No Store method takes it; GetJobCount
// takes the state directly.
type CountOpts struct {
	State State
}

// Store is the Storage Contract: the abstract persistence operations any
// backend must implement to participate in the engine. Implementations may
// fail any method with a wrapped I/O error; NotFound semantics are
// expressed as documented per method.
//
// Ordering and uniqueness: all queries are best-effort read-committed.
// Callers (the Processor) must tolerate a job appearing more than once in
// a scheduled-jobs window by re-checking state before acting on it.
type Store interface {
	// StoreJob inserts a new job. The caller guarantees ID uniqueness.
	StoreJob(ctx context.Context, j *Job) (string, error)
	// UpdateJob overwrites the mutable fields of an existing job. Returns
	// ErrJobNotFound when no row matches j.ID.
	UpdateJob(ctx context.Context, j *Job) error
	// GetJob returns the job, or (nil, nil) if no row matches id.
	GetJob(ctx context.Context, id string) (*Job, error)
	// DeleteJob removes a job by id. Deleting a missing id is not an error.
	DeleteJob(ctx context.Context, id string) error

	// GetScheduledJobs returns up to batchSize jobs with
	// state=Scheduled && scheduled_at<=now, ordered by scheduled_at ascending.
	// batchSize<=0 means no cap.
	GetScheduledJobs(ctx context.Context, batchSize int) ([]*Job, error)
	// GetJobsByState returns up to batchSize jobs in the given state,
	// ordered by created_at ascending. batchSize<=0 means no cap.
	GetJobsByState(ctx context.Context, state State, batchSize int) ([]*Job, error)
	// GetJobCount returns the exact count of jobs currently in state.
	GetJobCount(ctx context.Context, state State) (int64, error)

	// StoreBatch bulk-inserts jobs that all share batchID.
	StoreBatch(ctx context.Context, batchID string, jobs []*Job) error
	// GetBatchJobs returns all jobs with the given batch_id, any state.
	GetBatchJobs(ctx context.Context, batchID string) ([]*Job, error)

	// StoreContinuation persists a continuation job with parent_job_id=parentID.
	StoreContinuation(ctx context.Context, parentID string, j *Job) error
	// GetContinuations returns all jobs with parent_job_id=parentID and
	// state=AwaitingContinuation.
	GetContinuations(ctx context.Context, parentID string) ([]*Job, error)

	// StoreRecurringJob upserts a recurring job definition on its ID.
	StoreRecurringJob(ctx context.Context, rj *RecurringJob) error
	// UpdateRecurringJob persists last_execution/next_execution bookkeeping
	// for an existing recurring job. Returns ErrRecurringJobNotFound when
	// no row matches rj.ID.
	UpdateRecurringJob(ctx context.Context, rj *RecurringJob) error
	// GetRecurringJob returns a single recurring job definition by id, or
	// (nil, nil) if it does not exist.
	GetRecurringJob(ctx context.Context, id string) (*RecurringJob, error)
	// GetRecurringJobs returns all enabled recurring definitions.
	GetRecurringJobs(ctx context.Context) ([]*RecurringJob, error)
	// RemoveRecurringJob deletes a recurring job definition. Idempotent.
	RemoveRecurringJob(ctx context.Context, id string) error
}
