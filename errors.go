package jobsharp

import (
	"github.com/buitanlan/jobsharp/cron"
	"github.com/buitanlan/jobsharp/job"
)

// Sentinel errors re-exported at the facade level so callers that only
// import the root package can still errors.Is against them, without
// reaching into job/cron directly. These are aliases, not new values —
// errors.Is(err, jobsharp.ErrJobNotFound) and
// errors.Is(err, job.ErrJobNotFound) test the same error.
var (
	// ErrJobNotFound is returned by UpdateJob against an absent id; GetJob
	// returns (nil, nil) and DeleteJob succeeds instead. Client.CancelJob
	// treats it as "no-op / false".
	ErrJobNotFound = job.ErrJobNotFound

	// ErrRecurringJobNotFound is returned by UpdateRecurringJob against an
	// absent recurring job id.
	ErrRecurringJobNotFound = job.ErrRecurringJobNotFound

	// ErrJobAlreadyExists is returned by StoreJob/StoreBatch/StoreContinuation
	// when the caller-supplied id collides with an existing row.
	ErrJobAlreadyExists = job.ErrJobAlreadyExists

	// ErrInvalidCronExpression is raised by the cron parser. It bubbles up
	// to AddOrUpdateRecurringJob, or is logged inside the recurring loop
	// for pre-existing bad schedules.
	ErrInvalidCronExpression = cron.ErrInvalidCronExpression

	// ErrNoNextOccurrence means the cron search exhausted its bound
	// (four years) without finding a match.
	ErrNoNextOccurrence = cron.ErrNoNextOccurrence
)
