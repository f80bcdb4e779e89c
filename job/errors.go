package job

import "errors"

var (
	// ErrJobNotFound is returned by UpdateJob against an absent id. GetJob
	// returns (nil, nil) rather than this error, and DeleteJob of a missing
	// id succeeds. Client.CancelJob treats a missing job as "no-op / false".
	ErrJobNotFound = errors.New("job: not found")

	// ErrRecurringJobNotFound is returned by UpdateRecurringJob against an
	// absent id. GetRecurringJob returns (nil, nil) and RemoveRecurringJob
	// of a missing id succeeds.
	ErrRecurringJobNotFound = errors.New("job: recurring job not found")

	// ErrJobAlreadyExists is returned by StoreJob/StoreBatch/
	// StoreContinuation when the caller-supplied id collides with an
	// existing row.
	ErrJobAlreadyExists = errors.New("job: already exists")

	// ErrStorage is a sentinel for backend I/O faults. The Store
	// implementations in this module do not wrap their errors with it:
	// store/postgres wraps driver errors with fmt.Errorf only.
	ErrStorage = errors.New("job: storage error")
)
