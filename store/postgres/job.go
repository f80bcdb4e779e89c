package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/buitanlan/jobsharp/job"
)

const jobColumns = `
	id, type_name, arguments, state, created_at, scheduled_at, executed_at,
	retry_count, max_retry_count, error_message, result, batch_id, parent_job_id`

// StoreJob inserts a new job.
func (s *Store) StoreJob(ctx context.Context, j *job.Job) (string, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO jobsharp_jobs (`+jobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		j.ID, j.TypeName, nullableString(j.Arguments), int(j.State), j.CreatedAt,
		nullableTime(j.ScheduledAt), j.ExecutedAt,
		j.RetryCount, j.MaxRetryCount, nullableString(j.ErrorMessage),
		nullableString(j.Result), nullableString(j.BatchID), nullableString(j.ParentJobID),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return "", job.ErrJobAlreadyExists
		}
		return "", fmt.Errorf("jobsharp/postgres: store job: %w", err)
	}
	return j.ID, nil
}

// UpdateJob overwrites the mutable fields of an existing job.
func (s *Store) UpdateJob(ctx context.Context, j *job.Job) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobsharp_jobs SET
			type_name = $2, arguments = $3, state = $4, scheduled_at = $5,
			executed_at = $6, retry_count = $7, max_retry_count = $8,
			error_message = $9, result = $10, batch_id = $11, parent_job_id = $12
		WHERE id = $1`,
		j.ID, j.TypeName, nullableString(j.Arguments), int(j.State),
		nullableTime(j.ScheduledAt), j.ExecutedAt,
		j.RetryCount, j.MaxRetryCount, nullableString(j.ErrorMessage),
		nullableString(j.Result), nullableString(j.BatchID), nullableString(j.ParentJobID),
	)
	if err != nil {
		return fmt.Errorf("jobsharp/postgres: update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return job.ErrJobNotFound
	}
	return nil
}

// GetJob returns the job, or (nil, nil) if no row matches id.
func (s *Store) GetJob(ctx context.Context, id string) (*job.Job, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobsharp_jobs WHERE id = $1`, id)
	j, err := scanJob(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("jobsharp/postgres: get job: %w", err)
	}
	return j, nil
}

// DeleteJob removes a job by id. Deleting a missing id is not an error.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM jobsharp_jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("jobsharp/postgres: delete job: %w", err)
	}
	return nil
}

// GetScheduledJobs returns up to batchSize jobs with
// state=Scheduled && scheduled_at<=now, ordered by scheduled_at ascending.
// batchSize<=0 means no cap.
func (s *Store) GetScheduledJobs(ctx context.Context, batchSize int) ([]*job.Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+jobColumns+` FROM jobsharp_jobs
		WHERE state = $1 AND scheduled_at <= NOW()
		ORDER BY scheduled_at ASC
		LIMIT $2`,
		int(job.Scheduled), batchLimit(batchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("jobsharp/postgres: get scheduled jobs: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

// GetJobsByState returns up to batchSize jobs in the given state, ordered
// by created_at ascending. batchSize<=0 means no cap.
func (s *Store) GetJobsByState(ctx context.Context, state job.State, batchSize int) ([]*job.Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+jobColumns+` FROM jobsharp_jobs
		WHERE state = $1
		ORDER BY created_at ASC
		LIMIT $2`,
		int(state), batchLimit(batchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("jobsharp/postgres: get jobs by state: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

// GetJobCount returns the exact count of jobs currently in state.
func (s *Store) GetJobCount(ctx context.Context, state job.State) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM jobsharp_jobs WHERE state = $1`, int(state),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("jobsharp/postgres: get job count: %w", err)
	}
	return count, nil
}

// StoreBatch bulk-inserts jobs that all share batchID.
func (s *Store) StoreBatch(ctx context.Context, batchID string, jobs []*job.Job) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("jobsharp/postgres: store batch: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, j := range jobs {
		j.BatchID = batchID
		_, err := tx.Exec(ctx, `
			INSERT INTO jobsharp_jobs (`+jobColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			j.ID, j.TypeName, nullableString(j.Arguments), int(j.State), j.CreatedAt,
			nullableTime(j.ScheduledAt), j.ExecutedAt,
			j.RetryCount, j.MaxRetryCount, nullableString(j.ErrorMessage),
			nullableString(j.Result), nullableString(j.BatchID), nullableString(j.ParentJobID),
		)
		if err != nil {
			if isDuplicateKey(err) {
				return job.ErrJobAlreadyExists
			}
			return fmt.Errorf("jobsharp/postgres: store batch: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("jobsharp/postgres: store batch: commit: %w", err)
	}
	return nil
}

// GetBatchJobs returns all jobs with the given batch_id, any state.
func (s *Store) GetBatchJobs(ctx context.Context, batchID string) ([]*job.Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+jobColumns+` FROM jobsharp_jobs
		WHERE batch_id = $1
		ORDER BY created_at ASC`,
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("jobsharp/postgres: get batch jobs: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

// StoreContinuation persists a continuation job with parent_job_id=parentID.
func (s *Store) StoreContinuation(ctx context.Context, parentID string, j *job.Job) error {
	j.ParentJobID = parentID
	_, err := s.pool.Exec(ctx, `
		INSERT INTO jobsharp_jobs (`+jobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		j.ID, j.TypeName, nullableString(j.Arguments), int(j.State), j.CreatedAt,
		nullableTime(j.ScheduledAt), j.ExecutedAt,
		j.RetryCount, j.MaxRetryCount, nullableString(j.ErrorMessage),
		nullableString(j.Result), nullableString(j.BatchID), nullableString(j.ParentJobID),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return job.ErrJobAlreadyExists
		}
		return fmt.Errorf("jobsharp/postgres: store continuation: %w", err)
	}
	return nil
}

// GetContinuations returns all jobs with parent_job_id=parentID and
// state=AwaitingContinuation.
func (s *Store) GetContinuations(ctx context.Context, parentID string) ([]*job.Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+jobColumns+` FROM jobsharp_jobs
		WHERE parent_job_id = $1 AND state = $2
		ORDER BY created_at ASC`,
		parentID, int(job.AwaitingContinuation),
	)
	if err != nil {
		return nil, fmt.Errorf("jobsharp/postgres: get continuations: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

// collectJobs scans every row into a []*job.Job.
func collectJobs(rows pgx.Rows) ([]*job.Job, error) {
	var result []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, j)
	}
	return result, rows.Err()
}

// scanJob scans a single job row.
func scanJob(row pgx.Row) (*job.Job, error) {
	var (
		j                                                     job.Job
		state                                                 int
		arguments, errorMessage, result, batchID, parentJobID *string
		scheduledAt                                           *time.Time
	)
	err := row.Scan(
		&j.ID, &j.TypeName, &arguments, &state, &j.CreatedAt, &scheduledAt, &j.ExecutedAt,
		&j.RetryCount, &j.MaxRetryCount, &errorMessage, &result, &batchID, &parentJobID,
	)
	if err != nil {
		return nil, err
	}
	j.State = job.State(state)
	if arguments != nil {
		j.Arguments = *arguments
	}
	if errorMessage != nil {
		j.ErrorMessage = *errorMessage
	}
	if result != nil {
		j.Result = *result
	}
	if batchID != nil {
		j.BatchID = *batchID
	}
	if parentJobID != nil {
		j.ParentJobID = *parentJobID
	}
	if scheduledAt != nil {
		j.ScheduledAt = *scheduledAt
	}
	return &j, nil
}
