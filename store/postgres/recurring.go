package postgres

import (
	"context"
	"fmt"

	"github.com/buitanlan/jobsharp/job"
)

const recurringColumns = `
	id, cron_expression, job_type_name, job_arguments, max_retry_count,
	next_execution, last_execution, is_enabled, created_at`

// StoreRecurringJob upserts a recurring job definition on its ID.
func (s *Store) StoreRecurringJob(ctx context.Context, rj *job.RecurringJob) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO jobsharp_recurring_jobs (`+recurringColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			cron_expression = EXCLUDED.cron_expression,
			job_type_name = EXCLUDED.job_type_name,
			job_arguments = EXCLUDED.job_arguments,
			max_retry_count = EXCLUDED.max_retry_count,
			next_execution = EXCLUDED.next_execution,
			last_execution = EXCLUDED.last_execution,
			is_enabled = EXCLUDED.is_enabled`,
		rj.ID, rj.CronExpression, rj.JobTypeName, nullableString(rj.JobArguments), rj.MaxRetryCount,
		rj.NextExecution, rj.LastExecution, rj.IsEnabled, rj.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("jobsharp/postgres: store recurring job: %w", err)
	}
	return nil
}

// UpdateRecurringJob persists last_execution/next_execution bookkeeping
// for an existing recurring job.
func (s *Store) UpdateRecurringJob(ctx context.Context, rj *job.RecurringJob) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobsharp_recurring_jobs SET
			cron_expression = $2, job_type_name = $3, job_arguments = $4,
			max_retry_count = $5, next_execution = $6, last_execution = $7, is_enabled = $8
		WHERE id = $1`,
		rj.ID, rj.CronExpression, rj.JobTypeName, nullableString(rj.JobArguments),
		rj.MaxRetryCount, rj.NextExecution, rj.LastExecution, rj.IsEnabled,
	)
	if err != nil {
		return fmt.Errorf("jobsharp/postgres: update recurring job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return job.ErrRecurringJobNotFound
	}
	return nil
}

// GetRecurringJob returns a single recurring job definition by id, or
// (nil, nil) if it does not exist.
func (s *Store) GetRecurringJob(ctx context.Context, id string) (*job.RecurringJob, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+recurringColumns+` FROM jobsharp_recurring_jobs WHERE id = $1`, id)
	rj, err := scanRecurringJob(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("jobsharp/postgres: get recurring job: %w", err)
	}
	return rj, nil
}

// GetRecurringJobs returns all enabled recurring definitions.
func (s *Store) GetRecurringJobs(ctx context.Context) ([]*job.RecurringJob, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+recurringColumns+` FROM jobsharp_recurring_jobs
		WHERE is_enabled = TRUE
		ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("jobsharp/postgres: get recurring jobs: %w", err)
	}
	defer rows.Close()

	var result []*job.RecurringJob
	for rows.Next() {
		rj, err := scanRecurringJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rj)
	}
	return result, rows.Err()
}

// RemoveRecurringJob deletes a recurring job definition. Idempotent.
func (s *Store) RemoveRecurringJob(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM jobsharp_recurring_jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("jobsharp/postgres: remove recurring job: %w", err)
	}
	return nil
}

type recurringRow interface {
	Scan(dest ...any) error
}

func scanRecurringJob(row recurringRow) (*job.RecurringJob, error) {
	var (
		rj           job.RecurringJob
		jobArguments *string
	)
	err := row.Scan(
		&rj.ID, &rj.CronExpression, &rj.JobTypeName, &jobArguments, &rj.MaxRetryCount,
		&rj.NextExecution, &rj.LastExecution, &rj.IsEnabled, &rj.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if jobArguments != nil {
		rj.JobArguments = *jobArguments
	}
	return &rj, nil
}
