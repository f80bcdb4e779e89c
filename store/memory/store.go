// Package memory provides a fully in-memory implementation of job.Store.
// It is safe for concurrent use and is the fixture store for every other
// package's tests; it carries no I/O surface of its own, so it needs no
// external driver.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/buitanlan/jobsharp/job"
)

var _ job.Store = (*Store)(nil)

// Store is an in-memory job.Store. The zero value is not usable; use New.
type Store struct {
	mu sync.RWMutex

	jobs      map[string]*job.Job
	recurring map[string]*job.RecurringJob
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		jobs:      make(map[string]*job.Job),
		recurring: make(map[string]*job.RecurringJob),
	}
}

// StoreJob inserts a new job. The caller guarantees ID uniqueness.
func (m *Store) StoreJob(_ context.Context, j *job.Job) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[j.ID]; exists {
		return "", job.ErrJobAlreadyExists
	}
	cp := *j
	m.jobs[j.ID] = &cp
	return j.ID, nil
}

// UpdateJob overwrites the mutable fields of an existing job.
func (m *Store) UpdateJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[j.ID]; !ok {
		return job.ErrJobNotFound
	}
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

// GetJob returns the job, or (nil, nil) if no row matches id.
func (m *Store) GetJob(_ context.Context, id string) (*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

// DeleteJob removes a job by id. Deleting a missing id is not an error.
func (m *Store) DeleteJob(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.jobs, id)
	return nil
}

// GetScheduledJobs returns up to batchSize jobs with
// state=Scheduled && scheduled_at<=now, ordered by scheduled_at ascending.
// batchSize<=0 means no cap.
func (m *Store) GetScheduledJobs(_ context.Context, batchSize int) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now().UTC()
	var candidates []*job.Job
	for _, j := range m.jobs {
		if j.State != job.Scheduled {
			continue
		}
		if j.ScheduledAt.After(now) {
			continue
		}
		cp := *j
		candidates = append(candidates, &cp)
	}

	sort.Slice(candidates, func(i, k int) bool {
		return candidates[i].ScheduledAt.Before(candidates[k].ScheduledAt)
	})

	if batchSize > 0 && len(candidates) > batchSize {
		candidates = candidates[:batchSize]
	}
	return candidates, nil
}

// GetJobsByState returns up to batchSize jobs in the given state, ordered
// by created_at ascending. batchSize<=0 means no cap.
func (m *Store) GetJobsByState(_ context.Context, state job.State, batchSize int) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*job.Job
	for _, j := range m.jobs {
		if j.State != state {
			continue
		}
		cp := *j
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.Before(result[k].CreatedAt)
	})

	if batchSize > 0 && len(result) > batchSize {
		result = result[:batchSize]
	}
	return result, nil
}

// GetJobCount returns the exact count of jobs currently in state.
func (m *Store) GetJobCount(_ context.Context, state job.State) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, j := range m.jobs {
		if j.State == state {
			count++
		}
	}
	return count, nil
}

// StoreBatch bulk-inserts jobs that all share batchID.
func (m *Store) StoreBatch(_ context.Context, batchID string, jobs []*job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, j := range jobs {
		if _, exists := m.jobs[j.ID]; exists {
			return job.ErrJobAlreadyExists
		}
	}
	for _, j := range jobs {
		cp := *j
		cp.BatchID = batchID
		m.jobs[j.ID] = &cp
	}
	return nil
}

// GetBatchJobs returns all jobs with the given batch_id, any state.
func (m *Store) GetBatchJobs(_ context.Context, batchID string) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*job.Job
	for _, j := range m.jobs {
		if j.BatchID != batchID {
			continue
		}
		cp := *j
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.Before(result[k].CreatedAt)
	})
	return result, nil
}

// StoreContinuation persists a continuation job with parent_job_id=parentID.
func (m *Store) StoreContinuation(_ context.Context, parentID string, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[j.ID]; exists {
		return job.ErrJobAlreadyExists
	}
	cp := *j
	cp.ParentJobID = parentID
	m.jobs[j.ID] = &cp
	return nil
}

// GetContinuations returns all jobs with parent_job_id=parentID and
// state=AwaitingContinuation.
func (m *Store) GetContinuations(_ context.Context, parentID string) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*job.Job
	for _, j := range m.jobs {
		if j.ParentJobID != parentID || j.State != job.AwaitingContinuation {
			continue
		}
		cp := *j
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.Before(result[k].CreatedAt)
	})
	return result, nil
}

// StoreRecurringJob upserts a recurring job definition on its ID.
func (m *Store) StoreRecurringJob(_ context.Context, rj *job.RecurringJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *rj
	m.recurring[rj.ID] = &cp
	return nil
}

// UpdateRecurringJob persists last_execution/next_execution bookkeeping
// for an existing recurring job.
func (m *Store) UpdateRecurringJob(_ context.Context, rj *job.RecurringJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.recurring[rj.ID]; !ok {
		return job.ErrRecurringJobNotFound
	}
	cp := *rj
	m.recurring[rj.ID] = &cp
	return nil
}

// GetRecurringJob returns a single recurring job definition by id, or
// (nil, nil) if it does not exist.
func (m *Store) GetRecurringJob(_ context.Context, id string) (*job.RecurringJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rj, ok := m.recurring[id]
	if !ok {
		return nil, nil
	}
	cp := *rj
	return &cp, nil
}

// GetRecurringJobs returns all enabled recurring definitions.
func (m *Store) GetRecurringJobs(_ context.Context) ([]*job.RecurringJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*job.RecurringJob
	for _, rj := range m.recurring {
		if !rj.IsEnabled {
			continue
		}
		cp := *rj
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.Before(result[k].CreatedAt)
	})
	return result, nil
}

// RemoveRecurringJob deletes a recurring job definition. Idempotent.
func (m *Store) RemoveRecurringJob(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.recurring, id)
	return nil
}
