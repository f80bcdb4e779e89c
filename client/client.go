// Package client provides the job submission API: enqueue, schedule,
// recurring, continuation, batch, cancel, delete, count, get. It is the
// only package application code writes jobs through. Apart from CancelJob,
// the processor is the only package that mutates them afterward.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/buitanlan/jobsharp/cron"
	"github.com/buitanlan/jobsharp/job"
)

// Client is the submission API described in spec §4.3. It is safe for
// concurrent use; all state lives in the underlying Store.
type Client struct {
	store job.Store
	now   func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithClock overrides the Client's notion of "now". Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a Client backed by store.
func New(store job.Store, opts ...Option) *Client {
	c := &Client{store: store, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// marshalArgs serializes args to the opaque arguments string. JSON is the
// convenience encoding; callers that want full control over the wire
// format can bypass this by passing a string directly via EnqueueRaw.
func marshalArgs(args any) (string, error) {
	if args == nil {
		return "", nil
	}
	if s, ok := args.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("client: marshal arguments: %w", err)
	}
	return string(b), nil
}

// Enqueue creates a job in Scheduled state with scheduled_at=now.
func (c *Client) Enqueue(ctx context.Context, typeName string, args any, maxRetry int) (string, error) {
	payload, err := marshalArgs(args)
	if err != nil {
		return "", err
	}
	return c.EnqueueRaw(ctx, typeName, payload, maxRetry)
}

// EnqueueRaw is Enqueue with a pre-serialized arguments string.
func (c *Client) EnqueueRaw(ctx context.Context, typeName, arguments string, maxRetry int) (string, error) {
	now := c.now().UTC()
	j := &job.Job{
		ID:            job.NewID(),
		TypeName:      typeName,
		Arguments:     arguments,
		State:         job.Scheduled,
		CreatedAt:     now,
		ScheduledAt:   now,
		MaxRetryCount: maxRetry,
	}
	return c.store.StoreJob(ctx, j)
}

// ScheduleAfter creates a job in Scheduled state with scheduled_at=now+delay.
func (c *Client) ScheduleAfter(ctx context.Context, typeName string, args any, delay time.Duration, maxRetry int) (string, error) {
	return c.ScheduleAt(ctx, typeName, args, c.now().UTC().Add(delay), maxRetry)
}

// ScheduleAt creates a job in Scheduled state with scheduled_at=at.
func (c *Client) ScheduleAt(ctx context.Context, typeName string, args any, at time.Time, maxRetry int) (string, error) {
	payload, err := marshalArgs(args)
	if err != nil {
		return "", err
	}
	now := c.now().UTC()
	j := &job.Job{
		ID:            job.NewID(),
		TypeName:      typeName,
		Arguments:     payload,
		State:         job.Scheduled,
		CreatedAt:     now,
		ScheduledAt:   at.UTC(),
		MaxRetryCount: maxRetry,
	}
	return c.store.StoreJob(ctx, j)
}

// ContinueWith creates a job that becomes eligible only after parentID
// succeeds. It begins in AwaitingContinuation with scheduled_at left zero;
// the processor sets it when the parent succeeds.
func (c *Client) ContinueWith(ctx context.Context, parentID, typeName string, args any, maxRetry int) (string, error) {
	payload, err := marshalArgs(args)
	if err != nil {
		return "", err
	}
	j := &job.Job{
		ID:            job.NewID(),
		TypeName:      typeName,
		Arguments:     payload,
		State:         job.AwaitingContinuation,
		CreatedAt:     c.now().UTC(),
		ParentJobID:   parentID,
		MaxRetryCount: maxRetry,
	}
	if err := c.store.StoreContinuation(ctx, parentID, j); err != nil {
		return "", err
	}
	return j.ID, nil
}

// EnqueueBatch allocates a new batch id, creates N jobs sharing it, and
// returns (batchID, jobIDs). Regular batch members are marked Scheduled at
// submission time — the documented resolution (choice a) of the
// batch-member-initial-state design note: they must be immediately
// eligible, since nothing else transitions them out of AwaitingBatch.
func (c *Client) EnqueueBatch(ctx context.Context, typeName string, argsList []any, maxRetry int) (string, []string, error) {
	batchID := job.NewBatchID()
	now := c.now().UTC()
	jobs := make([]*job.Job, len(argsList))
	ids := make([]string, len(argsList))
	for i, args := range argsList {
		payload, err := marshalArgs(args)
		if err != nil {
			return "", nil, err
		}
		j := &job.Job{
			ID:            job.NewID(),
			TypeName:      typeName,
			Arguments:     payload,
			State:         job.Scheduled,
			CreatedAt:     now,
			ScheduledAt:   now,
			BatchID:       batchID,
			MaxRetryCount: maxRetry,
		}
		jobs[i] = j
		ids[i] = j.ID
	}
	if err := c.store.StoreBatch(ctx, batchID, jobs); err != nil {
		return "", nil, err
	}
	return batchID, ids, nil
}

// ContinueBatchWith creates a batch-continuation job that fires only after
// every non-continuation member of batchID reaches a terminal state.
func (c *Client) ContinueBatchWith(ctx context.Context, batchID, typeName string, args any, maxRetry int) (string, error) {
	payload, err := marshalArgs(args)
	if err != nil {
		return "", err
	}
	j := &job.Job{
		ID:            job.NewID(),
		TypeName:      typeName,
		Arguments:     payload,
		State:         job.AwaitingBatch,
		CreatedAt:     c.now().UTC(),
		BatchID:       batchID,
		MaxRetryCount: maxRetry,
	}
	if err := c.store.StoreBatch(ctx, batchID, []*job.Job{j}); err != nil {
		return "", err
	}
	return j.ID, nil
}

// AddOrUpdateRecurringJob validates cronExpr and upserts a recurring job
// definition. Repeated registration under the same id updates the
// schedule and template in place.
func (c *Client) AddOrUpdateRecurringJob(ctx context.Context, id, typeName string, args any, cronExpr string, maxRetry int) error {
	if _, err := cron.Parse(cronExpr); err != nil {
		return err
	}
	payload, err := marshalArgs(args)
	if err != nil {
		return err
	}
	rj := &job.RecurringJob{
		ID:             id,
		CronExpression: cronExpr,
		JobTypeName:    typeName,
		JobArguments:   payload,
		MaxRetryCount:  maxRetry,
		IsEnabled:      true,
		CreatedAt:      c.now().UTC(),
	}
	return c.store.StoreRecurringJob(ctx, rj)
}

// RemoveRecurringJob deletes a recurring job definition. Idempotent.
func (c *Client) RemoveRecurringJob(ctx context.Context, id string) error {
	return c.store.RemoveRecurringJob(ctx, id)
}

// CancelJob transitions a Scheduled job to Cancelled and reports whether
// it did so. Any other observed state is a no-op returning false.
func (c *Client) CancelJob(ctx context.Context, id string) (bool, error) {
	j, err := c.store.GetJob(ctx, id)
	if err != nil {
		return false, err
	}
	if j == nil || j.State != job.Scheduled {
		return false, nil
	}
	j.State = job.Cancelled
	if err := c.store.UpdateJob(ctx, j); err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteJob removes a job by id.
func (c *Client) DeleteJob(ctx context.Context, id string) error {
	return c.store.DeleteJob(ctx, id)
}

// GetJob returns a job by id, or nil if it does not exist.
func (c *Client) GetJob(ctx context.Context, id string) (*job.Job, error) {
	return c.store.GetJob(ctx, id)
}

// GetJobCount returns the exact count of jobs currently in state.
func (c *Client) GetJobCount(ctx context.Context, state job.State) (int64, error) {
	return c.store.GetJobCount(ctx, state)
}
