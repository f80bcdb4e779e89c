package client_test

import (
	"context"
	"testing"
	"time"

	"github.com/buitanlan/jobsharp/client"
	"github.com/buitanlan/jobsharp/job"
	"github.com/buitanlan/jobsharp/store/memory"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestEnqueue_CreatesScheduledJob(t *testing.T) {
	store := memory.New()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := client.New(store, client.WithClock(fixedClock(now)))

	id, err := c.Enqueue(context.Background(), "SendEmail", map[string]string{"to": "a@example.com"}, 3)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	j, err := c.GetJob(context.Background(), id)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if j == nil {
		t.Fatal("GetJob returned nil")
	}
	if j.State != job.Scheduled {
		t.Errorf("State = %v, want Scheduled", j.State)
	}
	if !j.ScheduledAt.Equal(now) {
		t.Errorf("ScheduledAt = %v, want %v", j.ScheduledAt, now)
	}
	if j.Arguments == "" {
		t.Error("Arguments is empty, want serialized payload")
	}
}

func TestScheduleAfter_DelaysScheduledAt(t *testing.T) {
	store := memory.New()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := client.New(store, client.WithClock(fixedClock(now)))

	id, err := c.ScheduleAfter(context.Background(), "SendEmail", nil, 10*time.Minute, 0)
	if err != nil {
		t.Fatalf("ScheduleAfter: %v", err)
	}
	j, _ := c.GetJob(context.Background(), id)
	want := now.Add(10 * time.Minute)
	if !j.ScheduledAt.Equal(want) {
		t.Errorf("ScheduledAt = %v, want %v", j.ScheduledAt, want)
	}
}

// S4 — continuation fires only after the parent succeeds.
func TestContinueWith_AwaitsParentSuccess(t *testing.T) {
	store := memory.New()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := client.New(store, client.WithClock(fixedClock(now)))
	ctx := context.Background()

	parentID, err := c.Enqueue(ctx, "Parent", nil, 0)
	if err != nil {
		t.Fatalf("Enqueue parent: %v", err)
	}

	childID, err := c.ContinueWith(ctx, parentID, "Child", nil, 0)
	if err != nil {
		t.Fatalf("ContinueWith: %v", err)
	}

	child, _ := c.GetJob(ctx, childID)
	if child.State != job.AwaitingContinuation {
		t.Fatalf("child.State = %v, want AwaitingContinuation", child.State)
	}

	continuations, err := store.GetContinuations(ctx, parentID)
	if err != nil {
		t.Fatalf("GetContinuations: %v", err)
	}
	if len(continuations) != 1 || continuations[0].ID != childID {
		t.Fatalf("GetContinuations = %v, want [%s]", continuations, childID)
	}

	// Before the parent succeeds, the child must not appear eligible for
	// dispatch via the scheduled-jobs query.
	scheduled, _ := store.GetScheduledJobs(ctx, 0)
	for _, j := range scheduled {
		if j.ID == childID {
			t.Fatal("child appeared in GetScheduledJobs before parent succeeded")
		}
	}
}

// S5 — batch members are Scheduled at submission, and a batch-continuation
// joins the batch in AwaitingBatch.
func TestEnqueueBatch_MembersScheduledAtSubmission(t *testing.T) {
	store := memory.New()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := client.New(store, client.WithClock(fixedClock(now)))
	ctx := context.Background()

	batchID, ids, err := c.EnqueueBatch(ctx, "Process", []any{1, 2, 3}, 0)
	if err != nil {
		t.Fatalf("EnqueueBatch: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("EnqueueBatch returned %d ids, want 3", len(ids))
	}

	for _, id := range ids {
		j, _ := c.GetJob(ctx, id)
		if j.State != job.Scheduled {
			t.Errorf("member %s State = %v, want Scheduled", id, j.State)
		}
		if j.BatchID != batchID {
			t.Errorf("member %s BatchID = %q, want %q", id, j.BatchID, batchID)
		}
	}

	contID, err := c.ContinueBatchWith(ctx, batchID, "Summarize", nil, 0)
	if err != nil {
		t.Fatalf("ContinueBatchWith: %v", err)
	}
	cont, _ := c.GetJob(ctx, contID)
	if cont.State != job.AwaitingBatch {
		t.Errorf("continuation State = %v, want AwaitingBatch", cont.State)
	}

	siblings, err := store.GetBatchJobs(ctx, batchID)
	if err != nil {
		t.Fatalf("GetBatchJobs: %v", err)
	}
	if len(siblings) != 4 {
		t.Fatalf("GetBatchJobs returned %d jobs, want 4 (3 members + continuation)", len(siblings))
	}
}

// S6 — cancel before dispatch succeeds; cancel after dispatch is a no-op.
func TestCancelJob_BeforeDispatch(t *testing.T) {
	store := memory.New()
	c := client.New(store)
	ctx := context.Background()

	id, err := c.Enqueue(ctx, "SendEmail", nil, 0)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	cancelled, err := c.CancelJob(ctx, id)
	if err != nil {
		t.Fatalf("CancelJob: %v", err)
	}
	if !cancelled {
		t.Fatal("CancelJob returned false for a Scheduled job")
	}

	j, _ := c.GetJob(ctx, id)
	if j.State != job.Cancelled {
		t.Errorf("State = %v, want Cancelled", j.State)
	}
}

func TestCancelJob_AfterDispatchIsNoOp(t *testing.T) {
	store := memory.New()
	c := client.New(store)
	ctx := context.Background()

	id, err := c.Enqueue(ctx, "SendEmail", nil, 0)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	j, _ := c.GetJob(ctx, id)
	j.State = job.Processing
	if err := store.UpdateJob(ctx, j); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}

	cancelled, err := c.CancelJob(ctx, id)
	if err != nil {
		t.Fatalf("CancelJob: %v", err)
	}
	if cancelled {
		t.Error("CancelJob returned true for a Processing job, want false (no-op)")
	}

	got, _ := c.GetJob(ctx, id)
	if got.State != job.Processing {
		t.Errorf("State = %v, want unchanged Processing", got.State)
	}
}

func TestCancelJob_Missing(t *testing.T) {
	store := memory.New()
	c := client.New(store)

	cancelled, err := c.CancelJob(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("CancelJob: %v", err)
	}
	if cancelled {
		t.Error("CancelJob returned true for a missing job, want false")
	}
}

func TestAddOrUpdateRecurringJob_RejectsInvalidCron(t *testing.T) {
	store := memory.New()
	c := client.New(store)

	err := c.AddOrUpdateRecurringJob(context.Background(), "daily-report", "Report", nil, "not a cron expr", 0)
	if err == nil {
		t.Fatal("AddOrUpdateRecurringJob(invalid cron) = nil error, want error")
	}
}

func TestAddOrUpdateRecurringJob_UpsertsInPlace(t *testing.T) {
	store := memory.New()
	c := client.New(store)
	ctx := context.Background()

	if err := c.AddOrUpdateRecurringJob(ctx, "daily-report", "Report", nil, "0 9 * * *", 3); err != nil {
		t.Fatalf("AddOrUpdateRecurringJob: %v", err)
	}
	if err := c.AddOrUpdateRecurringJob(ctx, "daily-report", "Report", nil, "0 10 * * *", 5); err != nil {
		t.Fatalf("AddOrUpdateRecurringJob (update): %v", err)
	}

	rj, err := store.GetRecurringJob(ctx, "daily-report")
	if err != nil {
		t.Fatalf("GetRecurringJob: %v", err)
	}
	if rj == nil {
		t.Fatal("GetRecurringJob returned nil")
	}
	if rj.CronExpression != "0 10 * * *" {
		t.Errorf("CronExpression = %q, want %q", rj.CronExpression, "0 10 * * *")
	}
	if rj.MaxRetryCount != 5 {
		t.Errorf("MaxRetryCount = %d, want 5", rj.MaxRetryCount)
	}

	defs, err := store.GetRecurringJobs(ctx)
	if err != nil {
		t.Fatalf("GetRecurringJobs: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("GetRecurringJobs returned %d defs, want 1 (update must not duplicate)", len(defs))
	}
}

func TestRemoveRecurringJob_Idempotent(t *testing.T) {
	store := memory.New()
	c := client.New(store)
	ctx := context.Background()

	if err := c.RemoveRecurringJob(ctx, "does-not-exist"); err != nil {
		t.Fatalf("RemoveRecurringJob on missing id: %v", err)
	}

	if err := c.AddOrUpdateRecurringJob(ctx, "id", "T", nil, "* * * * *", 0); err != nil {
		t.Fatalf("AddOrUpdateRecurringJob: %v", err)
	}
	if err := c.RemoveRecurringJob(ctx, "id"); err != nil {
		t.Fatalf("RemoveRecurringJob: %v", err)
	}
	rj, err := store.GetRecurringJob(ctx, "id")
	if err != nil {
		t.Fatalf("GetRecurringJob: %v", err)
	}
	if rj != nil {
		t.Error("GetRecurringJob after Remove = non-nil, want nil")
	}
}

func TestGetJobCount(t *testing.T) {
	store := memory.New()
	c := client.New(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Enqueue(ctx, "SendEmail", nil, 0); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	count, err := c.GetJobCount(ctx, job.Scheduled)
	if err != nil {
		t.Fatalf("GetJobCount: %v", err)
	}
	if count != 3 {
		t.Errorf("GetJobCount(Scheduled) = %d, want 3", count)
	}
}

func TestDeleteJob(t *testing.T) {
	store := memory.New()
	c := client.New(store)
	ctx := context.Background()

	id, err := c.Enqueue(ctx, "SendEmail", nil, 0)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := c.DeleteJob(ctx, id); err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}
	j, err := c.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if j != nil {
		t.Error("GetJob after DeleteJob = non-nil, want nil")
	}
}
