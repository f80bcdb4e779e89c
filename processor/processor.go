// Package processor is the background engine: a scheduled-jobs loop, a
// recurring-jobs loop, and a bounded worker pool that executes jobs
// through a registry.Registry and records outcomes via a job.Store.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/buitanlan/jobsharp/backoff"
	"github.com/buitanlan/jobsharp/cron"
	"github.com/buitanlan/jobsharp/job"
	"github.com/buitanlan/jobsharp/middleware"
	"github.com/buitanlan/jobsharp/registry"
)

// Processor owns the two periodic loops and the worker pool. The zero
// value is not usable; use New.
type Processor struct {
	store    job.Store
	registry *registry.Registry
	config   Config
	backoff  backoff.Strategy
	mw       middleware.Middleware
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	sem     chan struct{}
	wg      sync.WaitGroup

	lifetimeCtx    context.Context
	lifetimeCancel context.CancelFunc
}

// Option configures a Processor at construction time.
type Option func(*Processor)

// WithLogger sets the logger used for loop-boundary and failure logging.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

// WithBackoff overrides the default retry-delay strategy. The strategy is
// consulted only when a failed handler's Result did not set RetryDelay.
func WithBackoff(strategy backoff.Strategy) Option {
	return func(p *Processor) { p.backoff = strategy }
}

// WithMiddleware replaces the default middleware chain wrapping every
// handler invocation (Recover, Tracing, Metrics).
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(p *Processor) { p.mw = middleware.Chain(mws...) }
}

// WithClock overrides the time source. Tests use this to control
// scheduling decisions deterministically.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// New creates a Processor over store, dispatching jobs to handlers
// registered in reg according to config.
func New(store job.Store, reg *registry.Registry, config Config, opts ...Option) *Processor {
	p := &Processor{
		store:    store,
		registry: reg,
		config:   config,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.backoff == nil {
		p.backoff = backoff.NewConstant(config.DefaultRetryDelay)
	}
	if p.mw == nil {
		p.mw = middleware.Chain(
			middleware.Recover(p.logger),
			middleware.Tracing(),
			middleware.Metrics(),
		)
	}
	return p
}

// Start launches the periodic loops and returns immediately. Calling
// Start while already running is a no-op.
func (p *Processor) Start(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})

	concurrency := p.config.MaxConcurrentJobs
	if concurrency < 1 {
		concurrency = 1
	}
	p.sem = make(chan struct{}, concurrency)

	def := DefaultConfig()
	if p.config.PollingInterval <= 0 {
		p.config.PollingInterval = def.PollingInterval
	}
	if p.config.RecurringPollingInterval <= 0 {
		p.config.RecurringPollingInterval = def.RecurringPollingInterval
	}
	if p.config.StaleJobThreshold < 0 {
		p.config.StaleJobThreshold = 0
	}
	p.lifetimeCtx, p.lifetimeCancel = context.WithCancel(context.Background())

	p.logger.Info("processor starting",
		slog.Int("max_concurrent_jobs", concurrency),
		slog.Duration("polling_interval", p.config.PollingInterval),
		slog.Duration("recurring_polling_interval", p.config.RecurringPollingInterval),
	)

	p.wg.Add(1)
	go p.scheduledLoop()

	p.wg.Add(1)
	go p.recurringLoop()

	if p.config.StaleJobThreshold > 0 {
		p.wg.Add(1)
		go p.reaperLoop()
	}

	return nil
}

// Stop signals both loops to stop and waits for in-flight workers, up to
// config.ShutdownTimeout or ctx's deadline, whichever comes first. Active
// workers' cancellation tokens fire once the wait is cut short.
func (p *Processor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	p.logger.Info("processor stopping")
	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(p.config.ShutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		p.logger.Info("processor stopped gracefully")
	case <-ctx.Done():
		p.logger.Warn("processor stop: context done, cancelling active jobs")
		p.lifetimeCancel()
	case <-timer.C:
		p.logger.Warn("processor stop: shutdown timeout elapsed, cancelling active jobs")
		p.lifetimeCancel()
	}
	return nil
}

// scheduledLoop fetches and dispatches eligible jobs every PollingInterval.
func (p *Processor) scheduledLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.dispatchScheduled()
		}
	}
}

// dispatchScheduled fetches up to BatchSize scheduled jobs and dispatches
// each into the worker pool, blocking on the semaphore when the pool is
// saturated; leftovers roll over to the next tick.
func (p *Processor) dispatchScheduled() {
	jobs, err := p.store.GetScheduledJobs(p.lifetimeCtx, p.config.BatchSize)
	if err != nil {
		p.logger.Error("fetch scheduled jobs", slog.String("error", err.Error()))
		return
	}

	for _, j := range jobs {
		select {
		case p.sem <- struct{}{}:
		case <-p.stopCh:
			return
		}

		p.wg.Add(1)
		go func(j *job.Job) {
			defer p.wg.Done()
			defer func() { <-p.sem }()
			p.executeJob(p.lifetimeCtx, j)
		}(j)
	}
}

// executeJob runs a single job's full lifecycle: re-check, dispatch to
// Processing, invoke the handler, and apply the outcome.
func (p *Processor) executeJob(ctx context.Context, j *job.Job) {
	cur, err := p.store.GetJob(ctx, j.ID)
	if err != nil {
		p.logger.Error("get job before dispatch",
			slog.String("job_id", j.ID), slog.String("error", err.Error()))
		return
	}
	if cur == nil || cur.State != job.Scheduled {
		return
	}

	now := p.now()
	cur.State = job.Processing
	cur.ExecutedAt = &now
	if err := p.store.UpdateJob(ctx, cur); err != nil {
		p.logger.Error("mark job processing",
			slog.String("job_id", cur.ID), slog.String("error", err.Error()))
		return
	}

	var result registry.Result
	handler, ok := p.registry.Get(cur.TypeName)
	if !ok {
		result = registry.Abandon(fmt.Sprintf("no handler registered for job type %q", cur.TypeName))
	} else {
		result = p.invoke(ctx, cur, handler)
	}

	if result.Success {
		p.handleSuccess(ctx, cur, result)
	} else {
		p.handleFailure(ctx, cur, result)
	}
}

// invoke runs handler through the middleware chain and recovers the
// registry.Result the handler reported, or synthesizes a retryable
// failure Result from a middleware-surfaced error (panic recovery).
func (p *Processor) invoke(ctx context.Context, cur *job.Job, handler registry.HandlerFunc) registry.Result {
	var result registry.Result
	var handlerReturned bool
	terminal := func(ctx context.Context) error {
		result = handler(ctx, cur.Arguments)
		handlerReturned = true
		return nil
	}

	if err := p.mw(ctx, cur, terminal); err != nil && !handlerReturned {
		result = registry.Fail(err.Error())
	}
	return result
}

// handleSuccess records a Succeeded job, fans out to any continuations,
// then runs the shared post-terminal batch-completion check.
func (p *Processor) handleSuccess(ctx context.Context, cur *job.Job, result registry.Result) {
	now := p.now()
	cur.State = job.Succeeded
	cur.Result = result.ResultPayload
	if err := p.store.UpdateJob(ctx, cur); err != nil {
		p.logger.Error("mark job succeeded",
			slog.String("job_id", cur.ID), slog.String("error", err.Error()))
		return
	}

	continuations, err := p.store.GetContinuations(ctx, cur.ID)
	if err != nil {
		p.logger.Error("get continuations",
			slog.String("job_id", cur.ID), slog.String("error", err.Error()))
	}
	for _, child := range continuations {
		child.State = job.Scheduled
		child.ScheduledAt = now
		if err := p.store.UpdateJob(ctx, child); err != nil {
			p.logger.Error("schedule continuation",
				slog.String("job_id", child.ID), slog.String("error", err.Error()))
		}
	}

	p.onTerminal(ctx, cur, now)
}

// onTerminal runs bookkeeping shared by every path that leaves a job in a
// terminal state (Succeeded or Abandoned): if the job is a batch member,
// check whether its batch has just completed. Called from both
// handleSuccess and handleFailure's Abandoned branch — a batch-continuation
// must be admitted whether the last sibling to finish succeeded or was
// abandoned, per the batch-completion invariant (every non-continuation
// sibling reaching a terminal state, not just every sibling succeeding).
func (p *Processor) onTerminal(ctx context.Context, cur *job.Job, now time.Time) {
	if cur.BatchID != "" {
		p.completeBatchIfDone(ctx, cur.BatchID, now)
	}
}

// completeBatchIfDone transitions a batch's AwaitingBatch continuation
// members to Scheduled once every other member has reached a terminal
// state.
func (p *Processor) completeBatchIfDone(ctx context.Context, batchID string, now time.Time) {
	siblings, err := p.store.GetBatchJobs(ctx, batchID)
	if err != nil {
		p.logger.Error("get batch jobs",
			slog.String("batch_id", batchID), slog.String("error", err.Error()))
		return
	}

	allDone := true
	var awaiting []*job.Job
	for _, s := range siblings {
		if s.State == job.AwaitingBatch {
			awaiting = append(awaiting, s)
			continue
		}
		if !s.State.IsTerminal() {
			allDone = false
		}
	}
	if !allDone || len(awaiting) == 0 {
		return
	}

	for _, a := range awaiting {
		a.State = job.Scheduled
		a.ScheduledAt = now
		if err := p.store.UpdateJob(ctx, a); err != nil {
			p.logger.Error("schedule batch continuation",
				slog.String("job_id", a.ID), slog.String("error", err.Error()))
		}
	}
}

// handleFailure increments the retry counter and either reschedules the
// job or abandons it, depending on the handler's Result and MaxRetryCount.
func (p *Processor) handleFailure(ctx context.Context, cur *job.Job, result registry.Result) {
	now := p.now()
	cur.RetryCount++
	cur.ErrorMessage = result.ErrorMessage

	if result.ShouldRetry && cur.RetryCount <= cur.MaxRetryCount {
		delay := result.RetryDelay
		if delay <= 0 {
			delay = p.backoff.Delay(cur.RetryCount)
		}
		cur.State = job.Scheduled
		cur.ScheduledAt = now.Add(delay)
	} else {
		cur.State = job.Abandoned
	}

	if err := p.store.UpdateJob(ctx, cur); err != nil {
		p.logger.Error("record job failure",
			slog.String("job_id", cur.ID), slog.String("error", err.Error()))
		return
	}

	if cur.State == job.Abandoned {
		p.onTerminal(ctx, cur, now)
	}
}

// recurringLoop materializes due recurring jobs every
// RecurringPollingInterval.
func (p *Processor) recurringLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.RecurringPollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.dispatchRecurring()
		}
	}
}

// dispatchRecurring fetches every enabled recurring definition and ticks
// each independently; a single definition's error is logged and does not
// abort the sweep.
func (p *Processor) dispatchRecurring() {
	defs, err := p.store.GetRecurringJobs(p.lifetimeCtx)
	if err != nil {
		p.logger.Error("fetch recurring jobs", slog.String("error", err.Error()))
		return
	}

	now := p.now()
	for _, rj := range defs {
		if err := p.tickRecurring(p.lifetimeCtx, rj, now); err != nil {
			p.logger.Error("tick recurring job",
				slog.String("recurring_job_id", rj.ID), slog.String("error", err.Error()))
		}
	}
}

// tickRecurring materializes a new job from rj's template if its cron
// schedule's next occurrence after the last anchor has arrived, then
// advances the definition's bookkeeping.
func (p *Processor) tickRecurring(ctx context.Context, rj *job.RecurringJob, now time.Time) error {
	schedule, err := cron.Parse(rj.CronExpression)
	if err != nil {
		return fmt.Errorf("parse cron expression: %w", err)
	}

	anchor := now.Add(-time.Minute)
	if rj.LastExecution != nil {
		anchor = *rj.LastExecution
	}

	next, err := schedule.NextOccurrence(anchor)
	if err != nil {
		return fmt.Errorf("compute next occurrence: %w", err)
	}
	if next.After(now) {
		return nil
	}

	j := &job.Job{
		ID:            job.NewID(),
		TypeName:      rj.JobTypeName,
		Arguments:     rj.JobArguments,
		State:         job.Scheduled,
		CreatedAt:     now,
		ScheduledAt:   now,
		MaxRetryCount: rj.MaxRetryCount,
	}
	if _, err := p.store.StoreJob(ctx, j); err != nil {
		return fmt.Errorf("store materialized job: %w", err)
	}

	nextAfterNow, err := schedule.NextOccurrence(now)
	if err != nil {
		return fmt.Errorf("compute next occurrence after fire: %w", err)
	}

	rj.LastExecution = &now
	rj.NextExecution = &nextAfterNow
	if err := p.store.UpdateRecurringJob(ctx, rj); err != nil {
		return fmt.Errorf("update recurring job bookkeeping: %w", err)
	}
	return nil
}

// reaperLoop periodically resets jobs stuck in Processing past
// StaleJobThreshold back to Scheduled. Optional; only runs when
// Config.StaleJobThreshold is nonzero.
func (p *Processor) reaperLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.StaleJobThreshold)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.reapStale()
		}
	}
}

func (p *Processor) reapStale() {
	processing, err := p.store.GetJobsByState(p.lifetimeCtx, job.Processing, p.config.BatchSize)
	if err != nil {
		p.logger.Error("fetch processing jobs for reap", slog.String("error", err.Error()))
		return
	}

	now := p.now()
	for _, j := range processing {
		if j.ExecutedAt == nil || now.Sub(*j.ExecutedAt) < p.config.StaleJobThreshold {
			continue
		}
		j.State = job.Scheduled
		j.ScheduledAt = now
		j.ExecutedAt = nil
		if err := p.store.UpdateJob(p.lifetimeCtx, j); err != nil {
			p.logger.Error("reap stale job",
				slog.String("job_id", j.ID), slog.String("error", err.Error()))
			continue
		}
		p.logger.Info("reaped stale job", slog.String("job_id", j.ID), slog.String("job_type", j.TypeName))
	}
}
