// Package processor implements the engine that drives jobs through the
// state machine defined in package job: a scheduled-jobs loop dispatches
// due work into a bounded worker pool, a recurring-jobs loop materializes
// new jobs from cron-scheduled templates, and each worker resolves a
// handler from a registry.Registry, invokes it, and applies the outcome
// (retry, continuation fan-out, batch completion, or abandonment).
package processor
