// Package job defines the job entity, its state machine, the recurring
// job template, and the Storage Contract ([Store]) that any persistence
// backend must satisfy.
//
// A [Job] represents a unit of deferred work. It progresses through a
// state machine:
//
//	Created → Scheduled → Processing → Succeeded
//	Created → Scheduled → Processing → Scheduled (retry) → ...
//	Created → Scheduled → Processing → Abandoned
//	Scheduled → Cancelled
//	AwaitingContinuation → Scheduled (parent succeeded)
//	AwaitingBatch → Scheduled (all siblings terminal)
//
// Jobs are created by the client package, or by the processor package when
// it materializes a recurring job. Once submitted they are mutated by the
// processor package, except for cancellation through the client package.
package job
