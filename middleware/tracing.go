package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/buitanlan/jobsharp/job"
)

// tracerName is the instrumentation scope name for jobsharp tracing.
const tracerName = "github.com/buitanlan/jobsharp"

// Tracing returns middleware that wraps job execution in an OpenTelemetry span.
// If no TracerProvider is configured globally, the default noop tracer is used
// and this middleware becomes a pass-through with zero overhead.
//
// Span attributes include: jobsharp.job.id, jobsharp.job.type, jobsharp.job.batch_id,
// jobsharp.job.parent_job_id, jobsharp.retry_count.
// On error, the span status is set to codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		ctx, span := tracer.Start(ctx, "jobsharp.job.execute",
			trace.WithAttributes(
				attribute.String("jobsharp.job.id", j.ID),
				attribute.String("jobsharp.job.type", j.TypeName),
				attribute.String("jobsharp.job.batch_id", j.BatchID),
				attribute.String("jobsharp.job.parent_job_id", j.ParentJobID),
				attribute.Int("jobsharp.retry_count", j.RetryCount),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
