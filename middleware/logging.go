package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/buitanlan/jobsharp/job"
)

// Logging returns middleware that logs job start and completion. The
// Processor logs state transitions directly; this middleware is for
// callers who chain it explicitly for handler-level start/stop logs.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		logger.Info("job started",
			slog.String("job_type", j.TypeName),
			slog.String("job_id", j.ID),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("job failed",
				slog.String("job_type", j.TypeName),
				slog.String("job_id", j.ID),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("job completed",
				slog.String("job_type", j.TypeName),
				slog.String("job_id", j.ID),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
