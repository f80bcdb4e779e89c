// Package registry maps job type names to the handlers that process their
// payloads. The mapping is populated once at startup and read-only
// thereafter — the Processor consults it once per job execution.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Result is the outcome a handler reports back to the processor.
type Result struct {
	// Success, when true, means the handler completed the job.
	Success bool
	// ResultPayload is the opaque result string persisted on success.
	ResultPayload string

	// ErrorMessage describes the failure. Ignored when Success is true.
	ErrorMessage string
	// ShouldRetry indicates whether the processor may reschedule the job.
	// Ignored when Success is true.
	ShouldRetry bool
	// RetryDelay overrides the processor's default_retry_delay for this
	// failure. Zero means "use the default."
	RetryDelay time.Duration
}

// Succeed builds a successful Result.
func Succeed(result string) Result {
	return Result{Success: true, ResultPayload: result}
}

// Fail builds a retryable failure Result.
func Fail(errorMessage string) Result {
	return Result{ErrorMessage: errorMessage, ShouldRetry: true}
}

// FailWithDelay builds a retryable failure Result with an explicit delay
// before the next attempt.
func FailWithDelay(errorMessage string, delay time.Duration) Result {
	return Result{ErrorMessage: errorMessage, ShouldRetry: true, RetryDelay: delay}
}

// Abandon builds a non-retryable failure Result.
func Abandon(errorMessage string) Result {
	return Result{ErrorMessage: errorMessage, ShouldRetry: false}
}

// HandlerFunc is a type-erased job handler: it accepts the job's raw
// opaque arguments string and a cancellation context, and returns the
// execution outcome. A typed Handler[T] is converted to a HandlerFunc at
// registration time by closing over a deserializer and the typed handler.
type HandlerFunc func(ctx context.Context, arguments string) Result

// Handler is the typed interface a job type implements. Handle receives
// the deserialized argument value and a cancellation context derived from
// the processor's lifetime.
type Handler[T any] interface {
	Handle(ctx context.Context, args T) Result
}

// HandlerFn adapts a plain function to a Handler[T].
type HandlerFn[T any] func(ctx context.Context, args T) Result

// Handle calls the underlying function.
func (f HandlerFn[T]) Handle(ctx context.Context, args T) Result {
	return f(ctx, args)
}

// Registry maps type_name to (deserializer, handler) entries. It is safe
// for concurrent use; entries are written only during startup.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register wraps a typed Handler[T] into the registry under typeName. The
// arguments string is JSON-deserialized into T before the handler runs; a
// payload that does not match T produces a non-retryable failure, per the
// generic-handler-base contract.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func Register[T any](r *Registry, typeName string, h Handler[T]) {
	r.RegisterFunc(typeName, func(ctx context.Context, arguments string) Result {
		var args T
		if arguments != "" {
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return Abandon(fmt.Sprintf("deserialize arguments for job type %q: %v", typeName, err))
			}
		}
		return h.Handle(ctx, args)
	})
}

// RegisterFunc registers a type-erased handler directly, bypassing the
// JSON deserialization Register provides. Use this when the caller wants
// full control over payload decoding.
func (r *Registry) RegisterFunc(typeName string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[typeName] = h
}

// Get returns the handler registered for typeName, or false if none is.
func (r *Registry) Get(typeName string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[typeName]
	return h, ok
}

// Names returns every registered type name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}
