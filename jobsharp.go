package jobsharp

import (
	"context"

	"github.com/buitanlan/jobsharp/client"
	"github.com/buitanlan/jobsharp/job"
	"github.com/buitanlan/jobsharp/processor"
	"github.com/buitanlan/jobsharp/registry"
)

// Engine wires a job.Store, a registry.Registry, a client.Client, and a
// processor.Processor into a single handle, for callers who want one
// entry point instead of constructing each component directly.
type Engine struct {
	Store     job.Store
	Registry  *registry.Registry
	Client    *client.Client
	Processor *processor.Processor
}

// New builds an Engine over store using config for the Processor. Register
// handlers on Engine.Registry before calling Start.
func New(store job.Store, config processor.Config, opts ...processor.Option) *Engine {
	reg := registry.New()
	return &Engine{
		Store:     store,
		Registry:  reg,
		Client:    client.New(store),
		Processor: processor.New(store, reg, config, opts...),
	}
}

// Start launches the Processor's background loops. See
// processor.Processor.Start.
func (e *Engine) Start(ctx context.Context) error {
	return e.Processor.Start(ctx)
}

// Stop gracefully shuts the Processor down. See processor.Processor.Stop.
func (e *Engine) Stop(ctx context.Context) error {
	return e.Processor.Stop(ctx)
}
