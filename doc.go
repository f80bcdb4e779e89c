// Package jobsharp is a durable background job processing engine. It
// accepts work units ("jobs") submitted by application code, persists
// them in a pluggable store, and executes them asynchronously with retry,
// scheduling, recurrence, continuation, and batch semantics.
//
// jobsharp is a library, not a service. Import it, configure a
// job.Store, register handlers in a registry.Registry, and submit work
// through a client.Client:
//
//	store := memory.New()
//	engine := jobsharp.New(store, processor.DefaultConfig())
//	registry.Register(engine.Registry, "SendEmail", sendEmailHandler)
//
//	engine.Start(ctx)
//	defer engine.Stop(ctx)
//
//	engine.Client.Enqueue(ctx, "SendEmail", emailArgs, 3)
//
// # Architecture
//
// Five components, leaves first: the cron parser (package cron), the
// storage contract (package job, interface Store), the submission API
// (package client), the background engine (package processor), and the
// handler registry (package registry). New wires a Store, a
// registry.Registry, a client.Client, and a processor.Processor together
// for callers who want a single entry point instead of constructing each
// piece directly.
package jobsharp
