// Package stl is a small thread library for generated code: fixed-capacity
// tables of threads, mutexes, counting semaphores and periodic timers, all
// addressed by small integer handles and started by entry point name.
//
// # Architecture Overview
//
//	stl/
//	├── registry/     Thread, mutex, semaphore and timer tables
//	├── resource/     Fixed-capacity slot arena behind every table
//	├── symbol/       Name to entry point resolution
//	├── diag/         Line-oriented diagnostics and the fatal path
//	├── errors/       Structured error types
//	├── config/       HCL and YAML configuration
//	├── wasmsym/      WebAssembly exports as entry points, "stl" host module
//	├── web/          HTTP requests dispatched to an entry point
//	└── cmd/stl/      Command line runner and live monitor
//
// # Quick Start
//
//	symbol.Register("worker", func(ctx context.Context, arg any) symbol.ExitCode {
//		return symbol.ExitCode(arg.(int) * 2)
//	})
//
//	reg := registry.New(registry.DefaultConfig())
//	defer reg.Close()
//
//	h := reg.CreateThread("worker", 21, false)
//	code := reg.Join(h) // 42
//
// # Failure Model
//
// Misuse is fatal: exhausting a table, using a handle that is not
// allocated, an unknown entry point name or a failed primitive prints one
// "stl-error:: " line and exits with status 1. Non-blocking Lock and Wait
// report contention as false instead.
//
// # Diagnostics
//
// Every line is "YYYY-MM-DD HH:MM:SS.ffffff [thread] message", at most 128
// bytes, where thread is the name of the calling registered thread.
package stl
