// Package symbol maps entry point names to callable Go functions.
//
// Generated modules register their entry points at process start, usually
// from an init function:
//
//	func init() {
//		symbol.Register("producer", producer)
//		symbol.RegisterShared("consumer", consumer)
//	}
//
// A thread manager later resolves the name it was handed:
//
//	ep, err := symbol.Default.Resolve("producer")
//
// An EntryPoint is either a Func, which receives only the caller's argument,
// or a SharedFunc, which additionally receives the process-wide shared
// context block. The kind is fixed at registration time.
package symbol
