// Package logging provides a minimal logging interface and adapters for toolmesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the registry, the ReAct loop and the background executor use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewDefaultLogger(logging.LogLevelInfo)
//	reg := registry.Discover("tools", func(o *registry.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
