// Package registry implements discovery and execution of external executable
// tools from a directory, turning heterogeneous scripts, binaries and packaged
// builds into uniform, taggable descriptors that agents can list and run.
//
// A Registry is built once by Discover and is read-only afterwards, so it can
// be shared freely across agents and goroutines. Capability scoping happens
// through tag-filtered Views: a View is a live projection of the registry, not
// a copy, and re-evaluates membership on every call so that listing and
// execution can never disagree.
//
// Execution wraps child processes with privilege elevation (sudo) and timeout
// enforcement as declared by each tool's sidecar metadata. Arguments are always
// passed as a literal argv vector, never interpolated into a shell string.
package registry
