// Package filesystem provides the filesystem abstraction used by the
// helpers. Production code runs on the OS implementation; tests run on
// an afero in-memory filesystem so that permission and removal logic can
// be exercised without touching the host.
package filesystem
