// Package logging assembles structured slog loggers and formatting helpers
// used across photosync.
//
// It owns the configurable console/JSON handlers, centralizes level and
// output plumbing, and exposes attribute helpers so sync code tags log lines
// with account nicknames, sync stages, and run correlation IDs uniformly.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
