// Package logging assembles structured slog loggers and formatting helpers used
// across reelforge packages.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so graph and publish code can
// tag log lines with resource ids, operations, releases and correlation IDs.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
