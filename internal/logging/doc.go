// Package logging assembles structured slog loggers and formatting helpers used
// across tubepulse.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so refresh code can tag log lines
// with run identifiers and refresh modes. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging
