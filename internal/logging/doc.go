// Package logging assembles structured slog loggers and formatting helpers used
// across jwb-index.
//
// It owns the configurable console/JSON handlers, tees run output into a JSON
// file under the configured log directory, and stamps every record with the
// run identifier. Context helpers tag log lines with the category being
// crawled. The package also provides a no-op logger for tests and wiring code
// that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
