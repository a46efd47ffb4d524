// Package logging builds the slog loggers used across the pipeline: a
// human-oriented console handler that honors NO_COLOR and non-tty output,
// a JSON handler for log files, and helpers for component-scoped loggers
// with standardized field names.
package logging
