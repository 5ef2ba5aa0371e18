// Package logging assembles structured slog loggers used across multitrack.
//
// It owns the console and JSON handlers, level parsing, and the optional JSON
// log file that mirrors every record. Context-aware helpers tag log lines with
// the session, stage, entity, and correlation ID stamped by the services
// package. A no-op logger is provided for tests and library callers that do not
// want output.
package logging
