// Package services defines shared utilities consumed by the validation engine,
// the analyzers, and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp session names, stages, report entities, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (unreadable input, unavailable alignment, caller mistakes)
//     with errors.Is and map them to exit codes.
//
// Use these helpers when wiring new checks so error handling and observability
// stay uniform across the engine.
package services
