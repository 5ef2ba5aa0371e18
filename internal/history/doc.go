// Package history records validation runs in SQLite so earlier results can be
// listed and inspected from the CLI.
//
// Each run stores the session paths, timing, outcome and the full set of
// recorded check results and problem strings. Schema changes bump the version
// in schema.go; users delete the history database to adopt the new schema.
package history
