// Package main hosts the multitrack CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, sets up structured
// logging, and hands sessions to the validation engine. Results are printed as
// tables or JSON and every validate run is recorded in the history database.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
