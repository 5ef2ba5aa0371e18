// Package preflight provides readiness checks for the filesystem paths and
// state multitrack depends on.
//
// These checks run in two contexts:
//   - The CLI "multitrack preflight" command runs RunAll and prints a table.
//   - validate and clean-silent run SessionChecks before touching a session,
//     so a mistyped folder fails fast with a clear message.
package preflight
