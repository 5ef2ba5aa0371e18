// Package validation runs the session checks and turns their results into
// problem strings.
//
// Engine.CheckAudio covers format, length, silence and emptiness. It needs
// only the session folders and the mix. Engine.CheckMultitrack adds the
// mapping, alignment and inclusion checks that depend on the raw-to-stem
// mapping. Results accumulate in a Report whose entities and checks keep
// insertion order, and CreateProblems renders every failed check.
package validation
