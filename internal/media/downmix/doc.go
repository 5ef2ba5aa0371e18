// Package downmix builds the coarse mono signals the analyzers work on.
//
// Files are streamed through a box-filter decimator so a multi-minute session
// never has to be held at full rate in memory. Combine sums (or concatenates)
// a group of files into a scoped temporary WAV; WithCombined guarantees the
// temporary file is removed however the callback exits.
package downmix
