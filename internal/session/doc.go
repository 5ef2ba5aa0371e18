// Package session describes the files that make up a multitrack session and
// loads the raw-to-stem mapping produced by the labeling step.
//
// A session is a mix file plus a raw folder and a stem folder whose WAV files
// are listed non-recursively in name order. RawInfo maps each raw basename to
// its stem, instrument label, and path; it is read from YAML.
package session
