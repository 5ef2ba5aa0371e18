// Package probe reads technical statistics from PCM WAV files.
//
// This package has no multitrack-specific dependencies beyond the shared
// error markers and could be extracted as a standalone library.
//
// Key types:
//   - Stats: channel count, bit depth, sample rate, sample count, duration
//   - Format: the conformance rule a session file must satisfy for its Kind
//   - Reader: streaming frame decoder used by the silence check and downmixing
//
// Primary entry points:
//   - Probe: header-only inspection returning Stats
//   - IsConformant: compares Stats against Format for a stem, raw, or mix
//   - IsSilent: frame-wise magnitude scan with early exit
package probe
