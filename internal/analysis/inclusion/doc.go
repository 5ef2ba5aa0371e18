// Package inclusion estimates how much each component file contributes to a
// target file.
//
// Amplitude envelopes of the components are regressed onto the target's
// envelope with non-negative least squares. A component whose weight falls
// below the threshold is considered missing from the target.
package inclusion
