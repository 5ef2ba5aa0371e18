// Package alignment decides whether a group of session files lines up in time
// with a target file.
//
// The group is summed into a mono temp file, a window from the middle of the
// target is downsampled for both signals, and the lag of the strongest
// overlap-normalized cross-correlation peak is compared against a tolerance.
package alignment
