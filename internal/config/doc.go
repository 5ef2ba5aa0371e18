// Package config loads, normalizes, and validates multitrack configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the validation engine and CLI need: the conformance format, silence and
// alignment thresholds, inclusion weight cut-off, and the directories used
// for history, logs, and reviewed files.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
