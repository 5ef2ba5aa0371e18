package probe

import (
	"fmt"

	"multitrack/internal/services"
)

// Kind identifies the role of a file within a session.
type Kind string

const (
	KindStem Kind = "stem"
	KindRaw  Kind = "raw"
	KindMix  Kind = "mix"
)

// Format is the conformance rule applied to session files. Only the channel
// count differs between kinds.
type Format struct {
	SampleRate   int
	BitDepth     int
	StemChannels int
	MixChannels  int
	RawChannels  int
}

// DefaultFormat is 44.1 kHz, 16-bit, stereo stems and mix, mono raws.
func DefaultFormat() Format {
	return Format{SampleRate: 44100, BitDepth: 16, StemChannels: 2, MixChannels: 2, RawChannels: 1}
}

// Channels returns the required channel count for kind.
func (f Format) Channels(kind Kind) (int, error) {
	switch kind {
	case KindStem:
		return f.StemChannels, nil
	case KindMix:
		return f.MixChannels, nil
	case KindRaw:
		return f.RawChannels, nil
	default:
		return 0, services.Wrap(services.ErrInvalidCheckKind, "probe", "conformance", fmt.Sprintf("unknown kind %q", kind), nil)
	}
}

// Conforms reports whether stats satisfy the rule for kind.
func (f Format) Conforms(stats Stats, kind Kind) (bool, error) {
	channels, err := f.Channels(kind)
	if err != nil {
		return false, err
	}
	return stats.SampleRate == f.SampleRate &&
		stats.BitDepth == f.BitDepth &&
		stats.Channels == channels, nil
}

// IsConformant probes path and checks it against format for kind. An unknown
// kind is reported before the file is touched.
func IsConformant(path string, kind Kind, format Format) (bool, error) {
	if _, err := format.Channels(kind); err != nil {
		return false, err
	}
	stats, err := Probe(path)
	if err != nil {
		return false, err
	}
	return format.Conforms(stats, kind)
}
