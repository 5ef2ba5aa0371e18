package probe

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"

	"multitrack/internal/services"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

var (
	errNotWAV    = errors.New("not a RIFF/WAVE file")
	errNotPCM    = errors.New("not integer PCM")
	errNoPCMData = errors.New("missing data chunk")
)

// Stats describes the technical parameters of a WAV file.
type Stats struct {
	Channels   int     `json:"channels"`
	BitDepth   int     `json:"bit_depth"`
	SampleRate int     `json:"sample_rate"`
	NumSamples int64   `json:"num_samples"`
	Duration   float64 `json:"duration_seconds"`
}

// FrameBytes returns the size of one interleaved sample frame.
func (s Stats) FrameBytes() int {
	return s.Channels * ((s.BitDepth + 7) / 8)
}

// Probe reads the header and data chunk size of a PCM WAV file. Sample data
// is not decoded. Failures are marked services.ErrUnreadableFile.
func Probe(path string) (Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return Stats{}, services.Wrap(services.ErrUnreadableFile, "probe", "open", path, err)
	}
	defer file.Close()

	stats, err := readStats(wav.NewDecoder(file))
	if err != nil {
		return Stats{}, services.Wrap(services.ErrUnreadableFile, "probe", "header", path, err)
	}
	return stats, nil
}

// DurationSeconds returns num_samples / sample_rate.
func DurationSeconds(path string) (float64, error) {
	stats, err := Probe(path)
	if err != nil {
		return 0, err
	}
	return stats.Duration, nil
}

func readStats(dec *wav.Decoder) (Stats, error) {
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return Stats{}, err
		}
		return Stats{}, errNotWAV
	}
	switch dec.WavAudioFormat {
	case wavFormatPCM, wavFormatExtensible:
	default:
		return Stats{}, fmt.Errorf("%w: format tag %d", errNotPCM, dec.WavAudioFormat)
	}
	stats := Stats{
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		SampleRate: int(dec.SampleRate),
	}
	if stats.Channels <= 0 || stats.SampleRate <= 0 {
		return Stats{}, errNotWAV
	}
	switch stats.BitDepth {
	case 8, 16, 24, 32:
	default:
		return Stats{}, fmt.Errorf("%w: %d-bit samples", errNotPCM, stats.BitDepth)
	}
	if err := dec.FwdToPCM(); err != nil {
		return Stats{}, fmt.Errorf("%w: %v", errNoPCMData, err)
	}
	stats.NumSamples = dec.PCMLen() / int64(stats.FrameBytes())
	stats.Duration = float64(stats.NumSamples) / float64(stats.SampleRate)
	return stats, nil
}
