package testsupport

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVSpec describes the header of a fixture file.
type WAVSpec struct {
	SampleRate int
	BitDepth   int
	Channels   int
}

// CD is 44.1 kHz 16-bit with the given channel count.
func CD(channels int) WAVSpec {
	return WAVSpec{SampleRate: 44100, BitDepth: 16, Channels: channels}
}

// WriteWAV writes interleaved integer samples as an integer PCM WAV file.
func WriteWAV(t testing.TB, path string, spec WAVSpec, data []int) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, spec.SampleRate, spec.BitDepth, spec.Channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: spec.Channels, SampleRate: spec.SampleRate},
		Data:           data,
		SourceBitDepth: spec.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("finalize %s: %v", path, err)
	}
}

// WriteSignal writes one or more equal-length channels (already on the
// integer scale of spec.BitDepth) to path.
func WriteSignal(t testing.TB, path string, spec WAVSpec, channels ...[]float64) {
	t.Helper()
	if len(channels) != spec.Channels {
		t.Fatalf("write %s: got %d channels, spec wants %d", path, len(channels), spec.Channels)
	}
	WriteWAV(t, path, spec, Interleave(spec.BitDepth, channels...))
}

// Interleave rounds and clamps channel data into interleaved integer frames.
func Interleave(bitDepth int, channels ...[]float64) []int {
	if len(channels) == 0 {
		return nil
	}
	limit := float64(int64(1)<<(bitDepth-1)) - 1
	frames := len(channels[0])
	out := make([]int, frames*len(channels))
	for i := 0; i < frames; i++ {
		for c, ch := range channels {
			v := math.Round(ch[i])
			if v > limit {
				v = limit
			} else if v < -limit-1 {
				v = -limit - 1
			}
			out[i*len(channels)+c] = int(v)
		}
	}
	return out
}

// Noise returns seeded uniform noise in [-amplitude, amplitude].
func Noise(seed int64, frames int, amplitude float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, frames)
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Silence returns frames zero samples.
func Silence(frames int) []float64 {
	return make([]float64, frames)
}

// Delay shifts signal later by frames, zero-filling the start and keeping the length.
func Delay(signal []float64, frames int) []float64 {
	out := make([]float64, len(signal))
	if frames >= len(signal) {
		return out
	}
	copy(out[frames:], signal[:len(signal)-frames])
	return out
}

// Rotate circularly shifts signal later by frames.
func Rotate(signal []float64, frames int) []float64 {
	n := len(signal)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	frames = ((frames % n) + n) % n
	for i, v := range signal {
		out[(i+frames)%n] = v
	}
	return out
}

// Scale multiplies every sample by gain into a new slice.
func Scale(signal []float64, gain float64) []float64 {
	out := make([]float64, len(signal))
	for i, v := range signal {
		out[i] = v * gain
	}
	return out
}

// Sum adds equal-length signals sample for sample.
func Sum(signals ...[]float64) []float64 {
	if len(signals) == 0 {
		return nil
	}
	out := make([]float64, len(signals[0]))
	for _, s := range signals {
		for i := range out {
			out[i] += s[i]
		}
	}
	return out
}
