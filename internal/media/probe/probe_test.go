package probe_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"multitrack/internal/media/probe"
	"multitrack/internal/services"
	"multitrack/internal/testsupport"
)

func TestProbeReadsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stem.wav")
	frames := 44100 / 2
	sig := testsupport.Noise(1, frames, 1000)
	testsupport.WriteSignal(t, path, testsupport.CD(2), sig, sig)

	stats, err := probe.Probe(path)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if stats.Channels != 2 || stats.BitDepth != 16 || stats.SampleRate != 44100 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.NumSamples != int64(frames) {
		t.Fatalf("num samples = %d, want %d", stats.NumSamples, frames)
	}
	if math.Abs(stats.Duration-0.5) > 1e-9 {
		t.Fatalf("duration = %v, want 0.5", stats.Duration)
	}
	d, err := probe.DurationSeconds(path)
	if err != nil || d != stats.Duration {
		t.Fatalf("DurationSeconds = %v, %v", d, err)
	}
}

func TestProbeRejectsNonWAV(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(garbage, []byte("definitely not a riff header"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, path := range []string{garbage, filepath.Join(dir, "missing.wav")} {
		if _, err := probe.Probe(path); !errors.Is(err, services.ErrUnreadableFile) {
			t.Fatalf("Probe(%s): expected ErrUnreadableFile, got %v", filepath.Base(path), err)
		}
	}
}

func TestIsConformant(t *testing.T) {
	dir := t.TempDir()
	frames := 4410
	mono := testsupport.Noise(2, frames, 1000)

	files := map[string]testsupport.WAVSpec{
		"stereo16.wav":  testsupport.CD(2),
		"mono16.wav":    testsupport.CD(1),
		"stereo48k.wav": {SampleRate: 48000, BitDepth: 16, Channels: 2},
		"stereo24.wav":  {SampleRate: 44100, BitDepth: 24, Channels: 2},
	}
	for name, spec := range files {
		channels := make([][]float64, spec.Channels)
		for i := range channels {
			channels[i] = mono
		}
		testsupport.WriteSignal(t, filepath.Join(dir, name), spec, channels...)
	}

	format := probe.DefaultFormat()
	cases := []struct {
		file string
		kind probe.Kind
		want bool
	}{
		{"stereo16.wav", probe.KindStem, true},
		{"stereo16.wav", probe.KindMix, true},
		{"stereo16.wav", probe.KindRaw, false},
		{"mono16.wav", probe.KindRaw, true},
		{"mono16.wav", probe.KindStem, false},
		{"stereo48k.wav", probe.KindMix, false},
		{"stereo24.wav", probe.KindStem, false},
	}
	for _, tc := range cases {
		got, err := probe.IsConformant(filepath.Join(dir, tc.file), tc.kind, format)
		if err != nil {
			t.Fatalf("IsConformant(%s, %s): %v", tc.file, tc.kind, err)
		}
		if got != tc.want {
			t.Fatalf("IsConformant(%s, %s) = %v, want %v", tc.file, tc.kind, got, tc.want)
		}
	}
}

func TestIsConformantRejectsUnknownKind(t *testing.T) {
	_, err := probe.IsConformant("/does/not/matter.wav", probe.Kind("bus"), probe.DefaultFormat())
	if !errors.Is(err, services.ErrInvalidCheckKind) {
		t.Fatalf("expected ErrInvalidCheckKind, got %v", err)
	}
}

func TestIsSilent(t *testing.T) {
	dir := t.TempDir()
	frames := 44100 * 2

	quiet := make([]float64, frames)
	for i := range quiet {
		quiet[i] = float64(i%31 - 15) // |v| <= 15
	}
	loudTail := testsupport.Silence(frames)
	loudTail[frames-1] = 16

	files := map[string]struct {
		signal []float64
		want   bool
	}{
		"zeros.wav":    {testsupport.Silence(frames), true},
		"quiet.wav":    {quiet, true},
		"loudtail.wav": {loudTail, false},
		"noise.wav":    {testsupport.Noise(3, frames, 2000), false},
	}
	for name, tc := range files {
		path := filepath.Join(dir, name)
		testsupport.WriteSignal(t, path, testsupport.CD(1), tc.signal)
		for attempt := 0; attempt < 2; attempt++ {
			got, err := probe.IsSilent(path, 16, 1.0)
			if err != nil {
				t.Fatalf("IsSilent(%s): %v", name, err)
			}
			if got != tc.want {
				t.Fatalf("IsSilent(%s) attempt %d = %v, want %v", name, attempt, got, tc.want)
			}
		}
	}
}

func TestIsSilentRescalesBitDepth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiet24.wav")
	sig := testsupport.Silence(44100)
	// 15 on the 16-bit scale is 15*256 at 24 bits.
	sig[100] = 15 * 256
	testsupport.WriteSignal(t, path, testsupport.WAVSpec{SampleRate: 44100, BitDepth: 24, Channels: 1}, sig)
	silent, err := probe.IsSilent(path, 16, 1.0)
	if err != nil {
		t.Fatalf("IsSilent: %v", err)
	}
	if !silent {
		t.Fatal("expected 24-bit sample below threshold to count as silent")
	}
}

func TestReaderStreamsAllFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.wav")
	sig := testsupport.Noise(4, 1000, 500)
	testsupport.WriteSignal(t, path, testsupport.CD(1), sig)

	r, err := probe.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	total := 0
	for {
		samples, err := r.Read(300)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if len(samples) == 0 {
			break
		}
		for i, s := range samples {
			if want := int(math.Round(sig[total+i])); s != want {
				t.Fatalf("sample %d = %d, want %d", total+i, s, want)
			}
		}
		total += len(samples)
	}
	if total != 1000 {
		t.Fatalf("read %d frames, want 1000", total)
	}
}
