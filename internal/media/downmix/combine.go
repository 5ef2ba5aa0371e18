package downmix

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"multitrack/internal/media/probe"
)

// Mode selects how Combine joins its inputs.
type Mode string

const (
	// ModeSum mixes inputs sample for sample.
	ModeSum Mode = "sum"
	// ModeConcatenate appends inputs one after another.
	ModeConcatenate Mode = "concatenate"
)

const (
	combineBitDepth = 32
	// combineScale leaves 7 bits of headroom so up to 128 full-scale inputs
	// can be summed without clipping.
	combineScale = 1 << 24
)

// ErrNoInputs is returned when Combine is called with an empty path list.
var ErrNoInputs = errors.New("downmix: no input files")

// Combine joins paths into a mono 32-bit PCM WAV in tempDir (the system temp
// dir when empty). Each input is averaged to mono first. All inputs must share
// the first input's sample rate. The returned cleanup removes the file and is
// safe to call more than once.
func Combine(ctx context.Context, paths []string, mode Mode, tempDir string) (string, func(), error) {
	if len(paths) == 0 {
		return "", func() {}, ErrNoInputs
	}
	switch mode {
	case ModeSum, ModeConcatenate:
	default:
		return "", func() {}, fmt.Errorf("downmix: unknown mode %q", mode)
	}

	readers := make([]*probe.Reader, 0, len(paths))
	defer func() {
		for _, r := range readers {
			_ = r.Close()
		}
	}()
	for _, path := range paths {
		r, err := probe.Open(path)
		if err != nil {
			return "", func() {}, err
		}
		readers = append(readers, r)
	}
	rate := readers[0].Stats().SampleRate
	for i, r := range readers[1:] {
		if got := r.Stats().SampleRate; got != rate {
			return "", func() {}, fmt.Errorf("downmix: %s has sample rate %d, expected %d", filepath.Base(paths[i+1]), got, rate)
		}
	}

	tmp, err := os.CreateTemp(tempDir, "multitrack-combine-*.wav")
	if err != nil {
		return "", func() {}, fmt.Errorf("downmix: create temp file: %w", err)
	}
	name := tmp.Name()
	cleanup := func() { _ = os.Remove(name) }

	enc := wav.NewEncoder(tmp, rate, combineBitDepth, 1, 1)
	out := &audio.IntBuffer{Format: &audio.Format{NumChannels: 1, SampleRate: rate}, SourceBitDepth: combineBitDepth}
	switch mode {
	case ModeSum:
		err = writeSum(ctx, enc, out, readers)
	case ModeConcatenate:
		err = writeConcat(ctx, enc, out, readers)
	}
	if err == nil {
		err = enc.Close()
	}
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("downmix: combine %d files: %w", len(paths), err)
	}
	return name, cleanup, nil
}

// WithCombined runs fn with a combined file and removes it on every exit path.
func WithCombined(ctx context.Context, paths []string, mode Mode, tempDir string, fn func(path string) error) error {
	path, cleanup, err := Combine(ctx, paths, mode, tempDir)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(path)
}

func writeSum(ctx context.Context, enc *wav.Encoder, out *audio.IntBuffer, readers []*probe.Reader) error {
	acc := make([]float64, readFrames)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		clear(acc)
		longest := 0
		for _, r := range readers {
			samples, err := r.Read(readFrames)
			if err != nil {
				return err
			}
			channels := r.Stats().Channels
			scale := r.FullScale()
			frames := len(samples) / channels
			for i := 0; i < frames; i++ {
				acc[i] += channelMean(samples[i*channels:(i+1)*channels], scale)
			}
			longest = max(longest, frames)
		}
		if longest == 0 {
			return nil
		}
		if err := encodeChunk(enc, out, acc[:longest]); err != nil {
			return err
		}
	}
}

func writeConcat(ctx context.Context, enc *wav.Encoder, out *audio.IntBuffer, readers []*probe.Reader) error {
	acc := make([]float64, readFrames)
	for _, r := range readers {
		channels := r.Stats().Channels
		scale := r.FullScale()
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			samples, err := r.Read(readFrames)
			if err != nil {
				return err
			}
			frames := len(samples) / channels
			if frames == 0 {
				break
			}
			for i := 0; i < frames; i++ {
				acc[i] = channelMean(samples[i*channels:(i+1)*channels], scale)
			}
			if err := encodeChunk(enc, out, acc[:frames]); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeChunk(enc *wav.Encoder, out *audio.IntBuffer, values []float64) error {
	if cap(out.Data) < len(values) {
		out.Data = make([]int, len(values))
	}
	out.Data = out.Data[:len(values)]
	for i, v := range values {
		scaled := math.Round(v * combineScale)
		out.Data[i] = int(math.Max(math.MinInt32, math.Min(math.MaxInt32, scaled)))
	}
	return enc.Write(out)
}
