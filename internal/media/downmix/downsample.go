package downmix

import (
	"context"
	"fmt"
	"math"

	"multitrack/internal/media/probe"
)

const readFrames = 16384

// Signal is a mono sequence at Rate samples per second.
type Signal struct {
	Samples []float64
	Rate    int
}

// Seconds returns the signal length in seconds.
func (s Signal) Seconds() float64 {
	if s.Rate == 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.Rate)
}

// monoFunc reduces one interleaved frame to a single value. scale is the
// full-scale magnitude for the file's bit depth.
type monoFunc func(frame []int, scale float64) float64

func channelMean(frame []int, scale float64) float64 {
	var sum float64
	for _, v := range frame {
		sum += float64(v)
	}
	return sum / float64(len(frame)) / scale
}

func channelSumMagnitude(frame []int, scale float64) float64 {
	var sum float64
	for _, v := range frame {
		sum += float64(v)
	}
	return math.Abs(sum) / scale
}

// Downsample returns the whole file as a mono signal at targetRate.
func Downsample(ctx context.Context, path string, targetRate int) (Signal, error) {
	return stream(ctx, path, targetRate, 0, 0, channelMean)
}

// DownsampleWindow returns lengthSeconds of the file starting at
// offsetSeconds as a mono signal at targetRate. The window is truncated at the
// end of the file. A non-positive length means "to the end".
func DownsampleWindow(ctx context.Context, path string, targetRate int, offsetSeconds, lengthSeconds float64) (Signal, error) {
	return stream(ctx, path, targetRate, offsetSeconds, lengthSeconds, channelMean)
}

// Envelope returns the amplitude-magnitude envelope of the whole file at
// targetRate: channels are summed, the magnitude taken, then box-averaged.
func Envelope(ctx context.Context, path string, targetRate int) (Signal, error) {
	return stream(ctx, path, targetRate, 0, 0, channelSumMagnitude)
}

func stream(ctx context.Context, path string, targetRate int, offsetSeconds, lengthSeconds float64, mono monoFunc) (Signal, error) {
	if targetRate <= 0 {
		return Signal{}, fmt.Errorf("downsample %s: target rate must be positive", path)
	}
	reader, err := probe.Open(path)
	if err != nil {
		return Signal{}, err
	}
	defer reader.Close()

	stats := reader.Stats()
	scale := reader.FullScale()
	skip := int64(math.Round(math.Max(offsetSeconds, 0) * float64(stats.SampleRate)))
	remaining := stats.NumSamples - skip
	if lengthSeconds > 0 {
		remaining = min(remaining, int64(math.Round(lengthSeconds*float64(stats.SampleRate))))
	}
	if remaining < 0 {
		remaining = 0
	}

	dec := newDecimator(stats.SampleRate, targetRate, remaining)
	channels := stats.Channels
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return Signal{}, err
		}
		samples, err := reader.Read(readFrames)
		if err != nil {
			return Signal{}, err
		}
		if len(samples) == 0 {
			break
		}
		frames := int64(len(samples) / channels)
		start := int64(0)
		if skip > 0 {
			if skip >= frames {
				skip -= frames
				continue
			}
			start = skip
			skip = 0
		}
		end := min(frames, start+remaining)
		for i := start; i < end; i++ {
			dec.push(mono(samples[i*int64(channels):(i+1)*int64(channels)], scale))
		}
		remaining -= end - start
	}
	return Signal{Samples: dec.flush(), Rate: dec.rate()}, nil
}
