package probe

import "math"

// IsSilent decodes path in frames of frameSeconds and reports whether every
// sample stays strictly below threshold on a 16-bit scale. It returns false as
// soon as one frame contains a louder sample.
func IsSilent(path string, threshold int, frameSeconds float64) (bool, error) {
	reader, err := Open(path)
	if err != nil {
		return false, err
	}
	defer reader.Close()

	stats := reader.Stats()
	frameSize := int(math.Round(frameSeconds * float64(stats.SampleRate)))
	if frameSize < 1 {
		frameSize = 1
	}
	for {
		samples, err := reader.Read(frameSize)
		if err != nil {
			return false, err
		}
		if len(samples) == 0 {
			return true, nil
		}
		if frameExceeds(samples, threshold, stats.BitDepth) {
			return false, nil
		}
	}
}

func frameExceeds(samples []int, threshold, bitDepth int) bool {
	for _, s := range samples {
		v := to16(s, bitDepth)
		if v < 0 {
			v = -v
		}
		if v >= threshold {
			return true
		}
	}
	return false
}
