package inclusion_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"multitrack/internal/analysis/inclusion"
	"multitrack/internal/services"
	"multitrack/internal/testsupport"
)

func stemPaths(fx *testsupport.SessionFixture) []string {
	var out []string
	for _, l := range fx.Layout {
		out = append(out, fx.StemPath(l.Stem))
	}
	return out
}

func TestContributionWeightsOfStemsInMix(t *testing.T) {
	fx := testsupport.BuildSession(t, 2, 42, testsupport.DefaultLayout())
	analyzer := inclusion.New(1000, 2, nil)

	weights, err := analyzer.ContributionWeights(context.Background(), stemPaths(fx), fx.MixPath)
	require.NoError(t, err)
	require.Len(t, weights, 4)
	for name, w := range weights {
		require.InDeltaf(t, 1.0, w, 1e-3, "stem %s", name)
		require.True(t, inclusion.CheckWeight(w, inclusion.DefaultThreshold))
	}
}

func TestContributionWeightsOfRawsInStem(t *testing.T) {
	fx := testsupport.BuildSession(t, 2, 43, testsupport.DefaultLayout())
	analyzer := inclusion.New(1000, 2, nil)

	// Stems are stereo copies of the mono raw sum, so each raw weighs 2.
	raws := []string{fx.RawPath("Raw3_1.wav"), fx.RawPath("Raw3_2.wav")}
	weights, err := analyzer.ContributionWeights(context.Background(), raws, fx.StemPath("Stem3.wav"))
	require.NoError(t, err)
	require.InDelta(t, 2.0, weights["Raw3_1.wav"], 1e-3)
	require.InDelta(t, 2.0, weights["Raw3_2.wav"], 1e-3)
}

func TestContributionWeightsScaleWithGain(t *testing.T) {
	dir := t.TempDir()
	noise := testsupport.Noise(5, 44100, 2000)
	target := filepath.Join(dir, "target.wav")
	loud := filepath.Join(dir, "loud.wav")
	quiet := filepath.Join(dir, "quiet.wav")
	unrelated := filepath.Join(dir, "unrelated.wav")
	testsupport.WriteSignal(t, target, testsupport.CD(1), noise)
	testsupport.WriteSignal(t, loud, testsupport.CD(1), testsupport.Scale(noise, 0.5))
	testsupport.WriteSignal(t, quiet, testsupport.CD(1), testsupport.Scale(noise, 0.25))
	testsupport.WriteSignal(t, unrelated, testsupport.CD(1), testsupport.Silence(44100))

	analyzer := inclusion.New(1000, 1, nil)
	w, err := analyzer.ContributionWeights(context.Background(), []string{loud}, target)
	require.NoError(t, err)
	wq, err := analyzer.ContributionWeights(context.Background(), []string{quiet}, target)
	require.NoError(t, err)
	require.InDelta(t, 2.0, w["loud.wav"], 1e-2)
	require.InDelta(t, 4.0, wq["quiet.wav"], 2e-2)

	ws, err := analyzer.ContributionWeights(context.Background(), []string{unrelated}, target)
	require.NoError(t, err)
	require.Equal(t, 0.0, ws["unrelated.wav"])
	require.False(t, inclusion.CheckWeight(ws["unrelated.wav"], inclusion.DefaultThreshold))
}

// blocks keeps the 20 ms blocks of signal whose index has the given parity.
// Blocks fall on envelope bin edges at 1 kHz, so two gated signals never
// share a bin.
func blocks(signal []float64, parity int) []float64 {
	const block = 882
	out := make([]float64, len(signal))
	for i, v := range signal {
		if (i/block)%2 == parity {
			out[i] = v
		}
	}
	return out
}

func TestContributionWeightFallsWithGainInTarget(t *testing.T) {
	dir := t.TempDir()
	frames := 2 * 44100
	a := blocks(testsupport.Noise(11, frames, 8000), 0)
	b := blocks(testsupport.Noise(12, frames, 8000), 1)
	pathA := filepath.Join(dir, "a.wav")
	pathB := filepath.Join(dir, "b.wav")
	testsupport.WriteSignal(t, pathA, testsupport.CD(1), a)
	testsupport.WriteSignal(t, pathB, testsupport.CD(1), b)

	analyzer := inclusion.New(1000, 2, nil)
	tests := []struct {
		gain     float64
		included bool
	}{
		{gain: 1, included: true},
		{gain: 0.1, included: true},
		{gain: 0.005, included: false},
		{gain: 0, included: false},
	}
	previous := 2.0
	for _, tc := range tests {
		target := filepath.Join(dir, "target.wav")
		testsupport.WriteSignal(t, target, testsupport.CD(1), testsupport.Sum(a, testsupport.Scale(b, tc.gain)))

		weights, err := analyzer.ContributionWeights(context.Background(), []string{pathA, pathB}, target)
		require.NoErrorf(t, err, "gain %g", tc.gain)
		wb := weights["b.wav"]
		require.InDeltaf(t, 1.0, weights["a.wav"], 1e-3, "gain %g", tc.gain)
		require.InDeltaf(t, tc.gain, wb, 5e-4, "gain %g", tc.gain)
		require.Lessf(t, wb, previous, "gain %g", tc.gain)
		require.Equalf(t, tc.included, inclusion.CheckWeight(wb, inclusion.DefaultThreshold), "gain %g weight %g", tc.gain, wb)
		previous = wb
	}
}

func TestContributionWeightsShapeMismatch(t *testing.T) {
	fx := testsupport.BuildSession(t, 2, 44, testsupport.DefaultLayout(),
		testsupport.WithTruncatedRaw("Raw1.wav", 100))
	analyzer := inclusion.New(1000, 2, nil)

	_, err := analyzer.ContributionWeights(context.Background(), []string{fx.RawPath("Raw1.wav")}, fx.StemPath("Stem1.wav"))
	require.True(t, errors.Is(err, services.ErrShapeMismatch), "got %v", err)
}

func TestContributionWeightsEmptyComponents(t *testing.T) {
	analyzer := inclusion.New(1000, 1, nil)
	w, err := analyzer.ContributionWeights(context.Background(), nil, "missing.wav")
	require.NoError(t, err)
	require.Empty(t, w)
}
