package alignment

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randomSignal(seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}

func shifted(x []float64, d int) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		j := i - d
		if j >= 0 && j < len(x) {
			out[i] = x[j]
		}
	}
	return out
}

func TestOverlap(t *testing.T) {
	cases := []struct {
		lenA, lenB, k, want int
	}{
		{10, 10, 0, 10},
		{10, 10, 3, 7},
		{10, 10, -3, 7},
		{10, 6, 0, 6},
		{10, 6, 4, 6},
		{10, 6, 5, 5},
		{10, 6, -2, 4},
		{6, 10, 0, 6},
		{6, 10, -4, 6},
		{6, 10, -5, 5},
	}
	for _, tc := range cases {
		require.Equalf(t, tc.want, overlap(tc.lenA, tc.lenB, tc.k), "overlap(%d,%d,%d)", tc.lenA, tc.lenB, tc.k)
	}
}

func TestCrossCorrelateFindsShift(t *testing.T) {
	x := randomSignal(7, 2000)
	for _, d := range []int{0, 3, -3, 40, -250} {
		p, ok := crossCorrelate(x, shifted(x, d), 0.5)
		require.True(t, ok)
		require.Equal(t, -d, p.lag, "delay %d", d)
		require.Greater(t, p.value, 0.0)
	}
}

func TestCrossCorrelateFindsInvertedPeak(t *testing.T) {
	x := randomSignal(11, 1000)
	inv := make([]float64, len(x))
	for i, v := range x {
		inv[i] = -v
	}
	p, ok := crossCorrelate(x, inv, 0.5)
	require.True(t, ok)
	require.Equal(t, 0, p.lag)
	require.Less(t, p.value, 0.0)
}

func TestCrossCorrelateIgnoresLowOverlapLags(t *testing.T) {
	x := randomSignal(3, 1000)
	// A 900 sample shift leaves only 100 overlapping samples.
	p, ok := crossCorrelate(x, shifted(x, 900), 0.5)
	require.True(t, ok)
	require.LessOrEqual(t, absInt(p.lag), 500)
}

func TestCrossCorrelateRejectsDegenerateInput(t *testing.T) {
	_, ok := crossCorrelate(nil, []float64{1, 2}, 0.5)
	require.False(t, ok)
	_, ok = crossCorrelate([]float64{4, 4, 4, 4}, []float64{1, 2, 3, 4}, 0.5)
	require.False(t, ok)
}
