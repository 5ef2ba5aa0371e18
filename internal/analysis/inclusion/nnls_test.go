package inclusion_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"multitrack/internal/analysis/inclusion"
)

// normal builds AᵀA and Aᵀb for a column-major design.
func normal(cols [][]float64, b []float64) (*mat.SymDense, []float64) {
	n := len(cols)
	gram := mat.NewSymDense(n, nil)
	atb := make([]float64, n)
	for i := range cols {
		for t := range b {
			atb[i] += cols[i][t] * b[t]
		}
		for j := i; j < n; j++ {
			var s float64
			for t := range b {
				s += cols[i][t] * cols[j][t]
			}
			gram.SetSym(i, j, s)
		}
	}
	return gram, atb
}

func TestNNLSRecoversNonNegativeSolution(t *testing.T) {
	cols := [][]float64{
		{1, 0, 0, 1, 2},
		{0, 1, 0, 1, 0},
		{0, 0, 1, 0, 1},
	}
	want := []float64{0.5, 2, 1.25}
	b := make([]float64, 5)
	for i, c := range cols {
		for t := range b {
			b[t] += want[i] * c[t]
		}
	}
	gram, atb := normal(cols, b)
	x, err := inclusion.NNLS(gram, atb)
	require.NoError(t, err)
	require.InDeltaSlice(t, want, x, 1e-6)
}

func TestNNLSClampsNegativeCoefficients(t *testing.T) {
	// Unconstrained least squares wants a negative weight on the second column.
	cols := [][]float64{
		{1, 1, 0},
		{0, 1, 1},
	}
	b := []float64{2, 1, -1}
	gram, atb := normal(cols, b)
	x, err := inclusion.NNLS(gram, atb)
	require.NoError(t, err)
	require.InDelta(t, 1.5, x[0], 1e-6)
	require.Equal(t, 0.0, x[1])
}

func TestNNLSIsScaleInvariant(t *testing.T) {
	// The backtracking step pins the first weight to zero; the second must
	// survive at every input scale.
	for _, scale := range []float64{1, 1e3, 1e6, 1e-6} {
		cols := [][]float64{
			{scale, scale},
			{scale, 0.9 * scale},
		}
		b := []float64{scale, 0.5 * scale}
		gram, atb := normal(cols, b)
		x, err := inclusion.NNLS(gram, atb)
		require.NoErrorf(t, err, "scale %g", scale)
		require.Equalf(t, 0.0, x[0], "scale %g", scale)
		require.InDeltaf(t, 1.45/1.81, x[1], 1e-6, "scale %g", scale)
	}
}

func TestNNLSZeroColumnAndZeroTarget(t *testing.T) {
	cols := [][]float64{
		{1, 2, 3},
		{0, 0, 0},
	}
	gram, atb := normal(cols, []float64{2, 4, 6})
	x, err := inclusion.NNLS(gram, atb)
	require.NoError(t, err)
	require.InDelta(t, 2, x[0], 1e-6)
	require.Equal(t, 0.0, x[1])

	gram, atb = normal(cols, []float64{0, 0, 0})
	x, err = inclusion.NNLS(gram, atb)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0}, x)
}

func TestNNLSRejectsMismatchedDims(t *testing.T) {
	_, err := inclusion.NNLS(mat.NewSymDense(2, nil), []float64{1})
	require.Error(t, err)
}

func TestCheckWeight(t *testing.T) {
	require.True(t, inclusion.CheckWeight(0.01, inclusion.DefaultThreshold))
	require.True(t, inclusion.CheckWeight(1, inclusion.DefaultThreshold))
	require.False(t, inclusion.CheckWeight(0.0099, inclusion.DefaultThreshold))
	require.False(t, inclusion.CheckWeight(0, inclusion.DefaultThreshold))
}
