package alignment

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// peak is the strongest normalized correlation value and the lag it occurs at.
// A negative lag means the group runs later than the target.
type peak struct {
	lag   int
	value float64
}

// crossCorrelate returns the lag k maximizing |r(k)| / overlap(k), where
// r(k) = sum_i target[i+k] * group[i]. Both inputs are mean-removed first.
// Lags whose overlap is below minOverlapRatio times the shorter input are not
// considered. ok is false when either input is empty or has no variance.
func crossCorrelate(target, group []float64, minOverlapRatio float64) (peak, bool) {
	lenA, lenB := len(target), len(group)
	if lenA == 0 || lenB == 0 {
		return peak{}, false
	}
	a, varA := demean(target)
	b, varB := demean(group)
	if varA == 0 || varB == 0 {
		return peak{}, false
	}

	n := nextPow2(lenA + lenB - 1)
	fft := fourier.NewFFT(n)
	padA := make([]float64, n)
	padB := make([]float64, n)
	copy(padA, a)
	copy(padB, b)
	ca := fft.Coefficients(nil, padA)
	cb := fft.Coefficients(nil, padB)
	for i := range ca {
		ca[i] *= complexConj(cb[i])
	}
	r := fft.Sequence(nil, ca)

	minOverlap := int(math.Ceil(minOverlapRatio * float64(min(lenA, lenB))))
	minOverlap = max(minOverlap, 1)

	best := peak{}
	found := false
	for k := -(lenB - 1); k <= lenA-1; k++ {
		ov := overlap(lenA, lenB, k)
		if ov < minOverlap {
			continue
		}
		idx := k
		if k < 0 {
			idx = n + k
		}
		v := r[idx] / float64(n) / float64(ov)
		switch {
		case !found:
			best, found = peak{lag: k, value: v}, true
		case math.Abs(v) > math.Abs(best.value):
			best = peak{lag: k, value: v}
		case math.Abs(v) == math.Abs(best.value) && absInt(k) < absInt(best.lag):
			best = peak{lag: k, value: v}
		}
	}
	return best, found
}

// overlap counts the indices i with 0 <= i < lenB and 0 <= i+k < lenA.
func overlap(lenA, lenB, k int) int {
	return min(lenB, lenA-k) - max(0, -k)
}

func demean(x []float64) ([]float64, float64) {
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	out := make([]float64, len(x))
	var energy float64
	for i, v := range x {
		out[i] = v - mean
		energy += out[i] * out[i]
	}
	return out, energy
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func complexConj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
