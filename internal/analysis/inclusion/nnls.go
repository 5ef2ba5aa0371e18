package inclusion

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrNoConvergence is returned when the active-set iteration does not settle.
var ErrNoConvergence = errors.New("nnls: did not converge")

// ridge is added to the diagonal of every passive-set solve, relative to the
// largest diagonal entry of the Gram matrix.
const ridge = 1e-12

// dropEps is the relative size, against the largest passive-set solution
// entry, below which a weight leaves the passive set. Weights are unitless,
// so the gradient tolerance cannot be used here.
const dropEps = 1e-12

// NNLS solves min ||Ax - b|| subject to x >= 0 given the normal equations
// gram = AᵀA and atb = Aᵀb, using the Lawson-Hanson active-set method.
func NNLS(gram mat.Matrix, atb []float64) ([]float64, error) {
	r, c := gram.Dims()
	if r != c || r != len(atb) {
		return nil, fmt.Errorf("nnls: gram is %dx%d, atb has %d entries", r, c, len(atb))
	}
	n := r
	x := make([]float64, n)
	if n == 0 {
		return x, nil
	}

	var maxDiag, maxAtb float64
	for i := 0; i < n; i++ {
		maxDiag = math.Max(maxDiag, gram.At(i, i))
		maxAtb = math.Max(maxAtb, math.Abs(atb[i]))
	}
	if maxAtb == 0 {
		return x, nil
	}
	tol := 1e-10 * maxAtb * float64(n)
	damp := ridge * maxDiag

	passive := make([]bool, n)
	w := make([]float64, n)
	gradient := func() {
		for i := 0; i < n; i++ {
			s := atb[i]
			for j := 0; j < n; j++ {
				s -= gram.At(i, j) * x[j]
			}
			w[i] = s
		}
	}

	maxIter := 3 * n
	for iter := 0; ; iter++ {
		if iter > maxIter {
			return nil, ErrNoConvergence
		}
		gradient()
		j, best := -1, tol
		for i := 0; i < n; i++ {
			if !passive[i] && w[i] > best {
				j, best = i, w[i]
			}
		}
		if j < 0 {
			return x, nil
		}
		passive[j] = true

		for inner := 0; ; inner++ {
			if inner > maxIter {
				return nil, ErrNoConvergence
			}
			z, err := solvePassive(gram, atb, passive, damp)
			if err != nil {
				return nil, err
			}
			feasible := true
			for i := 0; i < n; i++ {
				if passive[i] && z[i] <= 0 {
					feasible = false
					break
				}
			}
			if feasible {
				copy(x, z)
				break
			}

			alpha := math.Inf(1)
			var zScale float64
			for i := 0; i < n; i++ {
				if passive[i] {
					zScale = math.Max(zScale, math.Abs(z[i]))
				}
				if !passive[i] || z[i] > 0 {
					continue
				}
				if d := x[i] - z[i]; d > 0 {
					alpha = math.Min(alpha, x[i]/d)
				} else {
					alpha = 0
				}
			}
			for i := 0; i < n; i++ {
				x[i] += alpha * (z[i] - x[i])
				if passive[i] && x[i] <= dropEps*zScale {
					passive[i] = false
					x[i] = 0
				}
			}
		}
	}
}

// solvePassive solves the normal equations restricted to the passive set and
// returns a full-length vector that is zero outside it.
func solvePassive(gram mat.Matrix, atb []float64, passive []bool, damp float64) ([]float64, error) {
	idx := make([]int, 0, len(passive))
	for i, p := range passive {
		if p {
			idx = append(idx, i)
		}
	}
	k := len(idx)
	out := make([]float64, len(passive))
	if k == 0 {
		return out, nil
	}
	sub := mat.NewDense(k, k, nil)
	rhs := mat.NewVecDense(k, nil)
	for a, i := range idx {
		rhs.SetVec(a, atb[i])
		for b, j := range idx {
			v := gram.At(i, j)
			if a == b {
				v += damp
			}
			sub.Set(a, b, v)
		}
	}
	var sol mat.VecDense
	if err := sol.SolveVec(sub, rhs); err != nil {
		return nil, fmt.Errorf("nnls: passive solve: %w", err)
	}
	for a, i := range idx {
		out[i] = sol.AtVec(a)
	}
	return out, nil
}
