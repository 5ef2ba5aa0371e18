package inclusion

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"multitrack/internal/logging"
	"multitrack/internal/media/downmix"
	"multitrack/internal/media/probe"
	"multitrack/internal/services"
)

// DefaultThreshold is the smallest weight that still counts as present.
const DefaultThreshold = 0.01

// CheckWeight reports whether w clears threshold.
func CheckWeight(w, threshold float64) bool {
	return w >= threshold
}

// Analyzer computes contribution weights. It is safe for concurrent use.
type Analyzer struct {
	rate    int
	workers int
	logger  *slog.Logger
}

// New returns an Analyzer that compares envelopes at rate samples per second,
// decoding up to workers files at once.
func New(rate, workers int, logger *slog.Logger) *Analyzer {
	if rate <= 0 {
		rate = 1000
	}
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{rate: rate, workers: workers, logger: logging.NewComponentLogger(logger, "inclusion")}
}

// ContributionWeights returns the non-negative weight of every component in
// target, keyed by component basename. Every component must have the same
// sample count as target, otherwise services.ErrShapeMismatch is returned.
func (a *Analyzer) ContributionWeights(ctx context.Context, components []string, target string) (map[string]float64, error) {
	if len(components) == 0 {
		return map[string]float64{}, nil
	}
	targetStats, err := probe.Probe(target)
	if err != nil {
		return nil, err
	}
	for _, path := range components {
		stats, err := probe.Probe(path)
		if err != nil {
			return nil, err
		}
		if stats.NumSamples != targetStats.NumSamples {
			return nil, services.Wrap(services.ErrShapeMismatch, "inclusion", "weights",
				fmt.Sprintf("%s has %d samples, %s has %d", filepath.Base(path), stats.NumSamples, filepath.Base(target), targetStats.NumSamples), nil)
		}
	}

	paths := append([]string{target}, components...)
	envelopes := make([][]float64, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, path := range paths {
		g.Go(func() error {
			env, err := downmix.Envelope(gctx, path, a.rate)
			if err != nil {
				return err
			}
			envelopes[i] = env.Samples
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := envelopes[0]
	cols := envelopes[1:]
	for i, col := range cols {
		if len(col) != len(b) {
			return nil, services.Wrap(services.ErrShapeMismatch, "inclusion", "weights",
				fmt.Sprintf("%s envelope has %d samples, target has %d", filepath.Base(components[i]), len(col), len(b)), nil)
		}
	}

	n := len(cols)
	gram := mat.NewSymDense(n, nil)
	atb := make([]float64, n)
	for i := 0; i < n; i++ {
		atb[i] = dot(cols[i], b)
		for j := i; j < n; j++ {
			gram.SetSym(i, j, dot(cols[i], cols[j]))
		}
	}
	x, err := NNLS(gram, atb)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "inclusion", "nnls", filepath.Base(target), err)
	}

	weights := make(map[string]float64, n)
	for i, path := range components {
		weights[filepath.Base(path)] = x[i]
	}
	a.logger.Debug("contribution weights computed",
		logging.String("target", filepath.Base(target)),
		logging.Int("components", n),
	)
	return weights, nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
