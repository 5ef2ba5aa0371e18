package alignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"multitrack/internal/logging"
	"multitrack/internal/media/downmix"
	"multitrack/internal/media/probe"
	"multitrack/internal/services"
)

// Options tunes the analysis.
type Options struct {
	// AnalysisRate is the rate both windows are downsampled to.
	AnalysisRate int
	// WindowSeconds is the length of the compared window.
	WindowSeconds float64
	// Tolerance is the largest |lag|, in analysis samples, that still counts
	// as aligned.
	Tolerance int
	// MinOverlapRatio restricts the lag search to lags where at least this
	// fraction of the shorter window overlaps.
	MinOverlapRatio float64
	// TempDir receives the combined file. Empty means the system temp dir.
	TempDir string
}

// DefaultOptions returns 1 kHz analysis over a 30 second window with a
// five sample tolerance.
func DefaultOptions() Options {
	return Options{
		AnalysisRate:    1000,
		WindowSeconds:   30,
		Tolerance:       5,
		MinOverlapRatio: 0.5,
	}
}

// Result describes one alignment measurement.
type Result struct {
	Lag     int     `json:"lag"`
	Peak    float64 `json:"peak"`
	Aligned bool    `json:"aligned"`
}

// Analyzer runs alignment checks. It is safe for concurrent use.
type Analyzer struct {
	opts   Options
	logger *slog.Logger
}

// New builds an Analyzer. Zero option fields fall back to DefaultOptions.
func New(opts Options, logger *slog.Logger) *Analyzer {
	def := DefaultOptions()
	if opts.AnalysisRate <= 0 {
		opts.AnalysisRate = def.AnalysisRate
	}
	if opts.WindowSeconds <= 0 {
		opts.WindowSeconds = def.WindowSeconds
	}
	if opts.Tolerance < 0 {
		opts.Tolerance = def.Tolerance
	}
	if opts.MinOverlapRatio <= 0 || opts.MinOverlapRatio > 1 {
		opts.MinOverlapRatio = def.MinOverlapRatio
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{opts: opts, logger: logging.NewComponentLogger(logger, "alignment")}
}

// Options returns the effective options.
func (a *Analyzer) Options() Options {
	return a.opts
}

// IsAligned reports whether the sum of files lines up with target.
// Every failure is marked services.ErrAlignmentUnavailable.
func (a *Analyzer) IsAligned(ctx context.Context, files []string, target string) (bool, error) {
	res, err := a.Analyze(ctx, files, target)
	if err != nil {
		return false, err
	}
	return res.Aligned, nil
}

// Analyze measures the lag between the sum of files and target.
func (a *Analyzer) Analyze(ctx context.Context, files []string, target string) (Result, error) {
	if len(files) == 0 {
		return Result{}, services.Wrap(services.ErrAlignmentUnavailable, "alignment", "analyze", "no files to align", nil)
	}
	stats, err := probe.Probe(target)
	if err != nil {
		return Result{}, unavailable(target, err)
	}
	offset := stats.Duration / 2

	targetSig, err := downmix.DownsampleWindow(ctx, target, a.opts.AnalysisRate, offset, a.opts.WindowSeconds)
	if err != nil {
		return Result{}, unavailable(target, err)
	}

	var groupSig downmix.Signal
	err = downmix.WithCombined(ctx, files, downmix.ModeSum, a.opts.TempDir, func(path string) error {
		sig, err := downmix.DownsampleWindow(ctx, path, a.opts.AnalysisRate, offset, a.opts.WindowSeconds)
		groupSig = sig
		return err
	})
	if err != nil {
		return Result{}, unavailable(target, err)
	}
	if targetSig.Rate != groupSig.Rate {
		return Result{}, unavailable(target, fmt.Errorf("analysis rates differ: %d vs %d", targetSig.Rate, groupSig.Rate))
	}

	p, ok := crossCorrelate(targetSig.Samples, groupSig.Samples, a.opts.MinOverlapRatio)
	if !ok {
		return Result{}, unavailable(target, errDegenerateWindow)
	}
	res := Result{Lag: p.lag, Peak: p.value, Aligned: absInt(p.lag) <= a.opts.Tolerance}
	a.logger.Debug("alignment measured",
		logging.String("target", filepath.Base(target)),
		logging.Int("files", len(files)),
		logging.Int("lag", res.Lag),
		logging.Float64("peak", res.Peak),
		logging.Bool("aligned", res.Aligned),
	)
	return res, nil
}

var errDegenerateWindow = errors.New("analysis window is empty or constant")

func unavailable(target string, err error) error {
	return services.Wrap(services.ErrAlignmentUnavailable, "alignment", "analyze", filepath.Base(target), err)
}
