package alignment_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"multitrack/internal/analysis/alignment"
	"multitrack/internal/services"
	"multitrack/internal/testsupport"
)

const rate = 44100

func newAnalyzer(t *testing.T) (*alignment.Analyzer, string) {
	t.Helper()
	tmp := t.TempDir()
	opts := alignment.DefaultOptions()
	opts.TempDir = tmp
	return alignment.New(opts, nil), tmp
}

func TestIsAlignedAcceptsSmallDelay(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "mix.wav")
	noise := testsupport.Noise(1, 6*rate, 8000)
	testsupport.WriteSignal(t, target, testsupport.CD(2), noise, noise)

	// Two halves that sum back to the target, one of them nudged by ~3 analysis samples.
	part := filepath.Join(dir, "part.wav")
	late := filepath.Join(dir, "late.wav")
	testsupport.WriteSignal(t, part, testsupport.CD(1), testsupport.Scale(noise, 0.5))
	testsupport.WriteSignal(t, late, testsupport.CD(1), testsupport.Delay(testsupport.Scale(noise, 0.5), 132))

	analyzer, tmp := newAnalyzer(t)
	res, err := analyzer.Analyze(context.Background(), []string{part, late}, target)
	require.NoError(t, err)
	require.True(t, res.Aligned, "lag %d", res.Lag)
	require.LessOrEqual(t, abs(res.Lag), 5)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	require.Empty(t, entries, "combined temp file should be removed")
}

func TestIsAlignedRejectsOneSecondDelay(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "mix.wav")
	noise := testsupport.Noise(2, 6*rate, 8000)
	testsupport.WriteSignal(t, target, testsupport.CD(2), noise, noise)

	late := filepath.Join(dir, "late.wav")
	testsupport.WriteSignal(t, late, testsupport.CD(1), testsupport.Delay(noise, rate))

	analyzer, _ := newAnalyzer(t)
	res, err := analyzer.Analyze(context.Background(), []string{late}, target)
	require.NoError(t, err)
	require.False(t, res.Aligned)
	require.InDelta(t, -1000, res.Lag, 2)

	ok, err := analyzer.IsAligned(context.Background(), []string{late}, target)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIsAlignedUnavailable(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "mix.wav")
	testsupport.WriteSignal(t, target, testsupport.CD(1), testsupport.Noise(3, 2*rate, 8000))
	silent := filepath.Join(dir, "silent.wav")
	testsupport.WriteSignal(t, silent, testsupport.CD(1), testsupport.Silence(2*rate))
	garbage := filepath.Join(dir, "garbage.wav")
	require.NoError(t, os.WriteFile(garbage, []byte("not a wav"), 0o644))

	analyzer, _ := newAnalyzer(t)
	ctx := context.Background()
	cases := map[string]struct {
		files  []string
		target string
	}{
		"no files":          {nil, target},
		"unreadable file":   {[]string{garbage}, target},
		"unreadable target": {[]string{target}, garbage},
		"silent group":      {[]string{silent}, target},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ok, err := analyzer.IsAligned(ctx, tc.files, tc.target)
			require.False(t, ok)
			require.True(t, errors.Is(err, services.ErrAlignmentUnavailable), "got %v", err)
		})
	}
}

func TestNewFillsDefaults(t *testing.T) {
	a := alignment.New(alignment.Options{Tolerance: 2}, nil)
	opts := a.Options()
	require.Equal(t, 1000, opts.AnalysisRate)
	require.Equal(t, 30.0, opts.WindowSeconds)
	require.Equal(t, 2, opts.Tolerance)
	require.Equal(t, 0.5, opts.MinOverlapRatio)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
