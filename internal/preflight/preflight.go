package preflight

import (
	"context"
	"strings"

	"multitrack/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes the environment checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Review directory", cfg.Paths.ReviewDir),
	}
	if strings.TrimSpace(cfg.Paths.TempDir) != "" {
		results = append(results, CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir))
	}
	results = append(results,
		CheckHistory(ctx, cfg.HistoryPath()),
		CheckLock(cfg.LockPath()),
	)
	return results
}

// SessionChecks verifies that a session's folders and mix can be read.
func SessionChecks(rawDir, stemDir, mixPath string) []Result {
	return []Result{
		CheckReadable("Raw folder", rawDir, true),
		CheckReadable("Stem folder", stemDir, true),
		CheckReadable("Mix file", mixPath, false),
	}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
