package history

import (
	"time"

	"github.com/google/uuid"

	"multitrack/internal/session"
	"multitrack/internal/validation"
)

// Status is the outcome of a run.
type Status string

const (
	StatusRunning  Status = "running"
	StatusPassed   Status = "passed"
	StatusProblems Status = "problems"
	StatusFailed   Status = "failed"
)

// ResultRow is one recorded check of one entity.
type ResultRow struct {
	Entity string `json:"entity"`
	Kind   string `json:"kind"`
	Path   string `json:"path"`
	Check  string `json:"check"`
	Passed bool   `json:"passed"`
}

// Run is a stored validation run.
type Run struct {
	ID           string      `json:"id"`
	Command      string      `json:"command"`
	Session      string      `json:"session"`
	MixPath      string      `json:"mix_path"`
	RawDir       string      `json:"raw_dir"`
	StemDir      string      `json:"stem_dir"`
	StartedAt    time.Time   `json:"started_at"`
	FinishedAt   time.Time   `json:"finished_at,omitzero"`
	Status       Status      `json:"status"`
	ProblemCount int         `json:"problem_count"`
	Error        string      `json:"error,omitempty"`
	Results      []ResultRow `json:"results,omitempty"`
	Problems     []string    `json:"problems,omitempty"`
}

// NewRun starts a run record for command over s with a fresh ID.
func NewRun(command string, s *session.Session, started time.Time) *Run {
	run := &Run{
		ID:        uuid.NewString(),
		Command:   command,
		StartedAt: started.UTC(),
		Status:    StatusRunning,
	}
	if s != nil {
		run.Session = s.Name()
		run.MixPath = s.MixPath
		run.RawDir = s.RawDir
		run.StemDir = s.StemDir
	}
	return run
}

// Complete fills the outcome from a finished report and its problem list.
func (r *Run) Complete(report *validation.Report, problems []string, finished time.Time) {
	r.FinishedAt = finished.UTC()
	r.Problems = append([]string(nil), problems...)
	r.ProblemCount = len(problems)
	r.Results = r.Results[:0]
	if report != nil {
		for _, e := range report.Entities {
			for _, c := range e.Checks {
				if c.Result == validation.Absent {
					continue
				}
				r.Results = append(r.Results, ResultRow{
					Entity: e.Name,
					Kind:   string(e.Kind),
					Path:   e.Path,
					Check:  string(c.Check),
					Passed: c.Result == validation.Pass,
				})
			}
		}
	}
	if len(problems) == 0 {
		r.Status = StatusPassed
	} else {
		r.Status = StatusProblems
	}
}

// Fail marks the run as aborted by err.
func (r *Run) Fail(err error, finished time.Time) {
	r.FinishedAt = finished.UTC()
	r.Status = StatusFailed
	if err != nil {
		r.Error = err.Error()
	}
}

// Duration is the wall time of a finished run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
