package validation

import (
	"encoding/json"
	"path/filepath"
)

// Result is the tri-state outcome of one check on one entity.
type Result int8

const (
	Absent Result = iota
	Pass
	Fail
)

// ResultOf converts a boolean outcome.
func ResultOf(ok bool) Result {
	if ok {
		return Pass
	}
	return Fail
}

func (r Result) String() string {
	switch r {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	default:
		return "absent"
	}
}

// Bool returns nil for Absent and a pointer to the outcome otherwise.
func (r Result) Bool() *bool {
	if r == Absent {
		return nil
	}
	v := r == Pass
	return &v
}

// EntityKind classifies report entities.
type EntityKind string

const (
	EntityMix        EntityKind = "mix"
	EntityStem       EntityKind = "stem"
	EntityRaw        EntityKind = "raw"
	EntityRawFolder  EntityKind = "raw_folder"
	EntityStemFolder EntityKind = "stem_folder"
)

// CheckResult is one recorded check.
type CheckResult struct {
	Check  Check  `json:"check"`
	Result Result `json:"-"`
}

// MarshalJSON renders the result as {"check": ..., "passed": true|false}.
func (c CheckResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Check  Check `json:"check"`
		Passed *bool `json:"passed,omitempty"`
	}{Check: c.Check, Passed: c.Result.Bool()})
}

// Entity is a file or folder in the report.
type Entity struct {
	Name   string        `json:"name"`
	Kind   EntityKind    `json:"kind"`
	Path   string        `json:"path"`
	Checks []CheckResult `json:"checks"`
}

// Result returns the recorded result of check, Absent when unset.
func (e *Entity) Result(check Check) Result {
	for _, c := range e.Checks {
		if c.Check == check {
			return c.Result
		}
	}
	return Absent
}

// Set records ok for check. A result that is already set is never changed,
// and reserved checks are never recorded. It reports whether the value was
// stored.
func (e *Entity) Set(check Check, ok bool) bool {
	if check.Reserved() || !check.Known() || e.Result(check) != Absent {
		return false
	}
	e.Checks = append(e.Checks, CheckResult{Check: check, Result: ResultOf(ok)})
	return true
}

// Report collects entity results in insertion order. It is not safe for
// concurrent mutation; the engine records results from a single goroutine.
type Report struct {
	Session  string    `json:"session"`
	Entities []*Entity `json:"entities"`

	index map[entityKey]*Entity
}

type entityKey struct {
	kind EntityKind
	path string
}

// NewReport returns an empty report for the named session.
func NewReport(session string) *Report {
	return &Report{Session: session, index: map[entityKey]*Entity{}}
}

// Add registers an entity, or returns the existing one for kind and path.
func (r *Report) Add(kind EntityKind, path string) *Entity {
	key := entityKey{kind: kind, path: path}
	if e, ok := r.index[key]; ok {
		return e
	}
	e := &Entity{Name: filepath.Base(path), Kind: kind, Path: path, Checks: []CheckResult{}}
	r.index[key] = e
	r.Entities = append(r.Entities, e)
	return e
}

// Lookup returns the entity for kind and path.
func (r *Report) Lookup(kind EntityKind, path string) (*Entity, bool) {
	e, ok := r.index[entityKey{kind: kind, path: path}]
	return e, ok
}

// Result returns the result of check on the entity identified by kind and path.
func (r *Report) Result(kind EntityKind, path string, check Check) Result {
	e, ok := r.Lookup(kind, path)
	if !ok {
		return Absent
	}
	return e.Result(check)
}

// Failures counts failed results across all entities.
func (r *Report) Failures() int {
	n := 0
	for _, e := range r.Entities {
		for _, c := range e.Checks {
			if c.Result == Fail {
				n++
			}
		}
	}
	return n
}

// Passed reports whether no check failed.
func (r *Report) Passed() bool {
	return r.Failures() == 0
}

// EmptinessFailed reports whether either session folder was recorded empty.
func (r *Report) EmptinessFailed() bool {
	for _, e := range r.Entities {
		if (e.Kind == EntityRawFolder || e.Kind == EntityStemFolder) && e.Result(CheckEmpty) == Fail {
			return true
		}
	}
	return false
}
