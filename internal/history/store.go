package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"multitrack/internal/config"
	"multitrack/internal/services"
)

// Store persists runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, busyRetryMaxBackoff)
	}
	return lastErr
}

// Open initializes or connects to the history database in the state dir.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.HistoryPath())
}

// OpenPath opens the history database at path.
func OpenPath(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts run together with its results and problems.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run == nil || run.ID == "" {
		return errors.New("record run: missing id")
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin record tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `INSERT INTO runs
			(id, command, session, mix_path, raw_dir, stem_dir, started_at, finished_at, status, problem_count, error_message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.Command, run.Session, run.MixPath, run.RawDir, run.StemDir,
			formatTime(run.StartedAt), nullableTime(run.FinishedAt), string(run.Status), run.ProblemCount,
			nullableString(run.Error),
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		for i, row := range run.Results {
			if _, err := tx.ExecContext(ctx, `INSERT INTO run_results
				(run_id, position, entity, kind, path, check_key, passed) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				run.ID, i, row.Entity, row.Kind, row.Path, row.Check, boolToInt(row.Passed),
			); err != nil {
				return fmt.Errorf("insert result: %w", err)
			}
		}
		for i, msg := range run.Problems {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO run_problems (run_id, position, message) VALUES (?, ?, ?)",
				run.ID, i, msg,
			); err != nil {
				return fmt.Errorf("insert problem: %w", err)
			}
		}
		return tx.Commit()
	})
}

const runColumns = "id, command, session, mix_path, raw_dir, stem_dir, started_at, finished_at, status, problem_count, error_message"

// List returns the most recent runs, newest first, without results or
// problems. A non-positive limit returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get loads a run with its results and problems. id may be a unique prefix.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrNotFound, "history", "get", "empty run id", nil)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 2",
		id, id+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		matches = append(matches, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch {
	case len(matches) == 0:
		return nil, services.Wrap(services.ErrNotFound, "history", "get", "run "+id, nil)
	case len(matches) > 1 && matches[0].ID != id:
		return nil, services.Wrap(services.ErrValidation, "history", "get", "ambiguous run id "+id, nil)
	}
	run := matches[0]

	if err := s.loadResults(ctx, run); err != nil {
		return nil, err
	}
	if err := s.loadProblems(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// Clear deletes every run and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM runs")
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return removed, nil
}

func (s *Store) loadResults(ctx context.Context, run *Run) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT entity, kind, path, check_key, passed FROM run_results WHERE run_id = ? ORDER BY position",
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("load results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var row ResultRow
		var passed int
		if err := rows.Scan(&row.Entity, &row.Kind, &row.Path, &row.Check, &passed); err != nil {
			return fmt.Errorf("scan result: %w", err)
		}
		row.Passed = passed != 0
		run.Results = append(run.Results, row)
	}
	return rows.Err()
}

func (s *Store) loadProblems(ctx context.Context, run *Run) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT message FROM run_problems WHERE run_id = ? ORDER BY position",
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("load problems: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return fmt.Errorf("scan problem: %w", err)
		}
		run.Problems = append(run.Problems, msg)
	}
	return rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		startedRaw  string
		finishedRaw sql.NullString
		status      string
		errMsg      sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Command,
		&run.Session,
		&run.MixPath,
		&run.RawDir,
		&run.StemDir,
		&startedRaw,
		&finishedRaw,
		&status,
		&run.ProblemCount,
		&errMsg,
	); err != nil {
		return nil, err
	}
	run.Status = Status(status)
	run.Error = errMsg.String
	if t, err := time.Parse(timeLayout, startedRaw); err == nil {
		run.StartedAt = t
	}
	if finishedRaw.Valid {
		if t, err := time.Parse(timeLayout, finishedRaw.String); err == nil {
			run.FinishedAt = t
		}
	}
	return &run, nil
}

// timeLayout has fixed-width fractional seconds so stored values sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
