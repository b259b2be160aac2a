package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run is one stored invocation of the run command.
type Run struct {
	ID       string
	Seq      int64
	Platform string

	// Source names the declaration the run used, a file path or "builtin".
	Source string

	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Status     RunStatus
}

// Result is one stored configuration outcome.
type Result struct {
	RunID       string
	Seq         int64
	Suite       string
	TupleKey    string
	Fingerprint string
	Config      []AxisValue
	Passed      bool
}

// ReadRun returns the run with the given id, or ErrNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, platform, source, started_at, finished_at, status
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, oldest first. limit <= 0 returns
// every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, platform, source, started_at, finished_at, status
		FROM (
			SELECT * FROM runs ORDER BY seq DESC LIMIT ?
		)
		ORDER BY seq ASC, id ASC COLLATE BINARY
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadResults returns a run's results in execution order.
func (s *Store) ReadResults(ctx context.Context, runID string) ([]Result, error) {
	return s.queryResults(ctx, `
		SELECT run_id, seq, suite, tuple_key, fingerprint, config, passed
		FROM results
		WHERE run_id = ?
		ORDER BY seq ASC, run_id ASC COLLATE BINARY
	`, runID)
}

// ConfigurationHistory returns every stored outcome of the configuration
// with the given fingerprint, oldest run first.
func (s *Store) ConfigurationHistory(ctx context.Context, fingerprint string) ([]Result, error) {
	return s.queryResults(ctx, `
		SELECT r.run_id, r.seq, r.suite, r.tuple_key, r.fingerprint, r.config, r.passed
		FROM results r
		JOIN runs u ON r.run_id = u.id
		WHERE r.fingerprint = ?
		ORDER BY u.seq ASC, r.seq ASC, r.run_id ASC COLLATE BINARY
	`, fingerprint)
}

func (s *Store) queryResults(ctx context.Context, query string, arg any) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var (
			r          Result
			configJSON string
			passed     int
		)
		if err := rows.Scan(&r.RunID, &r.Seq, &r.Suite, &r.TupleKey, &r.Fingerprint, &configJSON, &passed); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if r.Config, err = unmarshalConfig(configJSON); err != nil {
			return nil, err
		}
		r.Passed = passed == 1
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run        Run
		startedAt  string
		finishedAt sql.NullString
		status     string
	)
	if err := row.Scan(&run.ID, &run.Seq, &run.Platform, &run.Source, &startedAt, &finishedAt, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	var err error
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return Run{}, err
	}
	if finishedAt.Valid {
		if run.FinishedAt, err = parseTime(finishedAt.String); err != nil {
			return Run{}, err
		}
	}
	run.Status = RunStatus(status)
	return run, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
