package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/tracematrix/internal/coordinator"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	StatusRunning RunStatus = "running"
	StatusPassed  RunStatus = "passed"
	StatusFailed  RunStatus = "failed"
	StatusAborted RunStatus = "aborted"
)

// BeginRun inserts a running run with the next seq and returns it.
func (s *Store) BeginRun(ctx context.Context, id, platform, source string) (Run, error) {
	run := Run{ID: id, Platform: platform, Source: source, Status: StatusRunning}
	startedAt := s.now()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
			return fmt.Errorf("next run seq: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, seq, platform, source, started_at, status)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, run.Seq, platform, source, startedAt, string(StatusRunning))
		return err
	})
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}

	run.StartedAt, err = parseTime(startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}
	return run, nil
}

// WriteResults appends every outcome of one suite to a run. Seqs continue
// after the run's previous results, so suites stay in execution order.
func (s *Store) WriteResults(ctx context.Context, runID string, results *coordinator.Results) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var next int64
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(seq), 0) FROM results WHERE run_id = ?`, runID,
		).Scan(&next); err != nil {
			return fmt.Errorf("next result seq: %w", err)
		}

		for _, o := range results.Outcomes {
			next++
			configJSON, err := marshalConfig(o.Config)
			if err != nil {
				return err
			}
			passed := 0
			if o.Passed {
				passed = 1
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO results (run_id, seq, suite, tuple_key, fingerprint, config, passed)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, runID, next, results.Name, o.Tuple.Key(), o.Config.Fingerprint(), configJSON, passed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// FinishRun records the final status of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, finished_at = ? WHERE id = ?
	`, string(status), s.now(), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrNotFound)
	}
	return nil
}
