package store

import (
	"context"

	"github.com/roach88/tracematrix/internal/coordinator"
)

// Recorder is a coordinator.Reporter that persists each suite's results
// under one run.
type Recorder struct {
	ctx   context.Context
	store *Store
	runID string
}

// NewRecorder creates a Recorder for runID.
func NewRecorder(ctx context.Context, s *Store, runID string) *Recorder {
	return &Recorder{ctx: ctx, store: s, runID: runID}
}

// Report writes results to the store.
func (r *Recorder) Report(results *coordinator.Results) error {
	return r.store.WriteResults(r.ctx, r.runID, results)
}
