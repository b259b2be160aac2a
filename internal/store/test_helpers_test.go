package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/tracematrix/internal/coordinator"
	"github.com/roach88/tracematrix/internal/matrix"
	"github.com/roach88/tracematrix/internal/testutil"
)

// createTestStore creates a new store in a temp dir with a deterministic clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(testutil.NewDeterministicClock()))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// runSuite runs a compiler x shared matrix where failing reports which
// configurations fail.
func runSuite(t *testing.T, name string, failing func(cfg matrix.Configuration) bool) *coordinator.Results {
	t.Helper()
	m, err := matrix.New([]matrix.Axis{
		{Name: "compiler", Values: []string{"g++-10", "clang++-14"}},
		{Name: "shared", Values: []string{"OFF", "ON"}},
	}, nil)
	if err != nil {
		t.Fatalf("matrix.New() failed: %v", err)
	}

	results, err := coordinator.New(m, coordinator.WithName(name)).Run(context.Background(),
		func(_ context.Context, sc coordinator.StepContext) (bool, error) {
			return !failing(sc.Current), nil
		})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	return results
}

func never(matrix.Configuration) bool { return false }
