package fixture

import (
	"fmt"
	"io"
	"log/slog"
)

// Matcher selects ground truth from a library and compares output with it.
type Matcher struct {
	library *Library
	policy  TolerancePolicy
	logger  *slog.Logger
}

// NewMatcher creates a Matcher. A nil policy uses DefaultLineTolerance for
// every tag set.
func NewMatcher(library *Library, policy TolerancePolicy, logger *slog.Logger) *Matcher {
	if policy == nil {
		policy = ExactLinePolicy{Default: DefaultLineTolerance}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Matcher{library: library, policy: policy, logger: logger}
}

// Check compares actual output with the fixture selected for tags.
//
// A *SelectionError or a fixture load failure means the library is broken
// and should abort the run. An *EmptyOutputError only fails the
// configuration under test. Field mismatches are reported through the
// returned Comparison, not as an error.
func (m *Matcher) Check(actual string, tags []string) (*Comparison, error) {
	f, err := m.library.Select(tags)
	if err != nil {
		return nil, err
	}
	expected, err := m.library.Load(f)
	if err != nil {
		return nil, fmt.Errorf("load ground truth: %w", err)
	}

	tolerance := m.policy.Tolerance(tags)
	m.logger.Debug("comparing trace", "fixture", f.Name, "tags", tags, "tolerance", tolerance)

	c, err := Compare(actual, expected, tolerance)
	if err != nil {
		return nil, err
	}
	c.Fixture = f
	c.Tags = append([]string(nil), tags...)
	return c, nil
}
