package coordinator

import (
	"github.com/roach88/tracematrix/internal/matrix"
)

// Outcome is the recorded result of one configuration.
type Outcome struct {
	Config matrix.Configuration
	Tuple  matrix.IndexTuple
	Passed bool

	// Seq is the 1-based dispatch order.
	Seq int
}

// Results is the ordered outcome set of one matrix run.
type Results struct {
	Name     string
	Matrix   *matrix.Matrix
	Outcomes []Outcome

	byKey map[string]int
}

func newResults(name string, m *matrix.Matrix, capacity int) *Results {
	return &Results{
		Name:     name,
		Matrix:   m,
		Outcomes: make([]Outcome, 0, capacity),
		byKey:    make(map[string]int, capacity),
	}
}

func (r *Results) add(cfg matrix.Configuration, passed bool) {
	tuple := cfg.Tuple()
	r.byKey[tuple.Key()] = len(r.Outcomes)
	r.Outcomes = append(r.Outcomes, Outcome{
		Config: cfg,
		Tuple:  tuple,
		Passed: passed,
		Seq:    len(r.Outcomes) + 1,
	})
}

// Lookup returns the outcome recorded for tuple.
func (r *Results) Lookup(tuple matrix.IndexTuple) (Outcome, bool) {
	i, ok := r.byKey[tuple.Key()]
	if !ok {
		return Outcome{}, false
	}
	return r.Outcomes[i], true
}

// Failed reports whether any outcome failed.
func (r *Results) Failed() bool {
	return r.FailedCount() > 0
}

// FailedCount returns the number of failed outcomes.
func (r *Results) FailedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Passed {
			n++
		}
	}
	return n
}

// PassedCount returns the number of passed outcomes.
func (r *Results) PassedCount() int {
	return len(r.Outcomes) - r.FailedCount()
}
