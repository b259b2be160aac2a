package fixture

import (
	"errors"
	"fmt"
	"strings"
)

// SelectionErrorKind categorizes fixture selection failures.
type SelectionErrorKind string

const (
	// NoFixture means no fixture's tags are a subset of the target tags.
	NoFixture SelectionErrorKind = "NO_FIXTURE"

	// AmbiguousFixture means several fixtures share the maximum score.
	AmbiguousFixture SelectionErrorKind = "AMBIGUOUS_FIXTURE"
)

// SelectionError reports that the library has no single ground truth for a
// tag set.
type SelectionError struct {
	Kind       SelectionErrorKind
	Target     []string
	Candidates []string
	Score      int
}

func (e *SelectionError) Error() string {
	target := strings.Join(e.Target, ", ")
	switch e.Kind {
	case AmbiguousFixture:
		return fmt.Sprintf("%s: %d fixtures score %d for tags [%s]: %s (add distinguishing tags)",
			e.Kind, len(e.Candidates), e.Score, target, strings.Join(e.Candidates, ", "))
	default:
		return fmt.Sprintf("%s: no fixture matches tags [%s]", e.Kind, target)
	}
}

// EmptyOutputError reports that the program under test printed nothing.
type EmptyOutputError struct{}

func (e *EmptyOutputError) Error() string {
	return "no output from test"
}

// IsSelectionError reports whether err is a fixture selection failure.
func IsSelectionError(err error) bool {
	var se *SelectionError
	return errors.As(err, &se)
}

// IsEmptyOutput reports whether err is an empty-output failure.
func IsEmptyOutput(err error) bool {
	var ee *EmptyOutputError
	return errors.As(err, &ee)
}
