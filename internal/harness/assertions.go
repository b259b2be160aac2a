package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/tracematrix/internal/coordinator"
	"github.com/roach88/tracematrix/internal/matrix"
	"github.com/roach88/tracematrix/internal/store"
)

// AssertionContext carries what assertions check besides the trace.
type AssertionContext struct {
	Results *coordinator.Results
	Stored  []store.Result
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  %s\n", event)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertOutcome:
		return assertOutcome(result.Trace, a, actx.Results)
	case AssertPassedCount:
		return assertCount(result.Trace, a, actx.Results.PassedCount())
	case AssertFailedCount:
		return assertCount(result.Trace, a, actx.Results.FailedCount())
	case AssertCommandCount:
		return assertCommandCount(result.Trace, a)
	case AssertCommandOrder:
		return assertCommandOrder(result.Trace, a)
	case AssertPurgeCount:
		return assertCount(result.Trace, a, len(result.Events(EventPurge)))
	case AssertOutputContains:
		if !strings.Contains(result.Output, a.Match) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("output containing %q", a.Match),
				Actual:   result.Output,
				Trace:    result.Trace,
			}
		}
		return nil
	case AssertAborted:
		if result.Fatal == "" || !strings.Contains(result.Fatal, a.Match) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("run aborted with %q", a.Match),
				Actual:   fmt.Sprintf("fatal error %q", result.Fatal),
				Trace:    result.Trace,
			}
		}
		return nil
	case AssertStoredResults:
		return assertCount(result.Trace, a, len(actx.Stored))
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// assertOutcome checks that at least one configuration matches a.Config and
// that every matching configuration has the expected result.
func assertOutcome(trace []TraceEvent, a Assertion, results *coordinator.Results) error {
	rule := matrix.ExclusionRule(a.Config)
	matched := 0
	for _, o := range results.Outcomes {
		if !rule.Matches(o.Config) {
			continue
		}
		matched++
		if o.Passed != *a.Passed {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s %s", o.Config, outcomeWord(*a.Passed)),
				Actual:   outcomeWord(o.Passed),
				Trace:    trace,
			}
		}
	}
	if matched == 0 {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("a configuration matching %v", a.Config),
			Actual:   "none ran",
			Trace:    trace,
		}
	}
	return nil
}

func assertCount(trace []TraceEvent, a Assertion, actual int) error {
	if actual != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d", a.Count),
			Actual:   fmt.Sprintf("%d", actual),
			Trace:    trace,
		}
	}
	return nil
}

// assertCommandCount counts commands whose line contains a.Match.
func assertCommandCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, e := range trace {
		if e.Type == EventCommand && strings.Contains(e.Command, a.Match) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d command(s) containing %q", a.Count, a.Match),
			Actual:   fmt.Sprintf("%d", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertCommandOrder checks that commands containing each entry appear in
// order. Commands don't need to be consecutive.
func assertCommandOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, e := range trace {
		if next == len(a.Commands) {
			break
		}
		if e.Type == EventCommand && strings.Contains(e.Command, a.Commands[next]) {
			next++
		}
	}
	if next < len(a.Commands) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("commands in order: %v", a.Commands),
			Actual:   fmt.Sprintf("no command containing %q after the previous ones", a.Commands[next]),
			Trace:    trace,
		}
	}
	return nil
}

func outcomeWord(passed bool) string {
	if passed {
		return "passed"
	}
	return "failed"
}
