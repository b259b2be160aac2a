package harness

import (
	"fmt"
	"strings"
)

// Trace event types.
const (
	EventPurge   = "purge"
	EventCommand = "command"
	EventOutcome = "outcome"
)

// TraceEvent is one thing that happened during a scenario run.
type TraceEvent struct {
	Type    string `json:"type"`
	Seq     int64  `json:"seq"`
	Command string `json:"command,omitempty"`
	Config  string `json:"config,omitempty"`
	Passed  bool   `json:"passed,omitempty"`
}

// String renders the event on one line.
func (e TraceEvent) String() string {
	switch e.Type {
	case EventCommand:
		return fmt.Sprintf("[%d] command %s", e.Seq, e.Command)
	case EventOutcome:
		word := "failed"
		if e.Passed {
			word = "passed"
		}
		return fmt.Sprintf("[%d] outcome %s %s", e.Seq, e.Config, word)
	default:
		return fmt.Sprintf("[%d] %s %s", e.Seq, e.Type, e.Config)
	}
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates that every assertion held.
	Pass bool `json:"pass"`

	RunID string `json:"run_id"`

	// Trace holds purges, commands and outcomes in the order they happened.
	Trace []TraceEvent `json:"trace"`

	// Output is everything the build driver and the report table wrote.
	Output string `json:"output"`

	// Fatal is the error that stopped the run, if any.
	Fatal string `json:"fatal,omitempty"`

	// Errors contains assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:  true,
		Trace: []TraceEvent{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Events returns the trace events of one type.
func (r *Result) Events(eventType string) []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// RenderTrace renders the trace one event per line.
func (r *Result) RenderTrace() string {
	var b strings.Builder
	for _, e := range r.Trace {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}
