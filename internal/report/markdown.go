package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/roach88/tracematrix/internal/coordinator"
)

// Markdown writes results as a markdown table, one per suite.
type Markdown struct {
	w io.Writer
}

// NewMarkdown creates a Markdown reporter writing to w.
func NewMarkdown(w io.Writer) *Markdown {
	return &Markdown{w: w}
}

// Report implements coordinator.Reporter.
func (m *Markdown) Report(results *coordinator.Results) error {
	t := table.NewWriter()
	t.SetOutputMirror(m.w)
	if results.Name != "" {
		t.SetTitle(results.Name)
	}

	header := table.Row{}
	for _, name := range results.Matrix.AxisNames() {
		header = append(header, name)
	}
	t.AppendHeader(append(header, ResultColumn))

	for _, o := range results.Outcomes {
		row := table.Row{}
		for _, v := range o.Config.Literals() {
			row = append(row, v)
		}
		t.AppendRow(append(row, outcomeWord(o.Passed)))
	}

	t.RenderMarkdown()
	_, err := fmt.Fprintf(m.w, "\n%d passed, %d failed\n\n", results.PassedCount(), results.FailedCount())
	return err
}
