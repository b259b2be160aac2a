// Package report renders matrix results.
//
// Table is the terminal summary printed after every suite: one row per
// configuration, green when it passed and red when it failed. Markdown
// writes the same rows as a markdown table for CI job summaries.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/roach88/tracematrix/internal/coordinator"
)

// ResultColumn is the trailing column holding the outcome word.
const ResultColumn = "result"

const columnGap = "  "

// Color selects how Table styles its output.
type Color int

const (
	// ColorAuto detects support from the output writer.
	ColorAuto Color = iota
	// ColorAlways forces ANSI colors.
	ColorAlways
	// ColorNever disables styling.
	ColorNever
)

// Table renders results as an aligned, color-coded table.
type Table struct {
	w io.Writer

	header lipgloss.Style
	pass   lipgloss.Style
	fail   lipgloss.Style
}

// NewTable creates a Table writing to w.
func NewTable(w io.Writer, color Color) *Table {
	r := lipgloss.NewRenderer(w)
	switch color {
	case ColorAlways:
		r.SetColorProfile(termenv.ANSI)
	case ColorNever:
		r.SetColorProfile(termenv.Ascii)
	}
	return &Table{
		w:      w,
		header: r.NewStyle().Bold(true),
		pass:   r.NewStyle().Foreground(lipgloss.Color("2")),
		fail:   r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// Report implements coordinator.Reporter.
func (t *Table) Report(results *coordinator.Results) error {
	_, err := io.WriteString(t.w, t.Render(results))
	return err
}

// Render returns the table as text.
func (t *Table) Render(results *coordinator.Results) string {
	header := append(results.Matrix.AxisNames(), ResultColumn)

	rows := make([][]string, len(results.Outcomes))
	for i, o := range results.Outcomes {
		style := t.pass
		if !o.Passed {
			style = t.fail
		}
		row := make([]string, 0, len(header))
		for _, v := range append(o.Config.Literals(), outcomeWord(o.Passed)) {
			row = append(row, style.Render(v))
		}
		rows[i] = row
	}

	styledHeader := make([]string, len(header))
	for i, h := range header {
		styledHeader[i] = t.header.Render(h)
	}

	widths := columnWidths(styledHeader, rows)

	var b strings.Builder
	if results.Name != "" {
		fmt.Fprintf(&b, "== %s ==\n", results.Name)
	}
	writeRow(&b, styledHeader, widths)
	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	writeRow(&b, rule, widths)
	for _, row := range rows {
		writeRow(&b, row, widths)
	}
	fmt.Fprintf(&b, "%d passed, %d failed\n", results.PassedCount(), results.FailedCount())
	return b.String()
}

// VisibleWidth is the number of terminal cells s occupies once styling
// sequences are removed.
func VisibleWidth(s string) int {
	return runewidth.StringWidth(stripansi.Strip(s))
}

// Pad right-pads s with spaces to width visible cells.
func Pad(s string, width int) string {
	if n := width - VisibleWidth(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

func columnWidths(header []string, rows [][]string) []int {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = VisibleWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := VisibleWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(columnGap)
		}
		if i == len(cells)-1 {
			b.WriteString(cell)
			continue
		}
		b.WriteString(Pad(cell, widths[i]))
	}
	b.WriteByte('\n')
}

func outcomeWord(passed bool) string {
	if passed {
		return "passed"
	}
	return "failed"
}
