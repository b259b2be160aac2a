package fixture

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Field identifies what diverged in a row.
type Field string

const (
	FieldFile   Field = "file"
	FieldLine   Field = "line"
	FieldSymbol Field = "symbol"
	FieldFormat Field = "format"
	FieldFrame  Field = "frame"
)

// Mismatch is one divergence found during the walk. Row is 1-based.
type Mismatch struct {
	Row      int
	Field    Field
	Found    string
	Expected string
}

func (m Mismatch) String() string {
	switch m.Field {
	case FieldFile:
		return fmt.Sprintf("File name mismatch on line %d, found %q expected %q", m.Row, m.Found, m.Expected)
	case FieldLine:
		return fmt.Sprintf("File line mismatch on line %d, found %s expected %s", m.Row, m.Found, m.Expected)
	case FieldSymbol:
		return fmt.Sprintf("File symbol mismatch on line %d, found %q expected %q", m.Row, m.Found, m.Expected)
	case FieldFrame:
		return fmt.Sprintf("Missing frame on line %d, expected %q", m.Row, m.Expected)
	default:
		return fmt.Sprintf("Malformed output on line %d: %s", m.Row, m.Found)
	}
}

// Comparison is the outcome of comparing one actual trace with its fixture.
type Comparison struct {
	Fixture   Fixture
	Tags      []string
	Tolerance int

	// Compared is the number of rows walked; ReachedEntry is set when the
	// walk stopped at the entry point.
	Compared     int
	ReachedEntry bool
	Mismatches   []Mismatch

	actual   []string
	expected []TraceLine
}

// Passed reports whether no mismatch was recorded.
func (c *Comparison) Passed() bool {
	return len(c.Mismatches) == 0
}

// Diff renders a unified diff of the expected fixture against the actual
// output.
func (c *Comparison) Diff() string {
	expected := make([]string, len(c.expected))
	for i, l := range c.expected {
		expected[i] = l.String() + "\n"
	}
	actual := make([]string, len(c.actual))
	for i, row := range c.actual {
		actual[i] = row + "\n"
	}

	from := "expected"
	if c.Fixture.Name != "" {
		from = "expected/" + c.Fixture.Name
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        expected,
		B:        actual,
		FromFile: from,
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return text
}

// Report renders every mismatch on its own line.
func (c *Comparison) Report() string {
	var b strings.Builder
	for _, m := range c.Mismatches {
		b.WriteString("Error: ")
		b.WriteString(m.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Compare walks the actual output against expected frames.
//
// Rows are compared pairwise until the expected entry point has been
// compared or expected runs out. A malformed actual row or an actual trace
// that ends early is recorded as a mismatch. Empty or whitespace-only actual
// output returns an EmptyOutputError.
func Compare(actual string, expected []TraceLine, tolerance int) (*Comparison, error) {
	rows := Rows(actual)
	if len(rows) == 0 {
		return nil, &EmptyOutputError{}
	}

	c := &Comparison{
		Tolerance: tolerance,
		actual:    rows,
		expected:  expected,
	}

	for i, want := range expected {
		row := i + 1
		if i >= len(rows) {
			c.Mismatches = append(c.Mismatches, Mismatch{Row: row, Field: FieldFrame, Expected: want.String()})
			break
		}

		got, err := ParseLine(rows[i])
		if err != nil {
			c.Mismatches = append(c.Mismatches, Mismatch{Row: row, Field: FieldFormat, Found: rows[i], Expected: want.String()})
		} else {
			c.compareRow(row, got, want)
		}
		c.Compared++

		if IsEntryPoint(want.Symbol) {
			c.ReachedEntry = true
			break
		}
	}

	return c, nil
}

func (c *Comparison) compareRow(row int, got, want TraceLine) {
	if got.File != want.File {
		c.Mismatches = append(c.Mismatches, Mismatch{Row: row, Field: FieldFile, Found: got.File, Expected: want.File})
	}
	if abs(got.Line-want.Line) > c.Tolerance {
		c.Mismatches = append(c.Mismatches, Mismatch{
			Row:      row,
			Field:    FieldLine,
			Found:    fmt.Sprint(got.Line),
			Expected: fmt.Sprint(want.Line),
		})
	}
	if got.Symbol != want.Symbol {
		c.Mismatches = append(c.Mismatches, Mismatch{Row: row, Field: FieldSymbol, Found: got.Symbol, Expected: want.Symbol})
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
