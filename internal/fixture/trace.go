package fixture

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldSeparator joins the three fields of a trace line.
const FieldSeparator = "||"

// TraceLine is one stack frame.
type TraceLine struct {
	File   string
	Line   int
	Symbol string
}

func (l TraceLine) String() string {
	return l.File + FieldSeparator + strconv.Itoa(l.Line) + FieldSeparator + l.Symbol
}

// ParseLine splits a row into exactly three fields.
func ParseLine(row string) (TraceLine, error) {
	fields := strings.Split(row, FieldSeparator)
	if len(fields) != 3 {
		return TraceLine{}, fmt.Errorf("expected 3 fields separated by %q, found %d", FieldSeparator, len(fields))
	}
	line, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return TraceLine{}, fmt.Errorf("line number %q is not an integer", fields[1])
	}
	return TraceLine{File: fields[0], Line: line, Symbol: fields[2]}, nil
}

// ParseTrace parses every non-empty row of text. Any malformed row is an
// error; use it for fixtures, which must be well formed.
func ParseTrace(text string) ([]TraceLine, error) {
	rows := Rows(text)
	lines := make([]TraceLine, 0, len(rows))
	for i, row := range rows {
		l, err := ParseLine(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// Rows returns the non-empty rows of text with line endings removed.
func Rows(text string) []string {
	var rows []string
	for _, row := range strings.Split(text, "\n") {
		row = strings.TrimRight(row, "\r")
		if strings.TrimSpace(row) == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// IsEntryPoint reports whether symbol is the program entry point.
func IsEntryPoint(symbol string) bool {
	return symbol == "main" || symbol == "main()"
}
