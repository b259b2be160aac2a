package report

import (
	"bytes"
	"context"
	"testing"

	"github.com/acarl005/stripansi"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracematrix/internal/coordinator"
	"github.com/roach88/tracematrix/internal/matrix"
)

// sampleResults runs a 2x2 matrix with one exclusion where g++-10/ON fails.
func sampleResults(t *testing.T) *coordinator.Results {
	t.Helper()
	m, err := matrix.New(
		[]matrix.Axis{
			{Name: "compiler", Values: []string{"g++-10", "clang++-14"}},
			{Name: "shared", Values: []string{"OFF", "ON"}},
		},
		[]matrix.ExclusionRule{{"compiler": "clang++-14", "shared": "OFF"}},
	)
	require.NoError(t, err)

	results, err := coordinator.New(m, coordinator.WithName("unittest")).Run(context.Background(),
		func(_ context.Context, sc coordinator.StepContext) (bool, error) {
			return !(sc.Current.Get("compiler") == "g++-10" && sc.Current.Get("shared") == "ON"), nil
		})
	require.NoError(t, err)
	return results
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestTable_Plain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTable(&buf, ColorNever).Report(sampleResults(t)))

	newGoldie(t).Assert(t, "table_plain", buf.Bytes())
}

func TestTable_ColorKeepsAlignment(t *testing.T) {
	results := sampleResults(t)

	plain := NewTable(&bytes.Buffer{}, ColorNever).Render(results)
	colored := NewTable(&bytes.Buffer{}, ColorAlways).Render(results)

	assert.NotEqual(t, plain, colored)
	assert.Contains(t, colored, "\x1b[")
	assert.Equal(t, plain, stripansi.Strip(colored))
}

func TestTable_NoName(t *testing.T) {
	results := sampleResults(t)
	results.Name = ""

	out := NewTable(&bytes.Buffer{}, ColorNever).Render(results)
	assert.NotContains(t, out, "==")
	assert.Contains(t, out, "2 passed, 1 failed\n")
}

func TestVisibleWidth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"Debug", 5},
		{"\x1b[32mDebug\x1b[0m", 5},
		{"日本", 4},
		{"\x1b[1;31m日本\x1b[0m", 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VisibleWidth(tt.in), "%q", tt.in)
	}
}

func TestPad(t *testing.T) {
	assert.Equal(t, "ON    ", Pad("ON", 6))
	assert.Equal(t, "\x1b[31mON\x1b[0m    ", Pad("\x1b[31mON\x1b[0m", 6))
	assert.Equal(t, "日本  ", Pad("日本", 6))
	assert.Equal(t, "toolong", Pad("toolong", 3))
}

func TestMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdown(&buf).Report(sampleResults(t)))

	out := buf.String()
	assert.Contains(t, out, "# unittest")
	assert.Contains(t, out, "| compiler | shared | result |")
	assert.Contains(t, out, "| g++-10 | OFF | passed |")
	assert.Contains(t, out, "| g++-10 | ON | failed |")
	assert.Contains(t, out, "| clang++-14 | ON | passed |")
	assert.NotContains(t, out, "| clang++-14 | OFF |")
	assert.Contains(t, out, "2 passed, 1 failed")
}
