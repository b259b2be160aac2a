package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	l, err := ParseLine("test/test.cpp||42||foo(int)")
	require.NoError(t, err)
	assert.Equal(t, TraceLine{File: "test/test.cpp", Line: 42, Symbol: "foo(int)"}, l)
	assert.Equal(t, "test/test.cpp||42||foo(int)", l.String())

	_, err = ParseLine("a||b")
	assert.ErrorContains(t, err, "expected 3 fields")

	_, err = ParseLine("a||x||b")
	assert.ErrorContains(t, err, "not an integer")

	_, err = ParseLine("a||1||b||c")
	assert.Error(t, err)
}

func TestParseTrace_SkipsBlankRowsAndCarriageReturns(t *testing.T) {
	lines, err := ParseTrace("a.cpp||1||f\r\n\r\n\nb.cpp||2||main\n")
	require.NoError(t, err)
	assert.Equal(t, []TraceLine{
		{File: "a.cpp", Line: 1, Symbol: "f"},
		{File: "b.cpp", Line: 2, Symbol: "main"},
	}, lines)
}

func TestParseTrace_ReportsRow(t *testing.T) {
	_, err := ParseTrace("a.cpp||1||f\nbroken\n")
	assert.ErrorContains(t, err, "row 2")
}

func TestIsEntryPoint(t *testing.T) {
	assert.True(t, IsEntryPoint("main"))
	assert.True(t, IsEntryPoint("main()"))
	assert.False(t, IsEntryPoint("main(int, char**)"))
	assert.False(t, IsEntryPoint("wmain"))
}
