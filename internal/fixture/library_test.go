package fixture

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	target := []string{"a", "b", "c"}

	assert.Equal(t, 2, Score([]string{"a", "b"}, target))
	assert.Equal(t, 3, Score([]string{"c", "b", "a"}, target))
	assert.Equal(t, ImpossibleScore, Score([]string{"a", "d"}, target), "an extra fixture tag disqualifies regardless of overlap")
	assert.Equal(t, ImpossibleScore, Score([]string{"d"}, target))
}

func TestSelect_PicksMostSpecificSubset(t *testing.T) {
	lib := NewLibrary(
		Fixture{Name: "gcc.txt", Tags: []string{"gcc"}},
		Fixture{Name: "gcc_linux.txt", Tags: []string{"gcc", "linux"}},
		Fixture{Name: "gcc_linux_libunwind.txt", Tags: []string{"gcc", "linux", "libunwind"}},
		Fixture{Name: "clang_linux.txt", Tags: []string{"clang", "linux"}},
	)

	f, err := lib.Select([]string{"gcc", "linux"})
	require.NoError(t, err)
	assert.Equal(t, "gcc_linux.txt", f.Name)

	f, err = lib.Select([]string{"gcc", "linux", "libunwind", "split-dwarf"})
	require.NoError(t, err)
	assert.Equal(t, "gcc_linux_libunwind.txt", f.Name)

	f, err = lib.Select([]string{"gcc", "macos"})
	require.NoError(t, err)
	assert.Equal(t, "gcc.txt", f.Name)
}

func TestSelect_NoCandidate(t *testing.T) {
	lib := NewLibrary(
		Fixture{Name: "clang_linux.txt", Tags: []string{"clang", "linux"}},
	)

	_, err := lib.Select([]string{"msvc", "windows"})
	var se *SelectionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, NoFixture, se.Kind)
	assert.True(t, IsSelectionError(err))

	_, err = NewLibrary().Select([]string{"gcc"})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, NoFixture, se.Kind)
}

func TestSelect_TieIsFatalAmbiguity(t *testing.T) {
	lib := NewLibrary(
		Fixture{Name: "gcc_linux.txt", Tags: []string{"gcc", "linux"}},
		Fixture{Name: "gcc_libunwind.txt", Tags: []string{"gcc", "libunwind"}},
		Fixture{Name: "gcc.txt", Tags: []string{"gcc"}},
	)

	_, err := lib.Select([]string{"gcc", "linux", "libunwind"})
	var se *SelectionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, AmbiguousFixture, se.Kind)
	assert.Equal(t, 2, se.Score)
	assert.Equal(t, []string{"gcc_linux.txt", "gcc_libunwind.txt"}, se.Candidates)
	assert.Contains(t, err.Error(), "add distinguishing tags")
}

func TestParseFixtureName(t *testing.T) {
	tags, err := ParseFixtureName("dir/gcc_linux_libunwind.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"gcc", "linux", "libunwind"}, tags)

	tags, err = ParseFixtureName("gcc_gcc.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"gcc"}, tags)

	_, err = ParseFixtureName("gcc__linux.txt")
	assert.Error(t, err)
	_, err = ParseFixtureName("gcc_linux.log")
	assert.Error(t, err)
}

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadLibrary(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "msvc_windows.txt", "a.cpp||1||main\n")
	writeFixture(t, dir, "gcc_linux.txt", "a.cpp||1||foo\na.cpp||2||main\n")
	writeFixture(t, dir, "README.md", "not a fixture")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old"), 0o755))

	lib, err := LoadLibrary(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, lib.Dir())

	fixtures := lib.Fixtures()
	require.Len(t, fixtures, 2)
	assert.Equal(t, "gcc_linux.txt", fixtures[0].Name)
	assert.Equal(t, "msvc_windows.txt", fixtures[1].Name)

	lines, err := lib.Load(fixtures[0])
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestLoadLibrary_MissingDir(t *testing.T) {
	_, err := LoadLibrary(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoad_MalformedFixture(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "gcc.txt", "a.cpp||one||foo\n")

	lib, err := LoadLibrary(dir)
	require.NoError(t, err)
	_, err = lib.Load(lib.Fixtures()[0])
	assert.ErrorContains(t, err, "parse fixture gcc.txt")
}

func TestLoad_FixtureWithoutFrames(t *testing.T) {
	for name, content := range map[string]string{
		"empty":       "",
		"blank lines": "\n  \n\r\n",
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFixture(t, dir, "gcc.txt", content)

			lib, err := LoadLibrary(dir)
			require.NoError(t, err)
			_, err = lib.Load(lib.Fixtures()[0])
			assert.ErrorContains(t, err, "fixture gcc.txt has no frames")
		})
	}
}
