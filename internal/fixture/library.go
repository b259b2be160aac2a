package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Fixture file naming.
const (
	TagSeparator = "_"
	Extension    = ".txt"
)

// ImpossibleScore marks a fixture that carries a tag the target lacks.
const ImpossibleScore = -1

// Fixture is one reference trace in the library.
type Fixture struct {
	Name string
	Path string
	Tags []string
}

// ParseFixtureName extracts the tag set encoded in a fixture file name.
func ParseFixtureName(filename string) ([]string, error) {
	base := filepath.Base(filename)
	if filepath.Ext(base) != Extension {
		return nil, fmt.Errorf("fixture %q: expected %s extension", base, Extension)
	}
	stem := strings.TrimSuffix(base, Extension)

	var tags []string
	seen := make(map[string]bool)
	for _, tag := range strings.Split(stem, TagSeparator) {
		if tag == "" {
			return nil, fmt.Errorf("fixture %q: empty tag", base)
		}
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// Library is the set of reference fixtures available for selection.
type Library struct {
	dir      string
	fixtures []Fixture
}

// NewLibrary builds a library from already known fixtures.
func NewLibrary(fixtures ...Fixture) *Library {
	return &Library{fixtures: append([]Fixture(nil), fixtures...)}
}

// LoadLibrary indexes every fixture file directly inside dir.
// Files without the fixture extension are ignored.
func LoadLibrary(dir string) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read fixture directory: %w", err)
	}

	lib := &Library{dir: dir}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Extension {
			continue
		}
		tags, err := ParseFixtureName(e.Name())
		if err != nil {
			return nil, err
		}
		lib.fixtures = append(lib.fixtures, Fixture{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Tags: tags,
		})
	}

	sort.Slice(lib.fixtures, func(i, j int) bool {
		return lib.fixtures[i].Name < lib.fixtures[j].Name
	})
	return lib, nil
}

// Dir returns the directory the library was loaded from, if any.
func (l *Library) Dir() string {
	return l.dir
}

// Fixtures returns the indexed fixtures.
func (l *Library) Fixtures() []Fixture {
	return append([]Fixture(nil), l.fixtures...)
}

// Score counts the fixture tags contained in target. A fixture tag missing
// from target makes the fixture unusable: the result is ImpossibleScore no
// matter how many other tags overlap.
func Score(fixtureTags, target []string) int {
	have := make(map[string]bool, len(target))
	for _, t := range target {
		have[t] = true
	}

	score := 0
	for _, t := range fixtureTags {
		if !have[t] {
			return ImpossibleScore
		}
		score++
	}
	return score
}

// Select picks the single fixture with the highest positive score.
//
// First every fixture is scored, then the fixtures sitting at the maximum are
// counted. Exactly one is required: zero yields a NoFixture error, more than
// one an AmbiguousFixture error.
func (l *Library) Select(target []string) (Fixture, error) {
	scores := make([]int, len(l.fixtures))
	best := ImpossibleScore
	for i, f := range l.fixtures {
		scores[i] = Score(f.Tags, target)
		if scores[i] > best {
			best = scores[i]
		}
	}

	if best <= 0 {
		return Fixture{}, &SelectionError{
			Kind:   NoFixture,
			Target: append([]string(nil), target...),
			Score:  best,
		}
	}

	var candidates []Fixture
	for i, f := range l.fixtures {
		if scores[i] == best {
			candidates = append(candidates, f)
		}
	}

	if len(candidates) != 1 {
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.Name
		}
		return Fixture{}, &SelectionError{
			Kind:       AmbiguousFixture,
			Target:     append([]string(nil), target...),
			Candidates: names,
			Score:      best,
		}
	}

	return candidates[0], nil
}

// Load reads and parses a fixture. A malformed fixture, or one without a
// single frame, is an error.
func (l *Library) Load(f Fixture) ([]TraceLine, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", f.Name, err)
	}
	lines, err := ParseTrace(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", f.Name, err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("fixture %s has no frames", f.Name)
	}
	return lines, nil
}
