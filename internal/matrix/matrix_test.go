package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linuxAxes() []Axis {
	return []Axis{
		{Name: "compiler", Values: []string{"g++-10", "clang++-14"}},
		{Name: "shared", Values: []string{"OFF", "ON"}},
		{Name: "build_type", Values: []string{"Debug", "RelWithDebInfo", "Release"}},
	}
}

func TestGenerate_ProductSize(t *testing.T) {
	m, err := New(linuxAxes(), nil)
	require.NoError(t, err)

	configs := m.Generate()
	assert.Len(t, configs, 2*2*3)
	assert.Equal(t, 12, m.Size())

	seen := make(map[string]bool)
	for _, cfg := range configs {
		key := cfg.Tuple().Key()
		assert.False(t, seen[key], "duplicate configuration %s", key)
		seen[key] = true
	}
}

func TestGenerate_LastAxisFastest(t *testing.T) {
	m, err := New([]Axis{
		{Name: "a", Values: []string{"a0", "a1"}},
		{Name: "b", Values: []string{"b0", "b1", "b2"}},
	}, nil)
	require.NoError(t, err)

	var got []string
	for _, cfg := range m.Generate() {
		got = append(got, cfg.Tuple().Key())
	}
	assert.Equal(t, []string{"0.0", "0.1", "0.2", "1.0", "1.1", "1.2"}, got)
}

func TestGenerate_Deterministic(t *testing.T) {
	exclude := []ExclusionRule{{"compiler": "clang++-14", "build_type": "Release"}}

	m1, err := New(linuxAxes(), exclude)
	require.NoError(t, err)
	m2, err := New(linuxAxes(), exclude)
	require.NoError(t, err)

	first := m1.Generate()
	again := m1.Generate()
	other := m2.Generate()
	require.Len(t, again, len(first))
	require.Len(t, other, len(first))

	for i := range first {
		assert.Equal(t, first[i].Tuple(), again[i].Tuple())
		assert.Equal(t, first[i].String(), other[i].String())
		if i > 0 {
			assert.Equal(t, -1, first[i-1].Tuple().Compare(first[i].Tuple()), "generation order must be tuple order")
		}
	}
}

func TestGenerate_Exclusions(t *testing.T) {
	m, err := New(linuxAxes(), []ExclusionRule{
		{"compiler": "g++-10", "shared": "ON"},
	})
	require.NoError(t, err)

	configs := m.Generate()
	assert.Len(t, configs, 12-3)
	for _, cfg := range configs {
		if cfg.Get("compiler") == "g++-10" {
			assert.Equal(t, "OFF", cfg.Get("shared"))
		}
	}
}

func TestExclusionRule_Matches(t *testing.T) {
	m, err := New(linuxAxes(), nil)
	require.NoError(t, err)
	cfg, err := m.Configuration(map[string]string{
		"compiler":   "clang++-14",
		"shared":     "ON",
		"build_type": "Debug",
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		rule ExclusionRule
		want bool
	}{
		{"full match", ExclusionRule{"compiler": "clang++-14", "shared": "ON"}, true},
		{"single key", ExclusionRule{"build_type": "Debug"}, true},
		{"one value differs", ExclusionRule{"compiler": "clang++-14", "shared": "OFF"}, false},
		{"absent axis never matches", ExclusionRule{"compiler": "clang++-14", "sanitizers": "ON"}, false},
		{"only absent axis", ExclusionRule{"sanitizers": "ON"}, false},
		{"empty rule", ExclusionRule{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Matches(cfg))
		})
	}
}

func TestGenerate_RuleOnAbsentAxisKeepsEverything(t *testing.T) {
	m, err := New(linuxAxes(), []ExclusionRule{{"sanitizers": "ON", "compiler": "g++-10"}})
	require.NoError(t, err)
	assert.Len(t, m.Generate(), 12)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		axes    []Axis
		exclude []ExclusionRule
		field   string
	}{
		{"no axes", nil, nil, "axes"},
		{"empty name", []Axis{{Values: []string{"x"}}}, nil, "axes[0]"},
		{"duplicate axis", []Axis{{Name: "a", Values: []string{"x"}}, {Name: "a", Values: []string{"y"}}}, nil, "axes[1]"},
		{"empty values", []Axis{{Name: "a"}}, nil, "axis a"},
		{"duplicate value", []Axis{{Name: "a", Values: []string{"x", "x"}}}, nil, "axis a"},
		{"empty rule", []Axis{{Name: "a", Values: []string{"x"}}}, []ExclusionRule{{}}, "exclude[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.axes, tt.exclude)
			var declErr *DeclarationError
			require.ErrorAs(t, err, &declErr)
			assert.Equal(t, tt.field, declErr.Field)
		})
	}
}

func TestNew_CopiesInput(t *testing.T) {
	axes := linuxAxes()
	m, err := New(axes, nil)
	require.NoError(t, err)

	axes[0].Values[0] = "mutated"
	assert.Equal(t, "g++-10", m.Axes()[0].Values[0])
}

func TestConfiguration_Validation(t *testing.T) {
	m, err := New(linuxAxes(), nil)
	require.NoError(t, err)

	_, err = m.Configuration(map[string]string{"compiler": "g++-10", "shared": "ON"})
	assert.ErrorContains(t, err, `missing value for axis "build_type"`)

	_, err = m.Configuration(map[string]string{"compiler": "icc", "shared": "ON", "build_type": "Debug"})
	assert.ErrorContains(t, err, "not declared")

	_, err = m.Configuration(map[string]string{"compiler": "g++-10", "shared": "ON", "build_type": "Debug", "std": "20"})
	assert.ErrorContains(t, err, `unknown axis "std"`)

	cfg, err := m.Configuration(map[string]string{"compiler": "clang++-14", "shared": "OFF", "build_type": "Release"})
	require.NoError(t, err)
	assert.Equal(t, IndexTuple{1, 0, 2}, cfg.Tuple())
	assert.Equal(t, "compiler=clang++-14 shared=OFF build_type=Release", cfg.String())
	assert.Equal(t, []string{"clang++-14", "OFF", "Release"}, cfg.Literals())
}

func TestAt_RoundTrip(t *testing.T) {
	m, err := New(linuxAxes(), nil)
	require.NoError(t, err)

	for _, cfg := range m.Generate() {
		back, err := m.At(cfg.Tuple())
		require.NoError(t, err)
		assert.True(t, cfg.Equal(back))
	}

	_, err = m.At(IndexTuple{0, 0})
	assert.Error(t, err)
	_, err = m.At(IndexTuple{0, 2, 0})
	assert.Error(t, err)
}

func TestRestrict(t *testing.T) {
	m, err := New(linuxAxes(), []ExclusionRule{{"compiler": "g++-10", "build_type": "Release"}})
	require.NoError(t, err)

	shared, err := m.Restrict("shared", []string{"ON"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ON"}, shared.Axes()[1].Values)
	assert.Len(t, shared.Generate(), 2*3-1)

	_, err = m.Restrict("shared", []string{"MAYBE"})
	assert.Error(t, err)
	_, err = m.Restrict("nope", []string{"ON"})
	assert.Error(t, err)
}

func TestConfiguration_Zero(t *testing.T) {
	var cfg Configuration
	assert.True(t, cfg.IsZero())
	_, ok := cfg.Value("compiler")
	assert.False(t, ok)
	assert.Equal(t, "<none>", cfg.String())
}

func TestFingerprint_IndependentOfAxisOrder(t *testing.T) {
	m1, err := New([]Axis{
		{Name: "compiler", Values: []string{"g++-10", "clang++-14"}},
		{Name: "shared", Values: []string{"OFF", "ON"}},
	}, nil)
	require.NoError(t, err)
	m2, err := New([]Axis{
		{Name: "shared", Values: []string{"ON", "OFF"}},
		{Name: "compiler", Values: []string{"clang++-14", "g++-10", "icc"}},
	}, nil)
	require.NoError(t, err)

	c1, err := m1.Configuration(map[string]string{"compiler": "g++-10", "shared": "ON"})
	require.NoError(t, err)
	c2, err := m2.Configuration(map[string]string{"compiler": "g++-10", "shared": "ON"})
	require.NoError(t, err)
	c3, err := m2.Configuration(map[string]string{"compiler": "g++-10", "shared": "OFF"})
	require.NoError(t, err)

	assert.Equal(t, c1.Fingerprint(), c2.Fingerprint())
	assert.NotEqual(t, c1.Fingerprint(), c3.Fingerprint())
	assert.Len(t, c1.Fingerprint(), 64)
}
