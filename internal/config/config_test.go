package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracematrix/internal/fixture"
)

const minimalYAML = `
fixtures:
  dir: expected
  exact_lines: [[libdwarf]]
tags:
  features:
    CPPTRACE_GET_SYMBOLS_WITH_LIBDWARF: libdwarf
  defaults: [CPPTRACE_UNWIND_WITH_UNWIND]
platforms:
  linux:
    os: linux
    compilers: [g++-10, clang++-14]
    build:
      build_command: [ninja]
      defines:
        - {name: CMAKE_CXX_COMPILER, axis: compiler}
    suites:
      - name: trace
        axes:
          - {name: compiler}
          - {name: symbols, values: [CPPTRACE_GET_SYMBOLS_WITH_LIBDWARF]}
          - {name: unwind, values: [CPPTRACE_UNWIND_WITH_UNWIND]}
        exclude:
          - {compiler: clang++-14, symbols: CPPTRACE_GET_SYMBOLS_WITH_LIBDWARF}
        purge_on: [compiler]
        options: [symbols, unwind]
        test:
          trace: [./test]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	f, err := Load(writeFile(t, "matrix.yaml", minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "expected", f.Fixtures.Dir)
	assert.Equal(t, "shared", f.Variant.Axis)
	assert.Equal(t, "ON", f.Variant.Shared)
	assert.Equal(t, "OFF", f.Variant.Static)

	p, err := f.Platform("linux")
	require.NoError(t, err)
	assert.Equal(t, "..", p.Build.SourceDir)
	assert.Equal(t, "build", p.Build.BuildDir)
	require.Len(t, p.Suites, 1)

	m, err := p.Suites[0].Matrix(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"compiler", "symbols", "unwind"}, m.AxisNames())
	assert.Equal(t, 2, m.Size())
	assert.Len(t, m.Exclusions(), 1)
}

func TestLoad_YAMLRejectsUnknownFields(t *testing.T) {
	_, err := Load(writeFile(t, "matrix.yml", "platform: {}\n"))
	require.Error(t, err)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeParse, le.Code)
	assert.Contains(t, err.Error(), "matrix.yml")
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, ErrCodeNotFound, le.Code)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := Load(writeFile(t, "matrix.json", "{}"))
		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, ErrCodeFormat, le.Code)
	})

	t.Run("invalid declaration", func(t *testing.T) {
		_, err := Load(writeFile(t, "matrix.yaml", "platforms: {}\n"))
		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, ErrCodeValidation, le.Code)
		assert.True(t, IsLoadError(err))
	})
}

func TestLoad_CUE(t *testing.T) {
	const src = `
_compilers: ["g++-10", "clang++-14"]

fixtures: dir: "expected"
platforms: linux: {
	os:        "linux"
	compilers: _compilers
	build: build_command: ["ninja"]
	suites: [{
		name: "unittest"
		axes: [
			{name: "compiler"},
			{name: "shared", values: ["OFF", "ON"]},
		]
		purge_on: ["compiler", "shared"]
		test: commands: [["./unittest"]]
	}]
}
`
	f, err := Load(writeFile(t, "matrix.cue", src))
	require.NoError(t, err)

	p, err := f.Platform("linux")
	require.NoError(t, err)
	assert.Equal(t, []string{"g++-10", "clang++-14"}, p.Compilers)

	m, err := p.Suites[0].Matrix(p)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Size())
}

func TestLoad_CUEErrors(t *testing.T) {
	t.Run("syntax", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.cue", "platforms: {\n"))
		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, ErrCodeParse, le.Code)
	})

	t.Run("conflict", func(t *testing.T) {
		_, err := Load(writeFile(t, "conflict.cue", "fixtures: dir: \"a\"\nfixtures: dir: \"b\"\n"))
		var le *LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, ErrCodeParse, le.Code)
	})
}

func TestValidate(t *testing.T) {
	base := func() *File {
		f, err := ParseYAML([]byte(minimalYAML))
		require.NoError(t, err)
		return f
	}

	tests := []struct {
		name    string
		mutate  func(f *File)
		wantErr string
	}{
		{
			name: "unknown os",
			mutate: func(f *File) {
				p := f.Platforms["linux"]
				p.OS = "plan9"
				f.Platforms["linux"] = p
			},
			wantErr: "unsupported operating system",
		},
		{
			name: "unknown compiler family",
			mutate: func(f *File) {
				p := f.Platforms["linux"]
				p.Compilers = []string{"icc"}
				f.Platforms["linux"] = p
			},
			wantErr: "no toolchain family",
		},
		{
			name: "purge axis not declared",
			mutate: func(f *File) {
				f.Platforms["linux"].Suites[0].PurgeOn = []string{"shared"}
			},
			wantErr: `purge_on: axis "shared" is not declared`,
		},
		{
			name: "option without tag",
			mutate: func(f *File) {
				f.Platforms["linux"].Suites[0].Axes[1].Values = []string{"CPPTRACE_GET_SYMBOLS_WITH_LIBDL"}
			},
			wantErr: "has no declared feature tag",
		},
		{
			name: "empty exclusion rule",
			mutate: func(f *File) {
				f.Platforms["linux"].Suites[0].Exclude = []map[string]string{{}}
			},
			wantErr: "rule must name at least one axis",
		},
		{
			name: "define with axis and value",
			mutate: func(f *File) {
				p := f.Platforms["linux"]
				p.Build.Defines = []Define{{Name: "X", Axis: "compiler", Value: "On"}}
				f.Platforms["linux"] = p
			},
			wantErr: "exactly one of axis and value",
		},
		{
			name: "no test commands",
			mutate: func(f *File) {
				f.Platforms["linux"].Suites[0].Test = TestConfig{}
			},
			wantErr: "at least one command",
		},
		{
			name: "negative tolerance",
			mutate: func(f *File) {
				n := -1
				f.Fixtures.LineTolerance = &n
			},
			wantErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base()
			tt.mutate(f)
			err := f.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefault(t *testing.T) {
	f := Default()
	require.NotNil(t, f)

	for _, name := range []string{"linux", "macos", "windows"} {
		_, err := f.Platform(name)
		assert.NoError(t, err, name)
	}

	linux, err := f.Platform("linux")
	require.NoError(t, err)
	require.NotEmpty(t, linux.Suites)
	unittest := linux.Suites[0]
	assert.Equal(t, "unittest", unittest.Name)
	assert.Equal(t, []string{"compiler", "shared"}, unittest.PurgeOn)

	m, err := unittest.Matrix(linux)
	require.NoError(t, err)
	assert.Equal(t, 2*2*2*2*2*2*2, m.Size())

	macos, err := f.Platform("macos")
	require.NoError(t, err)
	mm, err := macos.Suites[0].Matrix(macos)
	require.NoError(t, err)
	excluded := 0
	for _, cfg := range mm.Generate() {
		if mm.Excluded(cfg) {
			excluded++
		}
	}
	assert.Equal(t, 4, excluded)
}

func TestPlatform_Unknown(t *testing.T) {
	_, err := Default().Platform("haiku")
	assert.ErrorContains(t, err, `platform "haiku" is not declared`)
}

func TestTagMapping_DerivePrefix(t *testing.T) {
	f, err := ParseYAML([]byte(minimalYAML))
	require.NoError(t, err)

	f.Tags.Features = nil
	f.Tags.DerivePrefix = "CPPTRACE_GET_SYMBOLS_WITH_"

	tags, err := f.TagMapping()
	require.NoError(t, err)
	assert.Equal(t, "libdwarf", tags.Features["CPPTRACE_GET_SYMBOLS_WITH_LIBDWARF"])
	assert.NotContains(t, tags.Features, "CPPTRACE_UNWIND_WITH_UNWIND")

	got, err := tags.Tags("g++-10", fixture.OSLinux, []string{"CPPTRACE_GET_SYMBOLS_WITH_LIBDWARF", "CPPTRACE_UNWIND_WITH_UNWIND"})
	require.NoError(t, err)
	assert.Equal(t, []string{"gcc", "linux", "libdwarf"}, got)
}

func TestTolerancePolicy(t *testing.T) {
	f, err := ParseYAML([]byte(minimalYAML))
	require.NoError(t, err)

	policy := f.TolerancePolicy()
	assert.Equal(t, 0, policy.Tolerance([]string{"gcc", "linux", "libdwarf"}))
	assert.Equal(t, fixture.DefaultLineTolerance, policy.Tolerance([]string{"gcc", "linux"}))

	n := 5
	f.Fixtures.LineTolerance = &n
	assert.Equal(t, 5, f.TolerancePolicy().Tolerance([]string{"clang", "linux"}))
}

func TestSuite_HasAxis(t *testing.T) {
	s := Suite{Axes: []AxisConfig{{Name: "compiler"}, {Name: "std", Values: []string{"11"}}}}
	assert.True(t, s.HasAxis("std"))
	assert.False(t, s.HasAxis("shared"))
}
