package config

import (
	"fmt"

	"github.com/roach88/tracematrix/internal/fixture"
	"github.com/roach88/tracematrix/internal/matrix"
)

// CompilerAxis is filled from Platform.Compilers when declared without
// values.
const CompilerAxis = "compiler"

// File is a complete matrix declaration.
type File struct {
	Fixtures  FixtureConfig       `yaml:"fixtures" json:"fixtures"`
	Tags      TagConfig           `yaml:"tags" json:"tags"`
	Variant   VariantConfig       `yaml:"variant" json:"variant"`
	Platforms map[string]Platform `yaml:"platforms" json:"platforms"`
}

// FixtureConfig locates the fixture library and sets line tolerance.
type FixtureConfig struct {
	Dir string `yaml:"dir" json:"dir"`

	// LineTolerance defaults to fixture.DefaultLineTolerance.
	LineTolerance *int `yaml:"line_tolerance,omitempty" json:"line_tolerance,omitempty"`

	// ExactLines lists tag sets whose capture strategy reports exact line
	// numbers; matching configurations get zero tolerance.
	ExactLines [][]string `yaml:"exact_lines,omitempty" json:"exact_lines,omitempty"`
}

// TagConfig declares how configurations map to fixture tags.
type TagConfig struct {
	Toolchains []fixture.ToolchainRule `yaml:"toolchains,omitempty" json:"toolchains,omitempty"`
	Features   map[string]string       `yaml:"features,omitempty" json:"features,omitempty"`
	Defaults   []string                `yaml:"defaults,omitempty" json:"defaults,omitempty"`

	// DerivePrefix, when set, adds a feature tag for every option axis value
	// not listed in Features or Defaults, by stripping the prefix and
	// lower-casing. The table is built once at load time.
	DerivePrefix string `yaml:"derive_prefix,omitempty" json:"derive_prefix,omitempty"`
}

// VariantConfig names the axis selecting shared or static libraries.
type VariantConfig struct {
	Axis   string `yaml:"axis" json:"axis"`
	Shared string `yaml:"shared" json:"shared"`
	Static string `yaml:"static" json:"static"`
}

// Platform holds everything declared for one host OS.
type Platform struct {
	OS        string      `yaml:"os" json:"os"`
	Compilers []string    `yaml:"compilers" json:"compilers"`
	Build     BuildConfig `yaml:"build" json:"build"`
	Suites    []Suite     `yaml:"suites" json:"suites"`
}

// BuildConfig drives CMake for one platform.
type BuildConfig struct {
	Generator    string   `yaml:"generator,omitempty" json:"generator,omitempty"`
	BuildCommand []string `yaml:"build_command" json:"build_command"`
	Defines      []Define `yaml:"defines,omitempty" json:"defines,omitempty"`
	Args         []string `yaml:"args,omitempty" json:"args,omitempty"`

	// SourceDir is relative to the build directory; default "..".
	SourceDir string `yaml:"source_dir,omitempty" json:"source_dir,omitempty"`

	// BuildDir is relative to the work directory; default "build".
	BuildDir string `yaml:"build_dir,omitempty" json:"build_dir,omitempty"`
}

// Define is one -D<Name>=<value> argument. The value comes from Axis when
// set (and the define is skipped for suites without that axis), else Value.
// When restricts the define to configurations holding all listed values.
// CCounterpart maps a C++ compiler value to its C compiler.
type Define struct {
	Name         string            `yaml:"name" json:"name"`
	Axis         string            `yaml:"axis,omitempty" json:"axis,omitempty"`
	Value        string            `yaml:"value,omitempty" json:"value,omitempty"`
	When         map[string]string `yaml:"when,omitempty" json:"when,omitempty"`
	CCounterpart bool              `yaml:"c_counterpart,omitempty" json:"c_counterpart,omitempty"`
}

// Suite is one matrix plus what to do for each of its configurations.
type Suite struct {
	Name    string              `yaml:"name" json:"name"`
	Axes    []AxisConfig        `yaml:"axes" json:"axes"`
	Exclude []map[string]string `yaml:"exclude,omitempty" json:"exclude,omitempty"`

	// PurgeOn lists axes whose change between consecutive configurations
	// discards the build directory.
	PurgeOn []string `yaml:"purge_on,omitempty" json:"purge_on,omitempty"`

	// Options lists axes whose value is itself a CMake option turned On.
	Options []string `yaml:"options,omitempty" json:"options,omitempty"`

	// Raw lists axes whose non-empty value is passed to CMake verbatim.
	Raw []string `yaml:"raw,omitempty" json:"raw,omitempty"`

	// Defines are appended after the platform's build defines.
	Defines []Define   `yaml:"defines,omitempty" json:"defines,omitempty"`
	Args    []string   `yaml:"args,omitempty" json:"args,omitempty"`
	Test    TestConfig `yaml:"test" json:"test"`
}

// AxisConfig declares one axis.
type AxisConfig struct {
	Name   string   `yaml:"name" json:"name"`
	Values []string `yaml:"values,omitempty" json:"values,omitempty"`
}

// TestConfig lists what runs after a successful build. Commands execute in
// the build directory; every one must exit zero. Trace, when set, runs last
// and its stdout is checked against the fixture library. A "{axis}" token in
// any argument is replaced by that axis's value.
type TestConfig struct {
	Commands [][]string `yaml:"commands,omitempty" json:"commands,omitempty"`
	Trace    []string   `yaml:"trace,omitempty" json:"trace,omitempty"`
}

// Platform returns the named platform declaration.
func (f *File) Platform(name string) (Platform, error) {
	p, ok := f.Platforms[name]
	if !ok {
		return Platform{}, fmt.Errorf("platform %q is not declared", name)
	}
	return p, nil
}

// TagMapping builds the fixture tag table, deriving tags for undeclared
// option values when a derive prefix is configured.
func (f *File) TagMapping() (fixture.TagMapping, error) {
	features := make(map[string]string, len(f.Tags.Features))
	for k, v := range f.Tags.Features {
		features[k] = v
	}

	if f.Tags.DerivePrefix != "" {
		defaults := make(map[string]bool, len(f.Tags.Defaults))
		for _, d := range f.Tags.Defaults {
			defaults[d] = true
		}
		var pending []string
		for _, p := range f.Platforms {
			for _, s := range p.Suites {
				for _, value := range s.optionValues() {
					if _, ok := features[value]; ok || defaults[value] || value == "" {
						continue
					}
					pending = append(pending, value)
				}
			}
		}
		derived, err := fixture.DeriveFeatureTags(f.Tags.DerivePrefix, pending)
		if err != nil {
			return fixture.TagMapping{}, err
		}
		for k, v := range derived {
			features[k] = v
		}
	}

	m := fixture.TagMapping{
		Toolchains: f.Tags.Toolchains,
		Features:   features,
		Defaults:   f.Tags.Defaults,
	}
	return m, m.Validate()
}

// TolerancePolicy returns the line tolerance policy.
func (f *File) TolerancePolicy() fixture.TolerancePolicy {
	def := fixture.DefaultLineTolerance
	if f.Fixtures.LineTolerance != nil {
		def = *f.Fixtures.LineTolerance
	}
	return fixture.ExactLinePolicy{Default: def, Exact: f.Fixtures.ExactLines}
}

// Matrix builds the suite's matrix for platform p.
func (s Suite) Matrix(p Platform) (*matrix.Matrix, error) {
	axes := make([]matrix.Axis, len(s.Axes))
	for i, a := range s.Axes {
		values := a.Values
		if a.Name == CompilerAxis && len(values) == 0 {
			values = p.Compilers
		}
		axes[i] = matrix.Axis{Name: a.Name, Values: values}
	}

	rules := make([]matrix.ExclusionRule, len(s.Exclude))
	for i, r := range s.Exclude {
		rules[i] = matrix.ExclusionRule(r)
	}

	m, err := matrix.New(axes, rules)
	if err != nil {
		return nil, fmt.Errorf("suite %s: %w", s.Name, err)
	}
	return m, nil
}

// HasAxis reports whether the suite declares the named axis.
func (s Suite) HasAxis(name string) bool {
	for _, a := range s.Axes {
		if a.Name == name {
			return true
		}
	}
	return false
}

func (s Suite) optionValues() []string {
	var out []string
	for _, a := range s.Axes {
		for _, o := range s.Options {
			if a.Name == o {
				out = append(out, a.Values...)
			}
		}
	}
	return out
}
