package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/tracematrix/internal/fixture"
)

// Validate checks the declaration as a whole. Every problem found is
// reported, joined into one error.
func (f *File) Validate() error {
	var errs []error

	if len(f.Platforms) == 0 {
		errs = append(errs, fmt.Errorf("platforms: at least one platform is required"))
	}
	if f.Fixtures.LineTolerance != nil && *f.Fixtures.LineTolerance < 0 {
		errs = append(errs, fmt.Errorf("fixtures.line_tolerance: must not be negative"))
	}
	for i, set := range f.Fixtures.ExactLines {
		if len(set) == 0 {
			errs = append(errs, fmt.Errorf("fixtures.exact_lines[%d]: empty tag set", i))
		}
	}

	tags, err := f.TagMapping()
	if err != nil {
		errs = append(errs, fmt.Errorf("tags: %w", err))
	}

	names := make([]string, 0, len(f.Platforms))
	for name := range f.Platforms {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p := f.Platforms[name]
		for _, e := range p.validate(tags, err == nil) {
			errs = append(errs, fmt.Errorf("platforms.%s: %w", name, e))
		}
	}
	return errors.Join(errs...)
}

func (p Platform) validate(tags fixture.TagMapping, checkTags bool) []error {
	var errs []error

	if _, err := fixture.OSFamily(p.OS); err != nil {
		errs = append(errs, fmt.Errorf("os: %w", err))
	}
	if len(p.Compilers) == 0 {
		errs = append(errs, fmt.Errorf("compilers: at least one compiler is required"))
	}
	if checkTags {
		for _, c := range p.Compilers {
			if _, err := tags.ToolchainFamily(c); err != nil {
				errs = append(errs, fmt.Errorf("compilers: %w", err))
			}
		}
	}
	if len(p.Build.BuildCommand) == 0 {
		errs = append(errs, fmt.Errorf("build.build_command: required"))
	}
	errs = append(errs, validateDefines("build.defines", p.Build.Defines)...)
	if len(p.Suites) == 0 {
		errs = append(errs, fmt.Errorf("suites: at least one suite is required"))
	}

	seen := make(map[string]bool, len(p.Suites))
	for i, s := range p.Suites {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("suites[%d]: name is required", i))
			continue
		}
		if seen[s.Name] {
			errs = append(errs, fmt.Errorf("suites[%d]: duplicate name %q", i, s.Name))
		}
		seen[s.Name] = true
		for _, e := range s.validate(p, tags, checkTags) {
			errs = append(errs, fmt.Errorf("suite %s: %w", s.Name, e))
		}
	}
	return errs
}

func (s Suite) validate(p Platform, tags fixture.TagMapping, checkTags bool) []error {
	var errs []error

	m, err := s.Matrix(p)
	if err != nil {
		return append(errs, err)
	}

	for _, group := range []struct {
		field string
		axes  []string
	}{
		{"purge_on", s.PurgeOn},
		{"options", s.Options},
		{"raw", s.Raw},
	} {
		for _, axis := range group.axes {
			if !m.HasAxis(axis) {
				errs = append(errs, fmt.Errorf("%s: axis %q is not declared", group.field, axis))
			}
		}
	}

	errs = append(errs, validateDefines("defines", s.Defines)...)

	if len(s.Test.Commands) == 0 && len(s.Test.Trace) == 0 {
		errs = append(errs, fmt.Errorf("test: at least one command or a trace command is required"))
	}
	for i, c := range s.Test.Commands {
		if len(c) == 0 {
			errs = append(errs, fmt.Errorf("test.commands[%d]: empty command", i))
		}
	}

	// Every option value must resolve to a tag before anything is built.
	if checkTags && len(s.Test.Trace) > 0 {
		for _, v := range s.optionValues() {
			if _, err := tags.FeatureTag(v); err != nil {
				errs = append(errs, fmt.Errorf("options: %w", err))
			}
		}
	}
	return errs
}

func validateDefines(field string, defines []Define) []error {
	var errs []error
	for i, d := range defines {
		if d.Name == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: name is required", field, i))
		}
		if (d.Axis == "") == (d.Value == "") {
			errs = append(errs, fmt.Errorf("%s[%d]: exactly one of axis and value is required", field, i))
		}
		if d.CCounterpart && d.Axis == "" {
			errs = append(errs, fmt.Errorf("%s[%d]: c_counterpart requires an axis", field, i))
		}
	}
	return errs
}
