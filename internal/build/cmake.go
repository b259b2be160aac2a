package build

import (
	"strings"

	"github.com/roach88/tracematrix/internal/config"
	"github.com/roach88/tracematrix/internal/matrix"
)

// ConfigureArgs builds the CMake configure arguments for cfg, in order:
// source dir, generator, platform defines, suite defines, option axes as
// -D<value>=On, raw axes verbatim, then extra args.
func (d *Driver) ConfigureArgs(cfg matrix.Configuration) []string {
	b := d.platform.Build
	args := []string{b.SourceDir}
	if b.Generator != "" {
		args = append(args, "-G"+b.Generator)
	}

	args = appendDefines(args, b.Defines, cfg)
	args = appendDefines(args, d.suite.Defines, cfg)

	for _, axis := range d.suite.Options {
		if v, ok := cfg.Value(axis); ok && v != "" {
			args = append(args, "-D"+v+"=On")
		}
	}
	for _, axis := range d.suite.Raw {
		if v, ok := cfg.Value(axis); ok && v != "" {
			args = append(args, v)
		}
	}

	args = append(args, b.Args...)
	return append(args, d.suite.Args...)
}

func appendDefines(args []string, defines []config.Define, cfg matrix.Configuration) []string {
	for _, def := range defines {
		if len(def.When) > 0 && !matrix.ExclusionRule(def.When).Matches(cfg) {
			continue
		}
		value := def.Value
		if def.Axis != "" {
			v, ok := cfg.Value(def.Axis)
			if !ok {
				continue
			}
			value = v
			if def.CCounterpart {
				value = CCompiler(v)
			}
		}
		args = append(args, "-D"+def.Name+"="+value)
	}
	return args
}

// CCompiler returns the C compiler paired with a C++ compiler:
// clang++ becomes clang and g++ becomes gcc. Other names are unchanged.
func CCompiler(cxx string) string {
	return strings.ReplaceAll(strings.ReplaceAll(cxx, "clang++", "clang"), "g++", "gcc")
}
