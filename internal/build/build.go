// Package build is the per-configuration step: it keeps or purges the build
// directory, drives CMake, runs the test commands and checks trace output
// against the fixture library.
package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/tracematrix/internal/config"
	"github.com/roach88/tracematrix/internal/coordinator"
	"github.com/roach88/tracematrix/internal/fixture"
	"github.com/roach88/tracematrix/internal/matrix"
	"github.com/roach88/tracematrix/internal/process"
)

// CMake is the configure program.
const CMake = "cmake"

// Driver builds and tests one suite's configurations. Its Step method is a
// coordinator.Step.
type Driver struct {
	exec     process.Executor
	platform config.Platform
	suite    config.Suite
	osFamily string
	workDir  string

	matcher *fixture.Matcher
	tags    fixture.TagMapping

	out    io.Writer
	logger *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithWorkDir sets the directory holding the build directory. Default is
// the current directory.
func WithWorkDir(dir string) Option {
	return func(d *Driver) { d.workDir = dir }
}

// WithMatcher enables trace checking. Suites with a trace command need it.
func WithMatcher(m *fixture.Matcher, tags fixture.TagMapping) Option {
	return func(d *Driver) {
		d.matcher = m
		d.tags = tags
	}
}

// WithOutput sets where failure details are printed.
func WithOutput(w io.Writer) Option {
	return func(d *Driver) { d.out = w }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) { d.logger = logger }
}

// New creates a Driver for suite on platform p.
func New(exec process.Executor, p config.Platform, suite config.Suite, opts ...Option) (*Driver, error) {
	osFamily, err := fixture.OSFamily(p.OS)
	if err != nil {
		return nil, err
	}
	d := &Driver{
		exec:     exec,
		platform: p,
		suite:    suite,
		osFamily: osFamily,
		workDir:  ".",
		out:      io.Discard,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	if len(suite.Test.Trace) > 0 && d.matcher == nil {
		return nil, fmt.Errorf("suite %s has a trace command but no fixture matcher", suite.Name)
	}
	return d, nil
}

// BuildDir returns the build directory path.
func (d *Driver) BuildDir() string {
	return filepath.Join(d.workDir, d.platform.Build.BuildDir)
}

// Step purges the build directory when a purge axis changed, then
// configures, builds and tests sc.Current. A failing command fails the
// configuration; fixture selection and load errors abort the run.
func (d *Driver) Step(ctx context.Context, sc coordinator.StepContext) (bool, error) {
	cfg := sc.Current
	dir := d.BuildDir()

	if ShouldPurge(sc, d.suite.PurgeOn) {
		d.logger.Debug("purging build directory", "dir", dir, "config", cfg.String())
		if err := os.RemoveAll(dir); err != nil {
			return false, fmt.Errorf("purge build directory: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create build directory: %w", err)
	}

	steps := []process.Command{
		{Program: CMake, Args: d.ConfigureArgs(cfg), Dir: dir},
		d.command(d.platform.Build.BuildCommand, cfg, dir),
	}
	for _, argv := range d.suite.Test.Commands {
		steps = append(steps, d.command(argv, cfg, dir))
	}

	for _, cmd := range steps {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if !d.exec.Run(ctx, cmd).Succeeded() {
			return false, nil
		}
	}

	if len(d.suite.Test.Trace) == 0 {
		return true, nil
	}
	return d.checkTrace(ctx, cfg, d.command(d.suite.Test.Trace, cfg, dir))
}

func (d *Driver) checkTrace(ctx context.Context, cfg matrix.Configuration, cmd process.Command) (bool, error) {
	result := d.exec.Run(ctx, cmd)
	if !result.Succeeded() {
		return false, nil
	}

	tags, err := d.Tags(cfg)
	if err != nil {
		return false, fmt.Errorf("derive tags: %w", err)
	}

	cmp, err := d.matcher.Check(string(result.Stdout), tags)
	switch {
	case fixture.IsEmptyOutput(err):
		fmt.Fprintln(d.out, "Error: No output from test")
		return false, nil
	case err != nil:
		return false, err
	}

	if cmp.Passed() {
		fmt.Fprintf(d.out, "[🟢 Trace matched %s]\n", cmp.Fixture.Name)
		return true, nil
	}

	fmt.Fprintf(d.out, "[🔴 Trace does not match %s]\n", cmp.Fixture.Name)
	fmt.Fprint(d.out, cmp.Report())
	if diff := cmp.Diff(); diff != "" {
		fmt.Fprint(d.out, diff)
	}
	fmt.Fprintln(d.out, "Test output:")
	fmt.Fprint(d.out, string(result.Stdout))
	if !strings.HasSuffix(string(result.Stdout), "\n") {
		fmt.Fprintln(d.out)
	}
	return false, nil
}

// Tags derives the fixture tags for cfg from its compiler and option axes.
func (d *Driver) Tags(cfg matrix.Configuration) ([]string, error) {
	compiler, ok := cfg.Value(config.CompilerAxis)
	if !ok {
		return nil, fmt.Errorf("configuration %s has no %s axis", cfg, config.CompilerAxis)
	}
	options := make([]string, 0, len(d.suite.Options))
	for _, axis := range d.suite.Options {
		if v, ok := cfg.Value(axis); ok {
			options = append(options, v)
		}
	}
	return d.tags.Tags(compiler, d.osFamily, options)
}

// ShouldPurge reports whether the build directory must be discarded before
// building sc.Current: always for the first configuration, otherwise when
// any of the purge axes changed.
func ShouldPurge(sc coordinator.StepContext, purgeOn []string) bool {
	return sc.Changed(purgeOn...)
}

func (d *Driver) command(argv []string, cfg matrix.Configuration, dir string) process.Command {
	expanded := Expand(argv, cfg)
	return process.Command{Program: expanded[0], Args: expanded[1:], Dir: dir}
}

// Expand replaces every "{axis}" token in argv with cfg's value for that
// axis. Unknown tokens are left alone.
func Expand(argv []string, cfg matrix.Configuration) []string {
	values := cfg.Values()
	pairs := make([]string, 0, 2*len(values))
	for axis, v := range values {
		pairs = append(pairs, "{"+axis+"}", v)
	}
	r := strings.NewReplacer(pairs...)

	out := make([]string, len(argv))
	for i, a := range argv {
		out[i] = r.Replace(a)
	}
	return out
}
