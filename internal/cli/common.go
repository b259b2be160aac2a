package cli

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/roach88/tracematrix/internal/config"
	"github.com/roach88/tracematrix/internal/fixture"
)

// BuiltinSource names the built-in declaration in run history.
const BuiltinSource = "builtin"

// newLogger builds the structured logger: text on w, Debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// loadDeclaration returns the declaration named by --config, or the
// built-in one, plus its source label.
func loadDeclaration(opts *RootOptions, f *OutputFormatter) (*config.File, string, error) {
	if opts.Config == "" {
		return config.Default(), BuiltinSource, nil
	}
	decl, err := config.Load(opts.Config)
	if err != nil {
		code := ErrCodeGeneric
		var le *config.LoadError
		if errors.As(err, &le) {
			code = le.Code
		}
		return nil, "", f.Fail(ExitCommandError, code, "load declaration", err)
	}
	return decl, opts.Config, nil
}

// resolvePlatform picks the declared platform for --platform or the host.
func resolvePlatform(opts *RootOptions, decl *config.File, f *OutputFormatter) (string, config.Platform, error) {
	name := opts.Platform
	if name == "" {
		host, err := fixture.OSFamily(runtime.GOOS)
		if err != nil {
			return "", config.Platform{}, f.Fail(ExitCommandError, ErrCodePlatform, "resolve host platform", err)
		}
		name = host
	}
	p, err := decl.Platform(name)
	if err != nil {
		return "", config.Platform{}, f.Fail(ExitCommandError, ErrCodePlatform, "resolve platform", err)
	}
	return name, p, nil
}

// fixturesDir resolves the declaration's fixture directory against workDir.
func fixturesDir(decl *config.File, workDir string) string {
	if filepath.IsAbs(decl.Fixtures.Dir) {
		return decl.Fixtures.Dir
	}
	return filepath.Join(workDir, decl.Fixtures.Dir)
}

// selectionFailure maps a fixture selection error to its error code.
func selectionFailure(err error) string {
	var sel *fixture.SelectionError
	if errors.As(err, &sel) && sel.Kind == fixture.AmbiguousFixture {
		return ErrCodeAmbiguous
	}
	return ErrCodeNoFixture
}
