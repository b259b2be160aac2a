package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tracematrix/internal/config"
	"github.com/roach88/tracematrix/internal/fixture"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Fixtures string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool              `json:"valid"`
	Source    string            `json:"source"`
	Platforms []PlatformSummary `json:"platforms,omitempty"`
	Fixtures  int               `json:"fixtures,omitempty"`
	Errors    []ValidationIssue `json:"errors,omitempty"`
}

// PlatformSummary counts what a platform would run.
type PlatformSummary struct {
	Name           string `json:"name"`
	Suites         int    `json:"suites"`
	Configurations int    `json:"configurations"`
}

// ValidationIssue is one problem found in a declaration or fixture.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [declaration]",
		Short: "Check a matrix declaration and fixture library",
		Long: `Load and validate a matrix declaration without building anything. The
declaration is the argument, --config, or the built-in one. With --fixtures
every fixture in the directory is parsed too.

Example:
  tracematrix validate matrix.cue
  tracematrix validate --fixtures test/expected`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Config = args[0]
			}
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Fixtures, "fixtures", "", "fixture directory to parse")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	result := ValidationResult{Source: BuiltinSource}
	var decl *config.File
	if opts.Config == "" {
		decl = config.Default()
	} else {
		result.Source = opts.Config
		var err error
		decl, err = config.Load(opts.Config)
		if err != nil {
			result.Errors = append(result.Errors, loadIssues(err)...)
		}
	}

	if decl != nil {
		result.Platforms = summarizePlatforms(decl)
	}

	if opts.Fixtures != "" {
		n, issues := validateFixtures(opts.Fixtures)
		result.Fixtures = n
		result.Errors = append(result.Errors, issues...)
		formatter.VerboseLog("Parsed %d fixture(s) in %s", n, opts.Fixtures)
	}

	result.Valid = len(result.Errors) == 0
	return outputValidationResult(formatter, result)
}

// loadIssues splits a load error into one issue per reported problem.
func loadIssues(err error) []ValidationIssue {
	var le *config.LoadError
	if !errors.As(err, &le) {
		return []ValidationIssue{{Code: ErrCodeGeneric, Message: err.Error()}}
	}

	line := 0
	if le.Pos.IsValid() {
		line = le.Pos.Line()
	}
	var issues []ValidationIssue
	for _, msg := range strings.Split(le.Message, "\n") {
		if msg == "" {
			continue
		}
		issues = append(issues, ValidationIssue{Code: le.Code, Message: msg, File: le.Path, Line: line})
	}
	return issues
}

func summarizePlatforms(decl *config.File) []PlatformSummary {
	names := make([]string, 0, len(decl.Platforms))
	for name := range decl.Platforms {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]PlatformSummary, 0, len(names))
	for _, name := range names {
		p := decl.Platforms[name]
		s := PlatformSummary{Name: name, Suites: len(p.Suites)}
		for _, suite := range p.Suites {
			if m, err := suite.Matrix(p); err == nil {
				s.Configurations += len(m.Generate())
			}
		}
		out = append(out, s)
	}
	return out
}

func validateFixtures(dir string) (int, []ValidationIssue) {
	lib, err := fixture.LoadLibrary(dir)
	if err != nil {
		return 0, []ValidationIssue{{Code: ErrCodeNoFixture, Message: err.Error(), File: dir}}
	}
	var issues []ValidationIssue
	for _, f := range lib.Fixtures() {
		if _, err := lib.Load(f); err != nil {
			issues = append(issues, ValidationIssue{Code: ErrCodeNoFixture, Message: err.Error(), File: f.Path})
		}
	}
	return len(lib.Fixtures()), issues
}

func outputValidationResult(f *OutputFormatter, result ValidationResult) error {
	if f.IsJSON() {
		if err := f.Success(result); err != nil {
			return err
		}
	} else if result.Valid {
		fmt.Fprintf(f.Writer, "✓ %s is valid\n", result.Source)
		for _, p := range result.Platforms {
			fmt.Fprintf(f.Writer, "  %s: %d suite(s), %d configuration(s)\n", p.Name, p.Suites, p.Configurations)
		}
		if result.Fixtures > 0 {
			fmt.Fprintf(f.Writer, "  %d fixture(s)\n", result.Fixtures)
		}
	} else {
		fmt.Fprintf(f.Writer, "✗ %s has %d error(s)\n", result.Source, len(result.Errors))
		for _, e := range result.Errors {
			loc := ""
			if e.File != "" {
				loc = e.File
				if e.Line > 0 {
					loc = fmt.Sprintf("%s:%d", e.File, e.Line)
				}
				loc += ": "
			}
			fmt.Fprintf(f.Writer, "  [%s] %s%s\n", e.Code, loc, e.Message)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}
