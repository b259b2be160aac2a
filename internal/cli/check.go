package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/roach88/tracematrix/internal/fixture"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Compiler string
	OS       string
	Options  []string
	Fixtures string
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Fixture    string   `json:"fixture"`
	Tags       []string `json:"tags"`
	Tolerance  int      `json:"tolerance"`
	Passed     bool     `json:"passed"`
	Mismatches []string `json:"mismatches,omitempty"`
	Diff       string   `json:"diff,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check [trace-file]",
		Short: "Compare a captured stack trace with the fixture library",
		Long: `Compare a trace captured from the test binary (file||line||symbol per line)
with the best matching reference fixture. The trace is read from the file
argument, or from stdin when none is given.

Exits 0 on a match, 1 on a mismatch or empty trace and 2 when no fixture
(or more than one) matches the tags.

Example:
  ./test | tracematrix check --compiler g++-10 --option CPPTRACE_GET_SYMBOLS_WITH_ADDR2LINE
  tracematrix check --compiler cl --os windows trace.txt`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Compiler, "compiler", "", "compiler the trace was built with (required)")
	cmd.Flags().StringVar(&opts.OS, "os", "", "OS family (linux|macos|windows); host OS if empty")
	cmd.Flags().StringSliceVar(&opts.Options, "option", nil, "backend options of the build")
	cmd.Flags().StringVar(&opts.Fixtures, "fixtures", "", "fixture directory; the declaration's if empty")
	_ = cmd.MarkFlagRequired("compiler")

	return cmd
}

func runCheck(opts *CheckOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	decl, _, err := loadDeclaration(opts.RootOptions, f)
	if err != nil {
		return err
	}

	goos := opts.OS
	if goos == "" {
		goos = runtime.GOOS
	}
	osFamily, err := fixture.OSFamily(goos)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodePlatform, "resolve OS", err)
	}

	mapping, err := decl.TagMapping()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "build tag mapping", err)
	}
	tags, err := mapping.Tags(opts.Compiler, osFamily, opts.Options)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "derive tags", err)
	}

	dir := opts.Fixtures
	if dir == "" {
		dir = fixturesDir(decl, ".")
	}
	lib, err := fixture.LoadLibrary(dir)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "load fixtures", err)
	}

	actual, err := readTrace(args, cmd.InOrStdin())
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "read trace", err)
	}

	cmp, err := fixture.NewMatcher(lib, decl.TolerancePolicy(), logger).Check(actual, tags)
	switch {
	case fixture.IsEmptyOutput(err):
		return f.Fail(ExitFailure, ErrCodeEmptyTrace, "No output from test", nil)
	case fixture.IsSelectionError(err):
		return f.Fail(ExitCommandError, selectionFailure(err), "select fixture", err)
	case err != nil:
		return f.Fail(ExitCommandError, ErrCodeGeneric, "compare trace", err)
	}

	res := CheckResult{
		Fixture:   cmp.Fixture.Name,
		Tags:      cmp.Tags,
		Tolerance: cmp.Tolerance,
		Passed:    cmp.Passed(),
	}
	for _, m := range cmp.Mismatches {
		res.Mismatches = append(res.Mismatches, m.String())
	}
	if !res.Passed {
		res.Diff = cmp.Diff()
	}

	if f.IsJSON() {
		if err := f.Success(res); err != nil {
			return err
		}
	} else if res.Passed {
		fmt.Fprintf(f.Writer, "[🟢 Trace matched %s]\n", res.Fixture)
	} else {
		fmt.Fprintf(f.Writer, "[🔴 Trace does not match %s]\n", res.Fixture)
		fmt.Fprint(f.Writer, cmp.Report())
		fmt.Fprint(f.Writer, res.Diff)
	}

	if !res.Passed {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: trace does not match %s", ErrCodeMismatch, res.Fixture))
	}
	return nil
}

func readTrace(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
