package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/tracematrix/internal/build"
	"github.com/roach88/tracematrix/internal/config"
	"github.com/roach88/tracematrix/internal/coordinator"
	"github.com/roach88/tracematrix/internal/fixture"
	"github.com/roach88/tracematrix/internal/process"
	"github.com/roach88/tracematrix/internal/report"
	"github.com/roach88/tracematrix/internal/store"
)

// FailureBanner is printed after the tables when any configuration failed.
const FailureBanner = "🔴 Some checks failed"

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	GCC, Clang, MSVC bool
	Shared, Static   bool
	Suites           []string
	WorkDir          string
	Database         string
	Summary          string
	ShowOutput       bool
	NoColor          bool

	// Executor allows overriding the process runner (for testing).
	// If nil, commands run as child processes.
	Executor process.Executor

	// RunIDGenerator allows overriding run ids (for testing).
	// If nil, defaults to store.UUIDv7Generator.
	RunIDGenerator store.RunIDGenerator
}

// RunSummary is the JSON payload of a finished run.
type RunSummary struct {
	RunID    string         `json:"run_id,omitempty"`
	Platform string         `json:"platform"`
	Suites   []SuiteSummary `json:"suites"`
	Passed   bool           `json:"passed"`
}

// SuiteSummary counts the outcomes of one suite.
type SuiteSummary struct {
	Name   string `json:"name"`
	Passed int    `json:"passed"`
	Failed int    `json:"failed"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build and test every configuration of the matrix",
		Long: `Expand the declared matrix for the platform, then configure, build and test
each configuration in order. The build directory is reused between
configurations unless a purge axis changed.

Exits 0 when every configuration passed, 1 when any failed and 2 on
declaration errors or when a trace has no usable fixture.

Example:
  tracematrix run --gcc --static
  tracematrix run --config matrix.yaml --suite backends --db runs.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatrix(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.GCC, "gcc", false, "run gcc configurations")
	cmd.Flags().BoolVar(&opts.Clang, "clang", false, "run clang configurations")
	cmd.Flags().BoolVar(&opts.MSVC, "msvc", false, "run msvc configurations")
	cmd.Flags().BoolVar(&opts.Shared, "shared", false, "run shared library configurations")
	cmd.Flags().BoolVar(&opts.Static, "static", false, "run static library configurations")
	cmd.Flags().StringSliceVar(&opts.Suites, "suite", nil, "suites to run (default all)")
	cmd.Flags().StringVar(&opts.WorkDir, "work-dir", ".", "directory holding the build directory and fixtures")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.Summary, "summary", "", "write a markdown summary to this file")
	cmd.Flags().BoolVar(&opts.ShowOutput, "show-output", false, "echo output of successful commands")
	cmd.Flags().BoolVar(&opts.NoColor, "no-color", false, "disable colored tables")

	return cmd
}

// Filter returns the suite filter selected by the flags.
func (o *RunOptions) Filter(variant config.VariantConfig) Filter {
	var flt Filter
	if o.GCC {
		flt.Families = append(flt.Families, fixture.ToolchainGCC)
	}
	if o.Clang {
		flt.Families = append(flt.Families, fixture.ToolchainClang)
	}
	if o.MSVC {
		flt.Families = append(flt.Families, fixture.ToolchainMSVC)
	}
	if o.Shared {
		flt.Variants = append(flt.Variants, variant.Shared)
	}
	if o.Static {
		flt.Variants = append(flt.Variants, variant.Static)
	}
	flt.Suites = o.Suites
	return flt
}

func runMatrix(opts *RunOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	// Command indicators and tables go to stderr when stdout carries JSON.
	out := cmd.OutOrStdout()
	if f.IsJSON() {
		out = cmd.ErrOrStderr()
	}

	decl, source, err := loadDeclaration(opts.RootOptions, f)
	if err != nil {
		return err
	}
	platformName, p, err := resolvePlatform(opts.RootOptions, decl, f)
	if err != nil {
		return err
	}
	plans, err := planSuites(decl, p, opts.Filter(decl.Variant), logger)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "plan suites", err)
	}
	if len(plans) == 0 {
		return f.Fail(ExitCommandError, ErrCodeNothingRun, "no suite left to run after filtering", nil)
	}

	workDir, err := filepath.Abs(opts.WorkDir)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "resolve work directory", err)
	}

	tags, err := decl.TagMapping()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "build tag mapping", err)
	}
	var matcher *fixture.Matcher
	if needsFixtures(plans) {
		dir := fixturesDir(decl, workDir)
		lib, err := fixture.LoadLibrary(dir)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeNotFound, "load fixtures", err)
		}
		logger.Debug("fixture library loaded", "dir", dir, "fixtures", len(lib.Fixtures()))
		matcher = fixture.NewMatcher(lib, decl.TolerancePolicy(), logger)
	}

	exec := opts.Executor
	if exec == nil {
		exec = process.NewRunner(out,
			process.WithLogger(logger),
			process.WithAlwaysShowOutput(opts.ShowOutput),
		)
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	rec, err := openRecorder(ctx, opts, platformName, source, logger)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, "open run history", err)
	}
	defer rec.close()

	color := report.ColorAuto
	if opts.NoColor {
		color = report.ColorNever
	}
	table := report.NewTable(out, color)
	var markdown bytes.Buffer
	md := report.NewMarkdown(&markdown)

	summary := RunSummary{RunID: rec.runID, Platform: platformName}
	for _, plan := range plans {
		driver, err := build.New(exec, p, plan.Suite,
			build.WithWorkDir(workDir),
			build.WithMatcher(matcher, tags),
			build.WithOutput(out),
			build.WithLogger(logger),
		)
		if err != nil {
			rec.finish(store.StatusAborted)
			return f.Fail(ExitCommandError, ErrCodeGeneric, "create build driver", err)
		}

		copts := []coordinator.Option{
			coordinator.WithName(plan.Suite.Name),
			coordinator.WithLogger(logger),
			coordinator.WithReporter(table),
		}
		if opts.Summary != "" {
			copts = append(copts, coordinator.WithReporter(md))
		}
		if rec.recorder != nil {
			copts = append(copts, coordinator.WithReporter(rec.recorder))
		}

		results, err := coordinator.New(plan.Matrix, copts...).Run(ctx, driver.Step)
		if err != nil {
			rec.finish(store.StatusAborted)
			return f.Fail(ExitCommandError, stepFailure(err), "suite "+plan.Suite.Name+" aborted", err)
		}
		summary.Suites = append(summary.Suites, SuiteSummary{
			Name:   plan.Suite.Name,
			Passed: results.PassedCount(),
			Failed: results.FailedCount(),
		})
	}

	if opts.Summary != "" {
		if err := os.WriteFile(opts.Summary, markdown.Bytes(), 0o644); err != nil {
			rec.finish(store.StatusAborted)
			return f.Fail(ExitCommandError, ErrCodeGeneric, "write summary", err)
		}
	}

	summary.Passed = true
	for _, s := range summary.Suites {
		if s.Failed > 0 {
			summary.Passed = false
		}
	}

	status := store.StatusPassed
	if !summary.Passed {
		status = store.StatusFailed
	}
	rec.finish(status)

	if f.IsJSON() {
		if err := f.Success(summary); err != nil {
			return err
		}
	}
	if !summary.Passed {
		fmt.Fprintln(out, FailureBanner)
		return NewExitError(ExitFailure, "some checks failed")
	}
	return nil
}

func needsFixtures(plans []suitePlan) bool {
	for _, p := range plans {
		if len(p.Suite.Test.Trace) > 0 {
			return true
		}
	}
	return false
}

func stepFailure(err error) string {
	switch {
	case fixture.IsSelectionError(err):
		return selectionFailure(err)
	case errors.Is(err, context.Canceled):
		return ErrCodeInterrupted
	}
	return ErrCodeGeneric
}

// runRecorder owns the optional run history of one invocation.
type runRecorder struct {
	ctx      context.Context
	store    *store.Store
	recorder *store.Recorder
	runID    string
	logger   *slog.Logger
}

func openRecorder(ctx context.Context, opts *RunOptions, platform, source string, logger *slog.Logger) (*runRecorder, error) {
	rec := &runRecorder{ctx: ctx, logger: logger}
	if opts.Database == "" {
		return rec, nil
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, err
	}
	gen := opts.RunIDGenerator
	if gen == nil {
		gen = store.UUIDv7Generator{}
	}
	run, err := st.BeginRun(ctx, gen.Generate(), platform, source)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	logger.Info("recording run", "run_id", run.ID, "seq", run.Seq, "db", opts.Database)

	rec.store = st
	rec.runID = run.ID
	rec.recorder = store.NewRecorder(ctx, st, run.ID)
	return rec, nil
}

// finish records the final status, even after ctx was cancelled.
func (r *runRecorder) finish(status store.RunStatus) {
	if r.store == nil {
		return
	}
	if err := r.store.FinishRun(context.WithoutCancel(r.ctx), r.runID, status); err != nil {
		r.logger.Error("error finishing run", "run_id", r.runID, "error", err)
	}
}

func (r *runRecorder) close() {
	if r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.logger.Error("error closing database", "error", err)
	}
}
