package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/tracematrix/internal/build"
	"github.com/roach88/tracematrix/internal/config"
	"github.com/roach88/tracematrix/internal/coordinator"
	"github.com/roach88/tracematrix/internal/fixture"
	"github.com/roach88/tracematrix/internal/process"
	"github.com/roach88/tracematrix/internal/report"
	"github.com/roach88/tracematrix/internal/store"
	"github.com/roach88/tracematrix/internal/testutil"
)

// purgeMarker is dropped into the build directory before each step; its
// absence afterwards means the driver discarded the directory.
const purgeMarker = ".harness-marker"

// Harness holds the state of one scenario run.
type Harness struct {
	result *Result
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh temporary work directory and a fresh
// in-memory database for isolation. A fatal step error is recorded in
// Result.Fatal rather than returned; the returned error covers scenarios
// that cannot be set up at all.
func Run(scenario *Scenario) (*Result, error) {
	decl, err := config.ParseYAML([]byte(scenario.Declaration))
	if err != nil {
		return nil, fmt.Errorf("declaration: %w", err)
	}
	p, err := decl.Platform(scenario.Platform)
	if err != nil {
		return nil, err
	}
	suite, err := findSuite(p, scenario.Suite)
	if err != nil {
		return nil, err
	}
	m, err := suite.Matrix(p)
	if err != nil {
		return nil, err
	}
	tags, err := decl.TagMapping()
	if err != nil {
		return nil, fmt.Errorf("tag mapping: %w", err)
	}

	workDir, err := os.MkdirTemp("", "tracematrix-harness-")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	fixtureDir := filepath.Join(workDir, decl.Fixtures.Dir)
	if err := writeFixtures(fixtureDir, scenario.Fixtures); err != nil {
		return nil, err
	}
	lib, err := fixture.LoadLibrary(fixtureDir)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:", store.WithClock(testutil.NewDeterministicClock()))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	runID := testutil.NewSequentialRunIDGenerator(scenario.Name).Generate()
	if _, err := st.BeginRun(ctx, runID, scenario.Platform, "scenario:"+scenario.Name); err != nil {
		return nil, err
	}

	h := &Harness{
		result: NewResult(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	h.result.RunID = runID

	var out strings.Builder
	exec := &recordingExecutor{next: scriptExecutor(scenario.Commands), h: h}
	driver, err := build.New(exec, p, suite,
		build.WithWorkDir(workDir),
		build.WithMatcher(fixture.NewMatcher(lib, decl.TolerancePolicy(), h.logger), tags),
		build.WithOutput(&out),
		build.WithLogger(h.logger),
	)
	if err != nil {
		return nil, err
	}

	coord := coordinator.New(m,
		coordinator.WithName(suite.Name),
		coordinator.WithLogger(h.logger),
		coordinator.WithReporter(report.NewTable(&out, report.ColorNever)),
		coordinator.WithReporter(store.NewRecorder(ctx, st, runID)),
	)
	results, runErr := coord.Run(ctx, h.step(driver))

	status := store.StatusPassed
	switch {
	case runErr != nil:
		h.result.Fatal = runErr.Error()
		status = store.StatusAborted
	case results.Failed():
		status = store.StatusFailed
	}
	if err := st.FinishRun(ctx, runID, status); err != nil {
		return nil, err
	}
	h.result.Output = out.String()

	stored, err := st.ReadResults(ctx, runID)
	if err != nil {
		return nil, err
	}

	actx := &AssertionContext{Results: results, Stored: stored}
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, actx) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

// step wraps the driver's step, recording purges and outcomes.
func (h *Harness) step(driver *build.Driver) coordinator.Step {
	return func(ctx context.Context, sc coordinator.StepContext) (bool, error) {
		marker := filepath.Join(driver.BuildDir(), purgeMarker)
		// fails while the build directory does not exist yet; the step
		// then necessarily creates it fresh
		_ = os.WriteFile(marker, nil, 0o644)
		mark := len(h.result.Trace)

		passed, err := driver.Step(ctx, sc)

		if _, statErr := os.Stat(marker); errors.Is(statErr, os.ErrNotExist) {
			purge := TraceEvent{Type: EventPurge, Config: sc.Current.String()}
			h.result.Trace = append(h.result.Trace[:mark], append([]TraceEvent{purge}, h.result.Trace[mark:]...)...)
		}
		if err != nil {
			h.renumber()
			return false, err
		}

		h.result.Trace = append(h.result.Trace, TraceEvent{
			Type:   EventOutcome,
			Config: sc.Current.String(),
			Passed: passed,
		})
		h.renumber()
		return passed, nil
	}
}

// renumber assigns sequence numbers in trace order.
func (h *Harness) renumber() {
	for i := range h.result.Trace {
		h.result.Trace[i].Seq = int64(i + 1)
	}
}

func (h *Harness) recordCommand(cmd process.Command) {
	h.result.Trace = append(h.result.Trace, TraceEvent{
		Type:    EventCommand,
		Seq:     int64(len(h.result.Trace) + 1),
		Command: cmd.String(),
	})
}

// recordingExecutor records every command before handing it to next.
type recordingExecutor struct {
	next process.Executor
	h    *Harness
}

func (e *recordingExecutor) Run(ctx context.Context, cmd process.Command) *process.Result {
	e.h.recordCommand(cmd)
	return e.next.Run(ctx, cmd)
}

func scriptExecutor(scripts []CommandScript) *testutil.ScriptedExecutor {
	exec := testutil.NewScriptedExecutor()
	for _, s := range scripts {
		if s.Once {
			exec.Once(s.Match, s.Exit, s.Stdout, s.Stderr)
		} else {
			exec.On(s.Match, s.Exit, s.Stdout, s.Stderr)
		}
	}
	return exec
}

func findSuite(p config.Platform, name string) (config.Suite, error) {
	for _, s := range p.Suites {
		if s.Name == name {
			return s, nil
		}
	}
	return config.Suite{}, fmt.Errorf("suite %q is not declared", name)
}

func writeFixtures(dir string, fixtures map[string]string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create fixture directory: %w", err)
	}
	for name, content := range fixtures {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write fixture %s: %w", name, err)
		}
	}
	return nil
}
