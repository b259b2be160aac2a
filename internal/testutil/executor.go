package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/roach88/tracematrix/internal/process"
)

// ScriptedExecutor is a process.Executor that never launches anything.
// Commands succeed with empty output unless a script matches them.
type ScriptedExecutor struct {
	mu      sync.Mutex
	scripts []script
	calls   []process.Command
}

type script struct {
	match    string
	exitCode int
	stdout   string
	stderr   string
	once     bool
	used     bool
}

// NewScriptedExecutor creates an executor with no scripts.
func NewScriptedExecutor() *ScriptedExecutor {
	return &ScriptedExecutor{}
}

// On scripts every command whose rendered command line contains match. The
// first matching script wins.
func (e *ScriptedExecutor) On(match string, exitCode int, stdout, stderr string) *ScriptedExecutor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scripts = append(e.scripts, script{match: match, exitCode: exitCode, stdout: stdout, stderr: stderr})
	return e
}

// Once is like On but the script applies to a single call only.
func (e *ScriptedExecutor) Once(match string, exitCode int, stdout, stderr string) *ScriptedExecutor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scripts = append(e.scripts, script{match: match, exitCode: exitCode, stdout: stdout, stderr: stderr, once: true})
	return e
}

// Run records cmd and returns the scripted result.
func (e *ScriptedExecutor) Run(ctx context.Context, cmd process.Command) *process.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, cmd)

	result := &process.Result{Command: cmd}
	if err := ctx.Err(); err != nil {
		result.ExitCode = -1
		result.StartErr = err
		return result
	}

	line := cmd.String()
	for i := range e.scripts {
		s := &e.scripts[i]
		if s.used || !strings.Contains(line, s.match) {
			continue
		}
		if s.once {
			s.used = true
		}
		result.ExitCode = s.exitCode
		result.Stdout = []byte(s.stdout)
		result.Stderr = []byte(s.stderr)
		break
	}
	return result
}

// Calls returns every command run so far.
func (e *ScriptedExecutor) Calls() []process.Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]process.Command(nil), e.calls...)
}

// CommandLines returns the rendered command lines run so far.
func (e *ScriptedExecutor) CommandLines() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.calls))
	for i, c := range e.calls {
		out[i] = c.String()
	}
	return out
}
