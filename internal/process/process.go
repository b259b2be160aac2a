// Package process runs one external command to completion and classifies
// the outcome.
//
// Output is fully buffered: nothing is streamed while the child runs. A
// failing command is a value, not an error, so callers can keep going after a
// failed matrix cell.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// resetStyle undoes any terminal styling a parallel build left behind.
const resetStyle = "\033[0m"

// Command is one external program invocation.
type Command struct {
	Program string
	Args    []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env is appended to the inherited environment.
	Env []string
}

// String renders the command line the way it is echoed to the user.
func (c Command) String() string {
	return strings.Join(append([]string{c.Program}, c.Args...), " ")
}

// Result is the outcome of one command.
type Result struct {
	Command  Command
	Stdout   []byte
	Stderr   []byte
	ExitCode int

	// StartErr is set when the program could not be launched at all.
	StartErr error

	Duration time.Duration
}

// Succeeded reports whether the command exited with status zero.
func (r *Result) Succeeded() bool {
	return r.StartErr == nil && r.ExitCode == 0
}

// Executor runs commands. Runner is the production implementation;
// tests substitute scripted fakes.
type Executor interface {
	Run(ctx context.Context, cmd Command) *Result
}

// Runner executes commands as child processes and reports each one on its
// output writer.
type Runner struct {
	out    io.Writer
	logger *slog.Logger

	// AlwaysShowOutput echoes captured streams for successful commands too.
	AlwaysShowOutput bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithAlwaysShowOutput echoes stdout and stderr of successful commands.
func WithAlwaysShowOutput(show bool) Option {
	return func(r *Runner) { r.AlwaysShowOutput = show }
}

// NewRunner creates a Runner that writes indicators to out.
func NewRunner(out io.Writer, opts ...Option) *Runner {
	r := &Runner{
		out:    out,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run launches cmd, waits for it to exit and returns the buffered result.
// There is no timeout: a hung child blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context, cmd Command) *Result {
	fmt.Fprintf(r.out, "[🔵 Running Command \"%s\"]\n", cmd)

	result := r.execute(ctx, cmd)

	fmt.Fprint(r.out, resetStyle)
	if result.Succeeded() {
		fmt.Fprintf(r.out, "[🟢 Command `%s` succeeded]\n", cmd)
		if r.AlwaysShowOutput {
			writeStreams(r.out, result)
		}
	} else {
		fmt.Fprintf(r.out, "[🔴 Command `%s` failed]\n", cmd)
		if result.StartErr != nil {
			fmt.Fprintf(r.out, "error: %v\n", result.StartErr)
		}
		writeStreams(r.out, result)
	}

	r.logger.Debug("command finished",
		"program", cmd.Program,
		"exit_code", result.ExitCode,
		"duration", result.Duration,
	)
	return result
}

func (r *Runner) execute(ctx context.Context, cmd Command) *Result {
	result := &Result{Command: cmd}

	c := exec.CommandContext(ctx, cmd.Program, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.Bytes()
	result.Stderr = stderr.Bytes()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
			result.StartErr = err
		}
	}
	return result
}

func writeStreams(w io.Writer, result *Result) {
	fmt.Fprintln(w, "stdout:")
	writeBlock(w, result.Stdout)
	fmt.Fprintln(w, "stderr:")
	writeBlock(w, result.Stderr)
}

func writeBlock(w io.Writer, data []byte) {
	if len(data) == 0 {
		return
	}
	w.Write(data)
	if data[len(data)-1] != '\n' {
		fmt.Fprintln(w)
	}
}
