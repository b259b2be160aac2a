package coordinator

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/tracematrix/internal/matrix"
)

// StepContext is what a step sees for one configuration.
type StepContext struct {
	Current matrix.Configuration

	// Previous is the configuration dispatched before Current, or nil for
	// the first one.
	Previous *matrix.Configuration

	// Index is the zero-based position of Current; Total the number of
	// retained configurations.
	Index int
	Total int
}

// Changed reports whether any of the named axes differs between Previous and
// Current. Without a previous configuration everything counts as changed.
// Axes the matrix does not declare are ignored.
func (sc StepContext) Changed(axes ...string) bool {
	if sc.Previous == nil {
		return true
	}
	for _, axis := range axes {
		cur, ok := sc.Current.Value(axis)
		if !ok {
			continue
		}
		if prev, _ := sc.Previous.Value(axis); prev != cur {
			return true
		}
	}
	return false
}

// Step runs one configuration. passed is recorded as its outcome; a non-nil
// error aborts the whole run.
type Step func(ctx context.Context, sc StepContext) (passed bool, err error)

// Reporter receives the complete results after the last configuration.
type Reporter interface {
	Report(results *Results) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(results *Results) error

// Report calls f.
func (f ReporterFunc) Report(results *Results) error {
	return f(results)
}

// Coordinator runs a step over a matrix.
type Coordinator struct {
	name      string
	matrix    *matrix.Matrix
	reporters []Reporter
	logger    *slog.Logger

	previous *matrix.Configuration
	failed   bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithName labels the run in logs and results.
func WithName(name string) Option {
	return func(c *Coordinator) { c.name = name }
}

// WithReporter registers a reporter. Reporters run in registration order.
func WithReporter(r Reporter) Option {
	return func(c *Coordinator) { c.reporters = append(c.reporters, r) }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// New creates a Coordinator for m.
func New(m *matrix.Matrix, opts ...Option) *Coordinator {
	c := &Coordinator{
		matrix: m,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Failed reports whether any step recorded so far failed.
func (c *Coordinator) Failed() bool {
	return c.failed
}

// Previous returns the last dispatched configuration, or nil.
func (c *Coordinator) Previous() *matrix.Configuration {
	return c.previous
}

// Run dispatches step over every retained configuration and forwards the
// results to the reporters.
//
// The returned Results are never nil. On a fatal step error they hold the
// outcomes recorded before the failing configuration, reporters are not
// called, and the error is returned wrapped.
func (c *Coordinator) Run(ctx context.Context, step Step) (*Results, error) {
	configs := c.matrix.Generate()
	results := newResults(c.name, c.matrix, len(configs))

	c.logger.Info("matrix run starting",
		"suite", c.name,
		"configurations", len(configs),
		"excluded", c.matrix.Size()-len(configs),
	)

	for i, cfg := range configs {
		sc := StepContext{
			Current:  cfg,
			Previous: c.previous,
			Index:    i,
			Total:    len(configs),
		}

		c.logger.Debug("dispatching configuration", "index", i, "config", cfg.String())
		passed, err := step(ctx, sc)
		if err != nil {
			return results, fmt.Errorf("configuration %s: %w", cfg, err)
		}

		current := cfg
		c.previous = &current
		if !passed {
			c.failed = true
		}
		results.add(cfg, passed)

		c.logger.Info("configuration finished",
			"index", i,
			"config", cfg.String(),
			"passed", passed,
		)
	}

	for _, r := range c.reporters {
		if err := r.Report(results); err != nil {
			return results, fmt.Errorf("report results: %w", err)
		}
	}

	return results, nil
}
