package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tracematrix/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database    string
	Limit       int
	Fingerprint string
}

// RunEntry is the JSON form of a stored run.
type RunEntry struct {
	ID         string `json:"id"`
	Seq        int64  `json:"seq"`
	Platform   string `json:"platform"`
	Source     string `json:"source"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	Status     string `json:"status"`
}

// ResultEntry is the JSON form of a stored configuration outcome.
type ResultEntry struct {
	RunID       string `json:"run_id"`
	Seq         int64  `json:"seq"`
	Suite       string `json:"suite"`
	Config      string `json:"config"`
	Fingerprint string `json:"fingerprint"`
	Passed      bool   `json:"passed"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs and their results",
		Long: `Show runs recorded with "run --db". Without arguments the most recent runs
are listed; with a run id its per-configuration results are shown. With
--fingerprint, every recorded outcome of one configuration is shown.

Example:
  tracematrix history --db runs.db
  tracematrix history --db runs.db 0192f0c1-7d7e-7a4e-9d3b-0c2f3a4b5c6d
  tracematrix history --db runs.db --fingerprint 3f1a...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "show the history of one configuration")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	st, err := store.Open(opts.Database)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, "open database", err)
	}
	defer st.Close()

	switch {
	case opts.Fingerprint != "":
		results, err := st.ConfigurationHistory(ctx, opts.Fingerprint)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeDatabase, "read configuration history", err)
		}
		return outputResults(f, results)

	case len(args) == 1:
		run, err := st.ReadRun(ctx, args[0])
		if errors.Is(err, store.ErrNotFound) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run %s not found", args[0]), nil)
		}
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeDatabase, "read run", err)
		}
		results, err := st.ReadResults(ctx, run.ID)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeDatabase, "read results", err)
		}
		if !f.IsJSON() {
			fmt.Fprintln(f.Writer, formatRun(toRunEntry(run)))
		}
		return outputResults(f, results)
	}

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, "list runs", err)
	}
	entries := make([]RunEntry, len(runs))
	for i, r := range runs {
		entries[i] = toRunEntry(r)
	}
	if f.IsJSON() {
		return f.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(f.Writer, "No runs recorded.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintln(f.Writer, formatRun(e))
	}
	return nil
}

func outputResults(f *OutputFormatter, results []store.Result) error {
	entries := make([]ResultEntry, len(results))
	for i, r := range results {
		entries[i] = toResultEntry(r)
	}
	if f.IsJSON() {
		return f.Success(entries)
	}
	for _, e := range entries {
		mark := "🟢"
		if !e.Passed {
			mark = "🔴"
		}
		fmt.Fprintf(f.Writer, "%s %-12s %s  %s\n", mark, e.Suite, e.Config, shortFingerprint(e.Fingerprint))
	}
	return nil
}

func toRunEntry(r store.Run) RunEntry {
	e := RunEntry{
		ID:        r.ID,
		Seq:       r.Seq,
		Platform:  r.Platform,
		Source:    r.Source,
		StartedAt: r.StartedAt.Format(time.RFC3339),
		Status:    string(r.Status),
	}
	if !r.FinishedAt.IsZero() {
		e.FinishedAt = r.FinishedAt.Format(time.RFC3339)
	}
	return e
}

func toResultEntry(r store.Result) ResultEntry {
	parts := make([]string, len(r.Config))
	for i, av := range r.Config {
		parts[i] = av.Axis + "=" + av.Value
	}
	return ResultEntry{
		RunID:       r.RunID,
		Seq:         r.Seq,
		Suite:       r.Suite,
		Config:      strings.Join(parts, " "),
		Fingerprint: r.Fingerprint,
		Passed:      r.Passed,
	}
}

func formatRun(e RunEntry) string {
	return fmt.Sprintf("#%d %s  %-8s %-7s %s  %s", e.Seq, e.ID, e.Platform, e.Status, e.StartedAt, e.Source)
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
