package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/tracematrix/internal/matrix"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Suites []string
	All    bool
}

// SuiteListing is the JSON form of one expanded suite.
type SuiteListing struct {
	Name           string          `json:"name"`
	Axes           []string        `json:"axes"`
	Size           int             `json:"size"`
	Retained       int             `json:"retained"`
	Configurations []ConfigListing `json:"configurations"`
}

// ConfigListing is one configuration of a listing.
type ConfigListing struct {
	Index       int      `json:"index"`
	Values      []string `json:"values"`
	Fingerprint string   `json:"fingerprint"`
	Excluded    bool     `json:"excluded,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the expanded matrix without building anything",
		Long: `List every configuration the run command would execute for the platform,
in execution order. With --all, excluded combinations are shown too.

Example:
  tracematrix list --platform macos
  tracematrix list --suite unittest --all --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Suites, "suite", nil, "suites to list (default all)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "include excluded combinations")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	decl, _, err := loadDeclaration(opts.RootOptions, f)
	if err != nil {
		return err
	}
	_, p, err := resolvePlatform(opts.RootOptions, decl, f)
	if err != nil {
		return err
	}
	plans, err := planSuites(decl, p, Filter{Suites: opts.Suites, KeepExcluded: true}, logger)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "plan suites", err)
	}

	listings := make([]SuiteListing, 0, len(plans))
	for _, plan := range plans {
		l, err := listSuite(plan, opts.All)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, "expand suite", err)
		}
		listings = append(listings, l)
	}

	if f.IsJSON() {
		return f.Success(listings)
	}
	for _, l := range listings {
		fmt.Fprint(f.Writer, renderListing(l))
	}
	return nil
}

func listSuite(plan suitePlan, all bool) (SuiteListing, error) {
	m := plan.Matrix
	configs := m.Generate()
	l := SuiteListing{
		Name:     plan.Suite.Name,
		Axes:     m.AxisNames(),
		Size:     m.Size(),
		Retained: len(configs),
	}

	if all {
		full, err := matrix.New(m.Axes(), nil)
		if err != nil {
			return SuiteListing{}, err
		}
		configs = full.Generate()
	}

	index := 0
	for _, cfg := range configs {
		c := ConfigListing{
			Index:       -1,
			Values:      cfg.Literals(),
			Fingerprint: cfg.Fingerprint(),
			Excluded:    m.Excluded(cfg),
		}
		if !c.Excluded {
			c.Index = index
			index++
		}
		l.Configurations = append(l.Configurations, c)
	}
	return l, nil
}

func renderListing(l SuiteListing) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	header := table.Row{"#"}
	for _, a := range l.Axes {
		header = append(header, a)
	}
	t.AppendHeader(header)

	for _, c := range l.Configurations {
		row := table.Row{}
		if c.Excluded {
			row = append(row, "excluded")
		} else {
			row = append(row, c.Index)
		}
		for _, v := range c.Values {
			row = append(row, v)
		}
		t.AppendRow(row)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "== %s: %d of %d configurations ==\n", l.Name, l.Retained, l.Size)
	b.WriteString(t.Render())
	b.WriteString("\n\n")
	return b.String()
}
