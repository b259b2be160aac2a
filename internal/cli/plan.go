package cli

import (
	"fmt"
	"log/slog"

	"github.com/roach88/tracematrix/internal/config"
	"github.com/roach88/tracematrix/internal/fixture"
	"github.com/roach88/tracematrix/internal/matrix"
)

// Filter narrows the declared suites. Empty fields select everything.
type Filter struct {
	Families []string // toolchain families kept on the compiler axis
	Variants []string // library variant axis values kept
	Suites   []string // suite names kept

	// KeepExcluded plans suites whose exclusions remove every configuration.
	KeepExcluded bool
}

// suitePlan is one suite with its matrix after filtering.
type suitePlan struct {
	Suite  config.Suite
	Matrix *matrix.Matrix
}

// planSuites builds the matrix of every selected suite of p and applies the
// toolchain and variant filters. Suites left with an empty axis, or whose
// exclusions remove every configuration (unless flt.KeepExcluded), are
// skipped.
func planSuites(decl *config.File, p config.Platform, flt Filter, logger *slog.Logger) ([]suitePlan, error) {
	tags, err := decl.TagMapping()
	if err != nil {
		return nil, err
	}
	wanted, err := selectSuites(p, flt.Suites)
	if err != nil {
		return nil, err
	}

	var plans []suitePlan
	for _, s := range wanted {
		m, err := s.Matrix(p)
		if err != nil {
			return nil, err
		}

		if len(flt.Families) > 0 && m.HasAxis(config.CompilerAxis) {
			keep, err := compilersIn(m, tags, flt.Families)
			if err != nil {
				return nil, err
			}
			if len(keep) == 0 {
				logger.Info("skipping suite: no compiler of the requested toolchains", "suite", s.Name)
				continue
			}
			if m, err = m.Restrict(config.CompilerAxis, keep); err != nil {
				return nil, err
			}
		}

		if axis := decl.Variant.Axis; len(flt.Variants) > 0 && axis != "" && m.HasAxis(axis) {
			keep := declaredValues(m, axis, flt.Variants)
			if len(keep) == 0 {
				logger.Info("skipping suite: no requested library variant", "suite", s.Name)
				continue
			}
			if m, err = m.Restrict(axis, keep); err != nil {
				return nil, err
			}
		}

		if !flt.KeepExcluded && len(m.Generate()) == 0 {
			logger.Info("skipping suite: every configuration is excluded", "suite", s.Name)
			continue
		}
		plans = append(plans, suitePlan{Suite: s, Matrix: m})
	}
	return plans, nil
}

func selectSuites(p config.Platform, names []string) ([]config.Suite, error) {
	if len(names) == 0 {
		return p.Suites, nil
	}
	byName := make(map[string]config.Suite, len(p.Suites))
	for _, s := range p.Suites {
		byName[s.Name] = s
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := byName[n]; !ok {
			return nil, fmt.Errorf("suite %q is not declared", n)
		}
		want[n] = true
	}
	var out []config.Suite
	for _, s := range p.Suites {
		if want[s.Name] {
			out = append(out, s)
		}
	}
	return out, nil
}

func compilersIn(m *matrix.Matrix, tags fixture.TagMapping, families []string) ([]string, error) {
	want := make(map[string]bool, len(families))
	for _, f := range families {
		want[f] = true
	}
	var keep []string
	for _, c := range axisValues(m, config.CompilerAxis) {
		family, err := tags.ToolchainFamily(c)
		if err != nil {
			return nil, err
		}
		if want[family] {
			keep = append(keep, c)
		}
	}
	return keep, nil
}

func declaredValues(m *matrix.Matrix, axis string, values []string) []string {
	declared := make(map[string]bool)
	for _, v := range axisValues(m, axis) {
		declared[v] = true
	}
	var keep []string
	for _, v := range values {
		if declared[v] {
			keep = append(keep, v)
		}
	}
	return keep
}

func axisValues(m *matrix.Matrix, name string) []string {
	for _, a := range m.Axes() {
		if a.Name == name {
			return a.Values
		}
	}
	return nil
}
