package matrix

import (
	"fmt"
	"strconv"
	"strings"
)

// Axis is one dimension of the configuration space.
type Axis struct {
	Name   string
	Values []string
}

// Index returns the position of value in the axis, or -1.
func (a Axis) Index(value string) int {
	for i, v := range a.Values {
		if v == value {
			return i
		}
	}
	return -1
}

// DeclarationError reports an invalid matrix declaration.
type DeclarationError struct {
	Field   string
	Message string
}

func (e *DeclarationError) Error() string {
	return fmt.Sprintf("invalid matrix %s: %s", e.Field, e.Message)
}

// Matrix is a validated, immutable set of axes and exclusion rules.
type Matrix struct {
	axes       []Axis
	index      map[string]int
	exclusions []ExclusionRule
}

// New validates the declaration and returns a Matrix.
//
// Axis names must be non-empty and unique; every axis needs at least one
// value and values may not repeat within an axis. Exclusion rules must not be
// empty. Rules may name axes the matrix does not have: such a rule simply
// never matches.
func New(axes []Axis, exclusions []ExclusionRule) (*Matrix, error) {
	if len(axes) == 0 {
		return nil, &DeclarationError{Field: "axes", Message: "at least one axis is required"}
	}

	m := &Matrix{
		axes:  make([]Axis, len(axes)),
		index: make(map[string]int, len(axes)),
	}

	for i, axis := range axes {
		if axis.Name == "" {
			return nil, &DeclarationError{Field: fmt.Sprintf("axes[%d]", i), Message: "name is required"}
		}
		if _, dup := m.index[axis.Name]; dup {
			return nil, &DeclarationError{Field: fmt.Sprintf("axes[%d]", i), Message: fmt.Sprintf("duplicate axis %q", axis.Name)}
		}
		if len(axis.Values) == 0 {
			return nil, &DeclarationError{Field: "axis " + axis.Name, Message: "values must be non-empty"}
		}
		seen := make(map[string]bool, len(axis.Values))
		for _, v := range axis.Values {
			if seen[v] {
				return nil, &DeclarationError{Field: "axis " + axis.Name, Message: fmt.Sprintf("duplicate value %q", v)}
			}
			seen[v] = true
		}

		m.axes[i] = Axis{Name: axis.Name, Values: append([]string(nil), axis.Values...)}
		m.index[axis.Name] = i
	}

	for i, rule := range exclusions {
		if len(rule) == 0 {
			return nil, &DeclarationError{Field: fmt.Sprintf("exclude[%d]", i), Message: "rule must name at least one axis"}
		}
		m.exclusions = append(m.exclusions, rule.clone())
	}

	return m, nil
}

// Axes returns a copy of the declared axes.
func (m *Matrix) Axes() []Axis {
	out := make([]Axis, len(m.axes))
	for i, a := range m.axes {
		out[i] = Axis{Name: a.Name, Values: append([]string(nil), a.Values...)}
	}
	return out
}

// AxisNames returns the axis names in declaration order.
func (m *Matrix) AxisNames() []string {
	names := make([]string, len(m.axes))
	for i, a := range m.axes {
		names[i] = a.Name
	}
	return names
}

// HasAxis reports whether the matrix declares the named axis.
func (m *Matrix) HasAxis(name string) bool {
	_, ok := m.index[name]
	return ok
}

// Exclusions returns a copy of the exclusion rules.
func (m *Matrix) Exclusions() []ExclusionRule {
	out := make([]ExclusionRule, len(m.exclusions))
	for i, r := range m.exclusions {
		out[i] = r.clone()
	}
	return out
}

// Size is the number of combinations before exclusions.
func (m *Matrix) Size() int {
	n := 1
	for _, a := range m.axes {
		n *= len(a.Values)
	}
	return n
}

// Generate returns every retained configuration in deterministic order.
func (m *Matrix) Generate() []Configuration {
	out := make([]Configuration, 0, m.Size())
	tuple := make(IndexTuple, len(m.axes))

	for {
		cfg := Configuration{matrix: m, tuple: tuple.clone()}
		if !m.Excluded(cfg) {
			out = append(out, cfg)
		}

		// odometer step, last axis fastest
		i := len(tuple) - 1
		for ; i >= 0; i-- {
			tuple[i]++
			if tuple[i] < len(m.axes[i].Values) {
				break
			}
			tuple[i] = 0
		}
		if i < 0 {
			return out
		}
	}
}

// Excluded reports whether any exclusion rule fully matches cfg.
func (m *Matrix) Excluded(cfg Configuration) bool {
	for _, rule := range m.exclusions {
		if rule.Matches(cfg) {
			return true
		}
	}
	return false
}

// Configuration builds a validated configuration from literal values.
// Every axis must be present exactly once with one of its declared values.
func (m *Matrix) Configuration(values map[string]string) (Configuration, error) {
	tuple := make(IndexTuple, len(m.axes))
	for name := range values {
		if _, ok := m.index[name]; !ok {
			return Configuration{}, fmt.Errorf("unknown axis %q", name)
		}
	}
	for i, a := range m.axes {
		v, ok := values[a.Name]
		if !ok {
			return Configuration{}, fmt.Errorf("missing value for axis %q", a.Name)
		}
		pos := a.Index(v)
		if pos < 0 {
			return Configuration{}, fmt.Errorf("value %q is not declared on axis %q", v, a.Name)
		}
		tuple[i] = pos
	}
	return Configuration{matrix: m, tuple: tuple}, nil
}

// At resolves an index tuple back to its configuration.
func (m *Matrix) At(tuple IndexTuple) (Configuration, error) {
	if len(tuple) != len(m.axes) {
		return Configuration{}, fmt.Errorf("tuple has %d positions, matrix has %d axes", len(tuple), len(m.axes))
	}
	for i, pos := range tuple {
		if pos < 0 || pos >= len(m.axes[i].Values) {
			return Configuration{}, fmt.Errorf("position %d out of range for axis %q", pos, m.axes[i].Name)
		}
	}
	return Configuration{matrix: m, tuple: tuple.clone()}, nil
}

// Literal resolves a single tuple position to its value string.
func (m *Matrix) Literal(axis, pos int) string {
	return m.axes[axis].Values[pos]
}

// Restrict returns a new matrix whose named axis keeps only the given values,
// in their original declaration order. Exclusions carry over unchanged.
func (m *Matrix) Restrict(axis string, values []string) (*Matrix, error) {
	i, ok := m.index[axis]
	if !ok {
		return nil, fmt.Errorf("unknown axis %q", axis)
	}

	keep := make(map[string]bool, len(values))
	for _, v := range values {
		if m.axes[i].Index(v) < 0 {
			return nil, fmt.Errorf("value %q is not declared on axis %q", v, axis)
		}
		keep[v] = true
	}

	axes := m.Axes()
	var filtered []string
	for _, v := range axes[i].Values {
		if keep[v] {
			filtered = append(filtered, v)
		}
	}
	axes[i].Values = filtered
	return New(axes, m.exclusions)
}

// IndexTuple holds the per-axis position of each selected value.
type IndexTuple []int

// Key renders the tuple as a stable string, e.g. "0.1.0".
func (t IndexTuple) Key() string {
	parts := make([]string, len(t))
	for i, p := range t {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}

// Compare orders tuples lexicographically, which is generation order.
func (t IndexTuple) Compare(o IndexTuple) int {
	for i := 0; i < len(t) && i < len(o); i++ {
		switch {
		case t[i] < o[i]:
			return -1
		case t[i] > o[i]:
			return 1
		}
	}
	switch {
	case len(t) < len(o):
		return -1
	case len(t) > len(o):
		return 1
	}
	return 0
}

func (t IndexTuple) clone() IndexTuple {
	return append(IndexTuple(nil), t...)
}
