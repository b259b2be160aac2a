package matrix

import (
	"strings"
)

// Configuration is one concrete combination of axis values.
// The zero value is not a valid configuration; see IsZero.
type Configuration struct {
	matrix *Matrix
	tuple  IndexTuple
}

// IsZero reports whether c was never produced by a Matrix.
func (c Configuration) IsZero() bool {
	return c.matrix == nil
}

// Matrix returns the matrix c belongs to.
func (c Configuration) Matrix() *Matrix {
	return c.matrix
}

// Tuple returns a copy of the index tuple.
func (c Configuration) Tuple() IndexTuple {
	return c.tuple.clone()
}

// Value returns the selected value for an axis. ok is false when the
// configuration has no such axis.
func (c Configuration) Value(axis string) (string, bool) {
	if c.matrix == nil {
		return "", false
	}
	i, ok := c.matrix.index[axis]
	if !ok {
		return "", false
	}
	return c.matrix.axes[i].Values[c.tuple[i]], true
}

// Get is Value without the presence flag.
func (c Configuration) Get(axis string) string {
	v, _ := c.Value(axis)
	return v
}

// Literals returns the selected values in axis order.
func (c Configuration) Literals() []string {
	if c.matrix == nil {
		return nil
	}
	out := make([]string, len(c.tuple))
	for i, pos := range c.tuple {
		out[i] = c.matrix.axes[i].Values[pos]
	}
	return out
}

// Values returns a fresh axis-name to value map.
func (c Configuration) Values() map[string]string {
	if c.matrix == nil {
		return nil
	}
	out := make(map[string]string, len(c.tuple))
	for i, pos := range c.tuple {
		a := c.matrix.axes[i]
		out[a.Name] = a.Values[pos]
	}
	return out
}

// Equal reports whether both configurations select the same values from the
// same matrix.
func (c Configuration) Equal(o Configuration) bool {
	return c.matrix == o.matrix && c.tuple.Compare(o.tuple) == 0
}

// String renders "axis=value" pairs in axis order.
func (c Configuration) String() string {
	if c.matrix == nil {
		return "<none>"
	}
	parts := make([]string, len(c.tuple))
	for i, pos := range c.tuple {
		a := c.matrix.axes[i]
		parts[i] = a.Name + "=" + a.Values[pos]
	}
	return strings.Join(parts, " ")
}
