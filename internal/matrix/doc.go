// Package matrix expands a declared configuration space into concrete
// configurations.
//
// A Matrix is an ordered list of axes plus an ordered list of exclusion
// rules. Generate enumerates the Cartesian product in declaration order, with
// the last axis varying fastest, and drops every candidate that fully matches
// at least one exclusion rule:
//
//	m, err := matrix.New([]matrix.Axis{
//	    {Name: "compiler", Values: []string{"g++-10", "clang++-14"}},
//	    {Name: "shared", Values: []string{"OFF", "ON"}},
//	}, []matrix.ExclusionRule{
//	    {"compiler": "clang++-14", "shared": "ON"},
//	})
//	for _, cfg := range m.Generate() {
//	    fmt.Println(cfg.Tuple().Key(), cfg)
//	}
//
// Configurations are only constructed through a Matrix, so every
// Configuration holds exactly one valid value per declared axis. Each one is
// also addressable by its IndexTuple, the per-axis position of the selected
// value, which is stable for a given declaration and sorts in generation
// order.
//
// Everything in this package is pure: no I/O, and identical inputs always
// produce the identical ordered output.
package matrix
