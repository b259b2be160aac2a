// Package fixture validates captured stack-trace output against a library of
// reference fixtures.
//
// # Trace format
//
// Both captured output and fixtures hold one frame per non-empty line, three
// fields joined by "||":
//
//	test/test.cpp||41||foo(int)
//	test/test.cpp||58||main
//
// # Fixture selection
//
// Fixture file names encode a tag set, tags joined by "_" (for example
// gcc_linux_libunwind.txt). The target tags for a configuration are one
// toolchain family, one OS family and one tag per non-default option, see
// TagMapping. Every fixture is scored by how many of its tags the target
// contains; a fixture carrying any tag the target lacks can never be chosen.
// Exactly one fixture must reach the highest positive score. No match and a
// tie are both SelectionErrors: they mean the fixture library itself is
// broken, and are never resolved by picking one arbitrarily.
//
// # Comparison
//
// Compare walks actual and expected frames in lock-step. File names and
// symbols must match exactly; line numbers may differ by the tolerance a
// TolerancePolicy assigns to the target tags. Mismatches are collected and
// the walk goes on. It stops after the row whose expected symbol is the
// program entry point ("main" or "main()"); frames above it belong to
// platform startup code and are not compared.
package fixture
