// Package config loads matrix declarations.
//
// A declaration names, per platform, the compilers to test, the build driver
// settings and one or more suites. A suite is an ordered list of axes plus
// exclusion rules, the axes whose change forces a clean build directory, and
// the test commands to run for every configuration. Fixture selection
// settings (tag table, exact-line tag sets, fixture directory) are shared by
// all platforms.
//
// Declarations are YAML (strict: unknown fields are rejected) or CUE, picked
// by file extension:
//
//	fixtures:
//	  dir: test/expected
//	  exact_lines: [[libdwarf]]
//	platforms:
//	  linux:
//	    os: linux
//	    compilers: [g++-10, clang++-14]
//	    build:
//	      generator: Ninja
//	      build_command: [ninja]
//	      defines:
//	        - {name: CMAKE_BUILD_TYPE, axis: build_type}
//	    suites:
//	      - name: unittest
//	        axes:
//	          - {name: compiler}
//	          - {name: build_type, values: [Debug, RelWithDebInfo]}
//	        purge_on: [compiler]
//	        test:
//	          commands: [[./unittest]]
//
// An axis named "compiler" without values takes the platform's compilers.
// Default returns the built-in declaration.
package config
