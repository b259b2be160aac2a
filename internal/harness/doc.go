// Package harness runs end-to-end matrix scenarios against scripted
// commands.
//
// A scenario bundles a matrix declaration, the fixtures its trace suite
// compares against and a script for the commands the build driver issues.
// The harness expands the suite, drives every configuration through the
// real build driver and coordinator, records the run in an in-memory store
// and then evaluates the scenario's assertions.
//
// # Scenario Format
//
//	name: purge_on_compiler
//	description: "Build directory survives option changes"
//	platform: linux
//	suite: unit
//	declaration: |
//	  platforms:
//	    linux: ...
//	fixtures:
//	  linux.txt: |
//	    src/a.cpp||10||foo()
//	commands:
//	  - {match: "-DCMAKE_CXX_COMPILER=clang", exit: 1}
//	assertions:
//	  - {type: failed_count, count: 2}
//	  - {type: outcome, config: {compiler: clang++-14}, passed: false}
//
// # Assertion Types
//
//   - outcome: every configuration matching config has the given result
//   - passed_count, failed_count: number of passing or failing configurations
//   - command_count: number of commands whose line contains match
//   - command_order: commands containing each entry appear in order
//   - purge_count: number of times the build directory was discarded
//   - output_contains: the captured driver output contains match
//   - aborted: the run stopped on a fatal error containing match
//   - stored_results: number of results persisted for the run
//
// # Deterministic Testing
//
// Every scenario runs in a fresh temporary work directory with a fresh
// in-memory database, a deterministic clock and a fixed run id, so the
// recorded trace is identical across runs and can be compared with a golden
// file.
package harness
