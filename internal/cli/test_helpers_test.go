package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// testDeclaration declares two linux suites: unit runs a test binary over
// compiler x shared, trace checks a stack trace over compiler x symbols.
const testDeclaration = `
fixtures:
  dir: expected
tags:
  features:
    OPT_A: a
  defaults: [OPT_NONE]
variant:
  axis: shared
  shared: "ON"
  static: "OFF"
platforms:
  linux:
    os: linux
    compilers: [g++-10, clang++-14]
    build:
      build_command: [ninja]
      defines:
        - {name: CMAKE_CXX_COMPILER, axis: compiler}
    suites:
      - name: unit
        axes:
          - {name: compiler}
          - {name: shared, values: ["OFF", "ON"]}
        purge_on: [compiler]
        test:
          commands: [[./unittest]]
      - name: trace
        axes:
          - {name: compiler}
          - {name: symbols, values: [OPT_A, OPT_NONE]}
        options: [symbols]
        purge_on: [compiler, symbols]
        test:
          trace: [./test]
`

const goodTrace = `src/a.cpp||10||foo()
src/main.cpp||20||main
`

// testWorkspace is a work directory with a declaration and fixtures.
type testWorkspace struct {
	Dir    string
	Config string
}

func newTestWorkspace(t *testing.T, fixtures map[string]string) testWorkspace {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "matrix.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(testDeclaration), 0o644))

	expected := filepath.Join(dir, "expected")
	require.NoError(t, os.MkdirAll(expected, 0o755))
	for name, content := range fixtures {
		require.NoError(t, os.WriteFile(filepath.Join(expected, name), []byte(content), 0o644))
	}
	return testWorkspace{Dir: dir, Config: cfg}
}

func (w testWorkspace) rootOptions() *RootOptions {
	return &RootOptions{Format: "text", Config: w.Config, Platform: "linux"}
}

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
