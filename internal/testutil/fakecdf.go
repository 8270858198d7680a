// Package testutil provides fixtures shared by the dry-run tests.
package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// FakeCDF describes a stand-in for the cdf executable. Each field is the
// exit status of the matching subcommand.
//
// The generated script appends its arguments to a calls log and, on
// `build`, writes build/marker into its working directory the way the real
// toolkit recreates the build directory.
type FakeCDF struct {
	VersionExit int
	BuildExit   int
	DeployExit  int

	path    string
	callLog string
}

// Install writes the fake executable into a fresh temp directory and
// returns its absolute path. Tests are skipped when /bin/sh is missing.
func (f *FakeCDF) Install(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	f.path = filepath.Join(dir, "cdf")
	f.callLog = filepath.Join(dir, "calls.log")

	script := fmt.Sprintf(`#!/bin/sh
echo "$*" >> %q
case "$1" in
  --version)
    echo "CDF-Toolkit version 0.3.23"
    exit %d
    ;;
  build)
    echo "Building modules"
    mkdir -p build && echo rebuilt > build/marker
    exit %d
    ;;
  deploy)
    echo "Would deploy 3 resources"
    if [ %d -ne 0 ]; then echo "deploy rejected" >&2; fi
    exit %d
    ;;
esac
exit 64
`, f.callLog, f.VersionExit, f.BuildExit, f.DeployExit, f.DeployExit)

	require.NoError(t, os.WriteFile(f.path, []byte(script), 0o755))
	return f.path
}

// Calls returns the argument lines the fake received, in order.
func (f *FakeCDF) Calls(t *testing.T) []string {
	t.Helper()

	data, err := os.ReadFile(f.callLog)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

// WriteFile creates path (and its parents) under root with the given content.
func WriteFile(t *testing.T, root, path, content string) {
	t.Helper()

	full := filepath.Join(root, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

// Mkdir creates path (and its parents) under root.
func Mkdir(t *testing.T, root, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, path), 0o755))
}
