package cli

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/cdf-dryrun/internal/logging"
	"github.com/shinji-kodama/cdf-dryrun/internal/model"
	"github.com/shinji-kodama/cdf-dryrun/internal/testutil"
)

// TestExitCode verifies that every failure maps to exit status 1 and
// success to 0.
func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"prerequisite missing", model.NewCLIError(model.KindPrerequisiteMissing, "no cdf"), 1},
		{"external tool failure", model.WrapCLIError(model.KindExternalToolFailure, "deploy", errors.New("exit status 2")), 1},
		{"wrapped cli error", fmt.Errorf("run: %w", model.NewCLIError(model.KindSourceMissing, "gone")), 1},
		{"plain error", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

// restoreGlobals resets the package flag and slog default after a test
// that executes the root command.
func restoreGlobals(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(prev)
		quiet = false
	})
}

// runRoot executes a fresh root command in the current directory and
// returns its error together with everything written to stderr.
func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stderr.String(), err
}

// installFakeOnPath puts a fake cdf executable first on PATH.
func installFakeOnPath(t *testing.T, fake *testutil.FakeCDF) {
	t.Helper()
	bin := fake.Install(t)
	t.Setenv("PATH", filepath.Dir(bin)+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestRootCommand_EndToEnd(t *testing.T) {
	restoreGlobals(t)

	root := t.TempDir()
	testutil.WriteFile(t, root, "config.dev.yaml", "environment:\n  name: dev\n")
	testutil.Mkdir(t, root, "modules")
	testutil.WriteFile(t, root, "CogniteDataFusion/functions/ingest/handler.py", "def handle(): ...\n")
	chdir(t, root)

	fake := &testutil.FakeCDF{}
	installFakeOnPath(t, fake)

	logs, err := runRoot(t)
	require.NoError(t, err, logs)

	assert.Contains(t, logs, "All steps completed successfully!")
	assert.Contains(t, logs, "level=DEBUG", "debug output is on by default")
	assert.Contains(t, logs, "Renamed 'modules/CogniteDataFusion/functions/ingest'")
	assert.DirExists(t, filepath.Join(root, "modules", "CogniteDataFusion", "functions", "fn_ingest"))
	assert.Equal(t, []string{"--version", "build", "deploy --dry-run"}, fake.Calls(t))
}

// TestRootCommand_LogLevel checks that debug records are shown by default
// and hidden by --quiet, while info records are shown either way.
func TestRootCommand_LogLevel(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantDebug bool
	}{
		{"default", nil, true},
		{"quiet", []string{"--quiet"}, false},
		{"quiet shorthand", []string{"-q"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restoreGlobals(t)

			root := t.TempDir()
			testutil.WriteFile(t, root, "config.dev.yaml", "environment:\n  name: dev\n")
			testutil.Mkdir(t, root, "modules")
			testutil.WriteFile(t, root, "CogniteDataFusion/functions/ingest/handler.py", "x")
			chdir(t, root)
			installFakeOnPath(t, &testutil.FakeCDF{})

			logs, err := runRoot(t, tt.args...)
			require.NoError(t, err, logs)

			assert.Contains(t, logs, "level=INFO msg=\"Prerequisites met\"")
			if tt.wantDebug {
				assert.Contains(t, logs, "level=DEBUG")
			} else {
				assert.NotContains(t, logs, "level=DEBUG")
			}
		})
	}
}

func TestRootCommand_PrerequisiteMissing(t *testing.T) {
	restoreGlobals(t)

	chdir(t, t.TempDir())
	installFakeOnPath(t, &testutil.FakeCDF{})

	_, err := runRoot(t)
	require.Error(t, err)
	assert.Equal(t, model.KindPrerequisiteMissing, model.KindOf(err))
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, err.Error(), "config.dev.yaml")
}

func TestRootCommand_DeployFailure(t *testing.T) {
	restoreGlobals(t)

	root := t.TempDir()
	testutil.WriteFile(t, root, "config.dev.yaml", "environment:\n  name: dev\n")
	testutil.Mkdir(t, root, "modules")
	testutil.WriteFile(t, root, "CogniteDataFusion/functions/ingest/handler.py", "x")
	chdir(t, root)

	installFakeOnPath(t, &testutil.FakeCDF{DeployExit: 2})

	_, err := runRoot(t)
	require.Error(t, err)
	assert.Equal(t, model.KindExternalToolFailure, model.KindOf(err))
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, err.Error(), "cdf deploy --dry-run' failed")
}

func TestRootCommand_RejectsArguments(t *testing.T) {
	restoreGlobals(t)

	_, err := runRoot(t, "some/path")
	require.Error(t, err)
	assert.Equal(t, 1, ExitCode(err))
}

// TestPrintError checks the single-line error output for typed and
// untyped errors.
func TestPrintError(t *testing.T) {
	restoreGlobals(t)

	var buf bytes.Buffer
	logging.Setup(&buf, false)

	printError(model.NewCLIError(model.KindDirectoryMissing, "Directory 'functions' not found"))
	printError(errors.New("disk on fire"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), `level=ERROR msg="Directory 'functions' not found" kind=DirectoryMissing`)
	assert.Contains(t, string(lines[1]), `msg="An unexpected error occurred: disk on fire" kind=UnexpectedError`)
}

func TestNewRootCommand_Version(t *testing.T) {
	restoreGlobals(t)

	Version, Commit, Date = "1.2.3", "abc123", "2026-01-01"
	t.Cleanup(func() { Version, Commit, Date = "dev", "none", "unknown" })

	cmd := NewRootCommand()
	assert.Equal(t, "1.2.3 (commit: abc123, built: 2026-01-01)", cmd.Version)
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
