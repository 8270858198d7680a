package dryrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/shinji-kodama/cdf-dryrun/internal/fsync"
	"github.com/shinji-kodama/cdf-dryrun/internal/model"
	"github.com/shinji-kodama/cdf-dryrun/internal/shell"
	"github.com/shinji-kodama/cdf-dryrun/internal/toolkit"
)

// Toolkit is the subset of the cdf CLI a dry run drives.
// *toolkit.Toolkit satisfies it.
type Toolkit interface {
	Version(ctx context.Context) (string, error)
	Build(ctx context.Context) error
	DeployDryRun(ctx context.Context) error
	CommandLine(args ...string) string
}

// Config configures an Orchestrator. Only Root is required; every other
// field has a default derived from it.
type Config struct {
	// Root is the project directory all layout paths are relative to.
	Root string

	// Layout overrides model.DefaultLayout().
	Layout *model.Layout

	// FS is the filesystem rooted at Root. Defaults to osfs.
	FS billy.Filesystem

	// Toolkit runs cdf. Defaults to toolkit.New(Layout.Tool, Root).
	Toolkit Toolkit

	// Mirror performs the sync step. Defaults to fsync.DefaultMirror.
	Mirror fsync.Mirror

	// Logger receives progress messages. Defaults to slog.Default().
	Logger *slog.Logger

	// Stdout and Stderr receive build and deploy output when the default
	// Toolkit is used. Default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Orchestrator runs the dry-run steps in order and tracks the run's stage.
type Orchestrator struct {
	layout model.Layout
	fs     billy.Filesystem
	tool   Toolkit
	mirror fsync.Mirror
	logger *slog.Logger
	stage  model.Stage
}

// New creates an Orchestrator from cfg, filling in defaults.
func New(cfg Config) *Orchestrator {
	layout := model.DefaultLayout()
	if cfg.Layout != nil {
		layout = *cfg.Layout
	}

	root := cfg.Root
	if root == "" {
		root = "."
	}

	fs := cfg.FS
	if fs == nil {
		fs = osfs.New(root)
	}

	stdout, stderr := cfg.Stdout, cfg.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	tool := cfg.Toolkit
	if tool == nil {
		tool = toolkit.New(layout.Tool, root, toolkit.WithOutput(stdout, stderr))
	}

	mirror := cfg.Mirror
	if mirror == nil {
		mirror = fsync.DefaultMirror(fs, root)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		layout: layout,
		fs:     fs,
		tool:   tool,
		mirror: mirror,
		logger: logger,
		stage:  model.StageInit,
	}
}

// Stage returns the stage the run has reached.
func (o *Orchestrator) Stage() model.Stage {
	return o.stage
}

// step is one entry of the fixed run sequence.
type step struct {
	name string
	run  func(ctx context.Context) error
}

func (o *Orchestrator) steps() []step {
	l := o.layout
	return []step{
		{"check prerequisites", o.CheckPrerequisites},
		{"synchronize directories", func(ctx context.Context) error {
			return o.Synchronize(ctx, l.SourceDir, l.SyncDestDir)
		}},
		{"prefix directories", func(ctx context.Context) error {
			_, err := o.PrefixDirectories(l.FunctionsDir)
			return err
		}},
		{"build", o.Build},
		{"dry-run deploy", o.DeployDryRun},
	}
}

// Run executes every step in order and stops at the first failure.
//
// The returned error is always a *model.CLIError (or nil). On failure the
// stage becomes model.StageFailed and side effects of completed steps stay
// in place.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.stage.IsTerminal() {
		return model.NewCLIError(model.KindUnexpected, fmt.Sprintf("dry run already finished in stage %q", o.stage))
	}
	if o.stage != model.StageInit {
		return model.NewCLIError(model.KindUnexpected, fmt.Sprintf("dry run already in stage %q", o.stage))
	}

	for _, s := range o.steps() {
		if err := s.run(ctx); err != nil {
			o.stage = model.StageFailed
			return classify(s.name, err)
		}

		next, err := o.stage.Next()
		if err != nil {
			o.stage = model.StageFailed
			return model.WrapCLIError(model.KindUnexpected, "invalid stage transition", err)
		}
		o.stage = next
		o.logger.Debug("Stage reached", "stage", o.stage.String())
	}

	next, err := o.stage.Next()
	if err != nil {
		o.stage = model.StageFailed
		return model.WrapCLIError(model.KindUnexpected, "invalid stage transition", err)
	}
	o.stage = next
	o.logger.Info("All steps completed successfully!")
	return nil
}

// CheckPrerequisites verifies that the toolkit runs, the config file
// exists, and the modules directory exists.
func (o *Orchestrator) CheckPrerequisites(ctx context.Context) error {
	l := o.layout
	o.logger.Info("Checking prerequisites")

	version, err := o.tool.Version(ctx)
	if err != nil {
		if errors.Is(err, shell.ErrNotFound) {
			return model.WrapCLIError(model.KindPrerequisiteMissing,
				"Missing prerequisite: cognite-toolkit not found. Install it first by running "+
					"'pip install cognite-toolkit' in your preferred python environment", err)
		}
		return model.WrapCLIError(model.KindPrerequisiteMissing,
			fmt.Sprintf("Missing prerequisite: '%s' failed. Reinstall it with 'pip install cognite-toolkit'",
				o.tool.CommandLine("--version")), err)
	}
	o.logger.Debug("Found cognite-toolkit", "version", version)

	if !fsync.Exists(o.fs, l.ConfigFile) {
		return model.NewCLIError(model.KindPrerequisiteMissing,
			fmt.Sprintf("Missing prerequisite: Config file %s does not exist. "+
				"Set up your cdf module with 'cdf modules init'", l.ConfigFile))
	}
	o.logEnvironment()

	if !fsync.IsDir(o.fs, l.ModulesDir) {
		return model.NewCLIError(model.KindPrerequisiteMissing,
			fmt.Sprintf("Missing prerequisite: No %s/ directory found. "+
				"It should be initialized with 'cdf modules init'", l.ModulesDir))
	}

	o.logger.Info("Prerequisites met")
	return nil
}

// logEnvironment reports the environment the config file selects. A config
// the toolkit cannot parse is its problem to report at build time.
func (o *Orchestrator) logEnvironment() {
	data, err := util.ReadFile(o.fs, o.layout.ConfigFile)
	if err != nil {
		o.logger.Warn("Could not read config file", "path", o.layout.ConfigFile, "error", err)
		return
	}
	env, err := toolkit.ParseEnvironment(data)
	if err != nil {
		o.logger.Warn("Config file is not valid YAML", "path", o.layout.ConfigFile, "error", err)
		return
	}
	if env.Name != "" || env.Project != "" {
		o.logger.Debug("Using environment", "name", env.Name, "project", env.Project)
	}
}

// Synchronize mirrors src into dst, deleting destination entries that do
// not exist in src.
func (o *Orchestrator) Synchronize(ctx context.Context, src, dst string) error {
	if !fsync.IsDir(o.fs, src) {
		return model.NewCLIError(model.KindSourceMissing,
			fmt.Sprintf("Source directory '%s' does not exist", src))
	}

	o.logger.Info(fmt.Sprintf("Synchronizing '%s/' with '%s/'", src, dst), "mirror", o.mirror.Name())
	if err := o.mirror.Mirror(ctx, src, dst); err != nil {
		return err
	}
	o.logger.Info(fmt.Sprintf("Synchronized '%s/' with '%s/'", dst, src))
	return nil
}

// PrefixDirectories renames every child directory of dir that lacks the
// function prefix. It returns the renames performed.
func (o *Orchestrator) PrefixDirectories(dir string) ([]fsync.Rename, error) {
	prefix := o.layout.FunctionPrefix
	if !fsync.IsDir(o.fs, dir) {
		return nil, model.NewCLIError(model.KindDirectoryMissing,
			fmt.Sprintf("Directory '%s' not found", dir))
	}

	o.logger.Info(fmt.Sprintf("Prefixing directories in '%s' with '%s'", dir, prefix))
	renames, err := fsync.PrefixDirectories(o.fs, dir, prefix)
	for _, r := range renames {
		o.logger.Debug(fmt.Sprintf("Renamed '%s' to '%s'", r.From, r.To))
	}
	if err != nil {
		return renames, err
	}
	o.logger.Info(fmt.Sprintf("Prefixed directories in '%s' with '%s'", dir, prefix), "renamed", len(renames))
	return renames, nil
}

// Build deletes the build directory, if any, and runs `cdf build`.
func (o *Orchestrator) Build(ctx context.Context) error {
	buildDir := o.layout.BuildDir

	if fsync.IsDir(o.fs, buildDir) {
		o.logger.Info(fmt.Sprintf("Deleting existing build directory './%s'", filepath.ToSlash(buildDir)))
		if _, err := fsync.RemoveAll(o.fs, buildDir); err != nil {
			return err
		}
	}

	o.logger.Info(fmt.Sprintf("Running '%s'", o.tool.CommandLine("build")))
	if err := o.tool.Build(ctx); err != nil {
		return err
	}
	o.logger.Info("Build completed")
	return nil
}

// DeployDryRun runs `cdf deploy --dry-run`.
func (o *Orchestrator) DeployDryRun(ctx context.Context) error {
	o.logger.Info(fmt.Sprintf("Running '%s'", o.tool.CommandLine("deploy", "--dry-run")))
	if err := o.tool.DeployDryRun(ctx); err != nil {
		return err
	}
	o.logger.Info("Dry-run deploy completed")
	return nil
}

// classify makes sure every error leaving Run is a *model.CLIError.
// Typed errors pass through; external command failures become
// ExternalToolFailure and everything else UnexpectedError.
func classify(stepName string, err error) error {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	var exitErr *shell.ExitError
	if errors.As(err, &exitErr) || errors.Is(err, shell.ErrNotFound) {
		return model.WrapCLIError(model.KindExternalToolFailure, fmt.Sprintf("step '%s' failed", stepName), err)
	}
	return model.WrapCLIError(model.KindUnexpected,
		fmt.Sprintf("An unexpected error occurred in step '%s'", stepName), err)
}
