// Package model defines the domain types for the cdf-dryrun CLI.
//
// A dry run has no persistent entities. The types here describe the fixed
// project layout the run operates on, the linear sequence of stages a run
// moves through, and the error taxonomy used to report why a run stopped.
package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Stage represents the progress of a dry run. The transitions are strictly
// linear; any stage may move to StageFailed:
//
//	Init → PrerequisitesChecked → Synchronized → Prefixed → Built → DryRunDeployed → Done
type Stage string

const (
	// StageInit is the state before any step has run.
	StageInit Stage = "init"

	// StagePrerequisitesChecked means the tool, config file, and modules
	// directory were all found.
	StagePrerequisitesChecked Stage = "prerequisites-checked"

	// StageSynchronized means the module sources were mirrored into modules/.
	StageSynchronized Stage = "synchronized"

	// StagePrefixed means every function directory carries the function prefix.
	StagePrefixed Stage = "prefixed"

	// StageBuilt means the build directory was recreated by `cdf build`.
	StageBuilt Stage = "built"

	// StageDryRunDeployed means `cdf deploy --dry-run` exited successfully.
	StageDryRunDeployed Stage = "dry-run-deployed"

	// StageDone is the terminal success state.
	StageDone Stage = "done"

	// StageFailed is the terminal failure state. Completed side effects of
	// earlier stages are left in place.
	StageFailed Stage = "failed"
)

// stageOrder lists the non-failure stages in the order a run visits them.
var stageOrder = []Stage{
	StageInit,
	StagePrerequisitesChecked,
	StageSynchronized,
	StagePrefixed,
	StageBuilt,
	StageDryRunDeployed,
	StageDone,
}

// String returns the string representation of Stage.
func (s Stage) String() string {
	return string(s)
}

// IsValid checks whether the Stage value is one of the predefined stages.
func (s Stage) IsValid() bool {
	if s == StageFailed {
		return true
	}
	for _, st := range stageOrder {
		if s == st {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition can happen from s.
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageFailed
}

// Next returns the stage that follows s on the success path.
// Terminal and unknown stages return an error.
func (s Stage) Next() (Stage, error) {
	for i, st := range stageOrder {
		if st == s && i+1 < len(stageOrder) {
			return stageOrder[i+1], nil
		}
	}
	return "", fmt.Errorf("stage %q has no successor", s)
}

// ParseStage converts a string to a Stage.
// Returns an error if the string does not match any valid stage.
func ParseStage(s string) (Stage, error) {
	stage := Stage(strings.ToLower(s))
	if !stage.IsValid() {
		return "", fmt.Errorf("invalid stage: %q", s)
	}
	return stage, nil
}

// Layout holds the fixed relative paths a dry run reads and writes.
// All paths are relative to the project root (the working directory).
type Layout struct {
	// Tool is the name (or path) of the Cognite Toolkit executable.
	Tool string

	// ConfigFile must exist before anything else runs.
	ConfigFile string

	// ModulesDir must exist and be a directory.
	ModulesDir string

	// SourceDir is mirrored into SyncDestDir.
	SourceDir string

	// SyncDestDir is overwritten to match SourceDir exactly.
	SyncDestDir string

	// FunctionsDir holds one directory per deployable function.
	FunctionsDir string

	// BuildDir is deleted before every build.
	BuildDir string

	// FunctionPrefix marks a directory as a deployable function.
	FunctionPrefix string
}

// DefaultLayout returns the hard-coded layout of a Cognite Data Fusion
// toolkit project.
func DefaultLayout() Layout {
	return Layout{
		Tool:           "cdf",
		ConfigFile:     "config.dev.yaml",
		ModulesDir:     "modules",
		SourceDir:      "CogniteDataFusion",
		SyncDestDir:    filepath.Join("modules", "CogniteDataFusion"),
		FunctionsDir:   filepath.Join("modules", "CogniteDataFusion", "functions"),
		BuildDir:       "build",
		FunctionPrefix: "fn_",
	}
}

// ErrorKind classifies why a run failed.
type ErrorKind string

const (
	// KindPrerequisiteMissing covers a missing tool, config file, or modules directory.
	KindPrerequisiteMissing ErrorKind = "PrerequisiteMissing"

	// KindSourceMissing indicates the sync source directory does not exist.
	KindSourceMissing ErrorKind = "SourceMissing"

	// KindDirectoryMissing indicates the prefix target directory does not exist.
	KindDirectoryMissing ErrorKind = "DirectoryMissing"

	// KindExternalToolFailure indicates an external command exited non-zero
	// or could not be started.
	KindExternalToolFailure ErrorKind = "ExternalToolFailure"

	// KindUnexpected is the catch-all for anything else.
	KindUnexpected ErrorKind = "UnexpectedError"
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	return string(k)
}

// ExitCode defines the process exit codes of the CLI.
type ExitCode int

const (
	// ExitSuccess indicates every step completed.
	ExitSuccess ExitCode = 0

	// ExitGeneralError is returned for every detected failure, whatever its kind.
	ExitGeneralError ExitCode = 1
)

// CLIError is a custom error type that carries an error kind and an exit code.
// This allows the CLI layer to translate step failures into a single log line
// and a process exit status.
type CLIError struct {
	// Kind is the failure category.
	Kind ErrorKind

	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError of the given kind. The exit code is
// always ExitGeneralError.
func NewCLIError(kind ErrorKind, message string) *CLIError {
	return &CLIError{Kind: kind, Code: ExitGeneralError, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(kind ErrorKind, message string, err error) *CLIError {
	return &CLIError{Kind: kind, Code: ExitGeneralError, Message: message, Err: err}
}

// KindOf returns the ErrorKind of the first CLIError in err's chain,
// or KindUnexpected when there is none.
func KindOf(err error) ErrorKind {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Kind
	}
	return KindUnexpected
}
