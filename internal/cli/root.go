// Package cli implements the cobra-based command line for cdf-dryrun.
//
// The root command is the whole program: it runs the dry-run orchestrator
// in the current working directory. This file also translates the
// orchestrator's typed errors into a single error log line and an exit code.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/cdf-dryrun/internal/dryrun"
	"github.com/shinji-kodama/cdf-dryrun/internal/logging"
	"github.com/shinji-kodama/cdf-dryrun/internal/model"
)

// quiet raises the log level from debug to info. It is bound to a
// persistent flag on the root command.
var quiet bool

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// The command takes no arguments and no path flags: every path the dry run
// touches is fixed relative to the working directory.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cdf-dryrun",
		Short: "Build and dry-run deploy a Cognite Data Fusion module",
		Long: `cdf-dryrun prepares the CogniteDataFusion module for the Cognite Toolkit and
runs a deployment dry run:

  1. checks that cdf, config.dev.yaml and modules/ are present
  2. mirrors ./CogniteDataFusion into modules/CogniteDataFusion (destructive)
  3. prefixes every function directory with "fn_"
  4. deletes ./build and runs 'cdf build'
  5. runs 'cdf deploy --dry-run'

The run stops at the first failing step and exits with status 1.`,
		Args: cobra.NoArgs,

		// SilenceUsage prevents cobra from printing usage on every error.
		// A failed step is not a usage problem.
		SilenceUsage: true,

		// SilenceErrors leaves error reporting to Execute, which logs a
		// single leveled line.
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logging.Setup(cmd.ErrOrStderr(), !quiet)
		},

		RunE: func(cmd *cobra.Command, _ []string) error {
			o := dryrun.New(dryrun.Config{
				Root:   ".",
				Logger: slog.Default(),
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
			})
			return o.Run(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Hide debug logging (renames, command lines)")

	return rootCmd
}

// Execute runs the root command and exits the process with the code
// ExitCode derives from its error.
func Execute(rootCmd *cobra.Command) {
	// Installed before flag parsing so that flag errors are logged in the
	// same format as step failures.
	logging.Setup(rootCmd.ErrOrStderr(), true)

	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(ExitCode(err))
	}
}

// ExitCode maps an error returned by the root command to a process exit
// code. CLIError types carry their own exit codes; other errors default to
// ExitGeneralError.
func ExitCode(err error) int {
	if err == nil {
		return int(model.ExitSuccess)
	}
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return int(cliErr.Code)
	}
	return int(model.ExitGeneralError)
}

// printError logs err as one error-level line. Errors that did not come
// from a step are reported as unexpected.
func printError(err error) {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		slog.Error(err.Error(), "kind", cliErr.Kind.String())
		return
	}
	slog.Error("An unexpected error occurred: "+err.Error(), "kind", model.KindUnexpected.String())
}
