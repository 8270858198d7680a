// Package main is the entry point for the cdf-dryrun CLI.
//
// This binary prepares a Cognite Data Fusion toolkit module and runs a
// deployment dry run against it. It delegates all functionality to the
// internal/cli package.
//
// Build-time variables (version, commit, date) are injected via ldflags
// during the release build. During development, they default to "dev",
// "none", and "unknown" respectively.
package main

import (
	"github.com/shinji-kodama/cdf-dryrun/internal/cli"
)

// version, commit, and date are set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
