// Package model defines the domain types and value objects for the
// cdf-dryrun CLI.
//
// This package contains pure data structures with no external dependencies:
// the fixed project Layout, the Stage state machine of a run, and the
// CLIError type that carries an ErrorKind and an exit code for proper OS
// process exit handling.
package model
