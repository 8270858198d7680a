// Package dryrun orchestrates a deployment dry run of a Cognite Data Fusion
// toolkit module.
//
// A run is a fixed, ordered list of five fallible steps:
//
//  1. check prerequisites (cdf installed, config file, modules directory)
//  2. mirror the module sources into modules/
//  3. prefix function directories with "fn_"
//  4. delete ./build and run `cdf build`
//  5. run `cdf deploy --dry-run`
//
// The first failing step stops the run. Nothing is retried and completed
// steps are not rolled back.
package dryrun
