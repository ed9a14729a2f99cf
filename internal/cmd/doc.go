// Package cmd provides the command-line interface implementation for filecoder.
//
// This package contains all the subcommand implementations for the filecoder CLI tool.
// It uses the Cobra library for command structure and Fang for styling.
//
// The package is organized into the following commands:
//   - root: Main command coordinator, logging setup and shared flags
//   - encode: Code a directory tree and write a new mapping snapshot
//   - decode: Reverse lookup of codes in a snapshot
//   - validate: Snapshot and coded directory consistency checking
//   - count: Dry run of the directory walk
//   - seed: Sample tree generation
//
// Each command is implemented as a separate file with its own constructor function
// that returns a *cobra.Command. Settings for encode are resolved through the
// config package, so flags, FILECODER_* variables and a config file all apply.
package cmd
