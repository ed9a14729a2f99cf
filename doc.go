// Package main provides the filecoder command-line interface.
//
// filecoder renames a batch of files to random, collision-free numeric codes.
// Every file under a source tree is copied to a destination directory as
// <code>.<ext>, and the pairing of code and original file name is written to a
// new, timestamped mapping snapshot. Passing that snapshot to the next run
// guarantees that none of its codes is issued again.
//
// The main binary supports multiple subcommands:
//   - encode: Code a directory tree and write a new mapping snapshot
//   - decode: Look up the original names of codes
//   - validate: Check a snapshot and a coded directory for consistency
//   - count: Dry run of the directory walk
//   - seed: Generate a sample tree
package main
