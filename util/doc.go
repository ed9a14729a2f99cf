// Package util provides the shared building blocks of a coding run.
//
// Key Components:
//
// Error Taxonomy:
//   - Sentinels ErrFormat, ErrConfiguration, ErrIO and ErrExhaustedCodespace
//   - FormatError, ConfigurationError, IOError and ExhaustedCodespaceError,
//     each matching its sentinel under errors.Is
//
// Materialization:
//   - CopyFile writes a byte-exact copy through a hidden temp file and
//     publishes it without ever replacing an existing file
//   - Mode and modification time are carried over; an optional SHA-256
//     comparison verifies the copy
//
// Hashing:
//   - SHA-256 helpers for files and streams
//
// Paths:
//   - PathsOverlap and IsWithin compare directories after resolving
//     relative paths and symlinks
package util
