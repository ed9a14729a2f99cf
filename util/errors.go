package util

import (
	"errors"
	"fmt"
)

// Sentinel errors for the coding run.
// These errors can be checked with errors.Is() to classify any failure
// returned by the mapping, codegen, walker and coder packages.
var (
	// Snapshot errors
	ErrFormat = errors.New("snapshot does not match the two-column code/identity schema")

	// Configuration errors
	ErrConfiguration = errors.New("invalid configuration")

	// Materialization errors
	ErrIO = errors.New("materialization failed")

	// Code space errors
	ErrExhaustedCodespace = errors.New("code space exhausted")

	// File and directory errors
	ErrExpectedFile      = errors.New("expected file, got directory")
	ErrExpectedDirectory = errors.New("expected directory but got file")
	ErrUnexpectedSymlink = errors.New("expected file, got symlink")
)

// FormatError reports a snapshot that exists but cannot be read as a mapping.
// Row is 1-based; zero means the problem is not tied to a single row.
type FormatError struct {
	Path   string
	Row    int
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := e.Path
	if e.Row > 0 {
		msg = fmt.Sprintf("%s row %d", msg, e.Row)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// ConfigurationError reports a setting or a discovered item the run cannot accept.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// IOError reports a materialization failure for one source file.
type IOError struct {
	Op  string
	Src string
	Dst string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %q -> %q: %v", e.Op, e.Src, e.Dst, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// ExhaustedCodespaceError reports that no unused code of Length digits remains.
// Coded is filled in by the pipeline with the number of items coded before the failure.
type ExhaustedCodespaceError struct {
	Length   int
	Capacity int64
	Used     int64
	Coded    int
}

func (e *ExhaustedCodespaceError) Error() string {
	return fmt.Sprintf("no unused %d-digit codes left (%d of %d in use, %d items coded this run)",
		e.Length, e.Used, e.Capacity, e.Coded)
}

func (e *ExhaustedCodespaceError) Is(target error) bool { return target == ErrExhaustedCodespace }
