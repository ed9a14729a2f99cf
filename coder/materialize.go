package coder

import (
	"context"
	"strings"

	"github.com/dendrascience/filecoder/mapping"
	"github.com/dendrascience/filecoder/util"
)

// Materializer produces the renamed copy of a source file. Implementations
// must leave nothing at dst when they fail.
type Materializer interface {
	Materialize(ctx context.Context, src, dst string) error
}

// MaterializeFunc adapts a function to the Materializer interface.
type MaterializeFunc func(ctx context.Context, src, dst string) error

func (f MaterializeFunc) Materialize(ctx context.Context, src, dst string) error {
	return f(ctx, src, dst)
}

// CopyMaterializer copies files with util.CopyFile, keeping bytes, mode and
// modification time.
type CopyMaterializer struct {
	Verify bool
}

func (m CopyMaterializer) Materialize(ctx context.Context, src, dst string) error {
	return util.CopyFile(ctx, src, dst, util.CopyOptions{Verify: m.Verify})
}

// CodedName returns the destination file name for a code: <code>.<ext>, or
// just the code when the source had no extension.
func CodedName(code, ext string) string {
	if ext == "" {
		return code
	}
	return code + "." + ext
}

// ParseCodedName splits a destination file name back into its code and
// extension. ok is false when the name does not start with a valid code.
func ParseCodedName(name string) (code, ext string, ok bool) {
	code, ext, _ = strings.Cut(name, ".")
	if !mapping.ValidCode(code) {
		return "", "", false
	}
	return code, ext, true
}
