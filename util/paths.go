package util

import (
	"path/filepath"
	"strings"
)

// PathsOverlap reports whether a and b name the same directory or one
// contains the other. Both are made absolute and cleaned first, and
// symlinks are resolved as far as the path exists.
func PathsOverlap(a, b string) (bool, error) {
	a, err := canonical(a)
	if err != nil {
		return false, err
	}
	b, err = canonical(b)
	if err != nil {
		return false, err
	}
	return within(a, b) || within(b, a), nil
}

// IsWithin reports whether child is parent itself or lies below it, after
// the same normalization PathsOverlap applies.
func IsWithin(parent, child string) (bool, error) {
	parent, err := canonical(parent)
	if err != nil {
		return false, err
	}
	child, err = canonical(child)
	if err != nil {
		return false, err
	}
	return within(parent, child), nil
}

func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// canonical makes p absolute and resolves symlinks in the longest prefix
// that exists, so a destination that is yet to be created still compares
// correctly against an existing source.
func canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rest := ""
	for dir := abs; ; {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(resolved, rest), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent
	}
}
