package walker

import (
	"path/filepath"
	"strings"
)

// Names of files that operating systems and file managers drop into
// directories on their own. They are never coded.
var bookkeepingFiles = map[string]struct{}{
	"desktop.ini": {},
	".DS_Store":   {},
	"Thumbs.db":   {},
	"ehthumbs.db": {},
	"Icon\r":      {},
	".localized":  {},
}

// Directories of the same kind. The walker does not descend into them.
var bookkeepingDirs = map[string]struct{}{
	"__MACOSX":                  {},
	".Spotlight-V100":           {},
	".Trashes":                  {},
	".fseventsd":                {},
	".TemporaryItems":           {},
	"$RECYCLE.BIN":              {},
	"System Volume Information": {},
}

// appleDoublePrefix marks the resource fork files macOS writes on non-HFS volumes.
const appleDoublePrefix = "._"

// IsBookkeeping reports whether name is a platform metadata file rather than content.
func IsBookkeeping(name string) bool {
	if _, ok := bookkeepingFiles[name]; ok {
		return true
	}
	if strings.EqualFold(name, "thumbs.db") || strings.EqualFold(name, "desktop.ini") {
		return true
	}
	return strings.HasPrefix(name, appleDoublePrefix)
}

// IsBookkeepingDir reports whether a directory named name holds only platform metadata.
func IsBookkeepingDir(name string) bool {
	_, ok := bookkeepingDirs[name]
	return ok
}

// ValidatePatterns checks that every ignore pattern is a well-formed glob.
// It returns the first malformed pattern along with filepath.ErrBadPattern.
func ValidatePatterns(patterns []string) (string, error) {
	for _, p := range patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return p, err
		}
	}
	return "", nil
}

func matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}
