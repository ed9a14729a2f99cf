package mapping

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dendrascience/filecoder/util"
)

// DefaultStem names new snapshots when there is no prior snapshot to derive from.
const DefaultStem = "mapping"

// SnapshotTimeLayout is the timestamp suffix added to every new snapshot.
const SnapshotTimeLayout = "20060102-150405"

// maxNameAttempts bounds the -N suffixes tried when a snapshot name is taken.
const maxNameAttempts = 1000

// Load reads the prior snapshot at path into a new Store. An empty path
// yields an empty store. A snapshot that exists but does not hold unique,
// well-formed (code, identity) pairs fails with a *util.FormatError.
func Load(path string, format Format) (*Store, error) {
	s := NewStore()
	if path == "" {
		return s, nil
	}
	if format == nil {
		var err error
		if format, err = FormatForPath(path); err != nil {
			return nil, err
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, util.ErrExpectedFile
	}

	records, err := format.Read(path)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		e, row := rec.Entry, rec.Row
		switch {
		case !ValidCode(e.Code):
			return nil, &util.FormatError{Path: path, Row: row, Reason: fmt.Sprintf("code %q is not a digit string without a leading zero", e.Code)}
		case e.Identity == "":
			return nil, &util.FormatError{Path: path, Row: row, Reason: "empty identity"}
		case s.codes.Contains(e.Code):
			return nil, &util.FormatError{Path: path, Row: row, Reason: fmt.Sprintf("duplicate code %q", e.Code)}
		}
		s.insertLocked(e)
	}
	s.loaded = len(s.entries)
	s.source = path
	return s, nil
}

// Persist writes every entry to path as a new snapshot. The data goes to a
// hidden temp file in the same directory and is published only when complete,
// so path either holds the full mapping or does not exist. An existing file
// at path is never replaced; Persist returns an error wrapping os.ErrExist.
func (s *Store) Persist(path string, format Format) error {
	entries := s.Entries()
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, util.TempPrefix+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err := tmp.Close(); err != nil {
		return err
	}
	defer os.Remove(tmpName)

	if err := format.Write(tmpName, entries); err != nil {
		return fmt.Errorf("failed to write %s snapshot: %w", format.Name(), err)
	}
	if err := syncFile(tmpName); err != nil {
		return err
	}
	if err := util.PublishNoOverwrite(tmpName, path); err != nil {
		return fmt.Errorf("failed to publish snapshot %s: %w", path, err)
	}
	return nil
}

// PersistSnapshot writes a new snapshot named <stem>_<timestamp><ext> in dir
// and returns its path. Successive runs never overwrite one another: if the
// name is taken a -N counter is appended.
func (s *Store) PersistSnapshot(dir, stem string, format Format, now time.Time) (string, error) {
	if stem == "" {
		stem = DefaultStem
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	base := fmt.Sprintf("%s_%s", stem, now.Format(SnapshotTimeLayout))
	ext := format.Extensions()[0]
	for i := 0; i < maxNameAttempts; i++ {
		name := base + ext
		if i > 0 {
			name = fmt.Sprintf("%s-%d%s", base, i, ext)
		}
		path := filepath.Join(dir, name)
		err := s.Persist(path, format)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("no free snapshot name for %s in %s", base, dir)
}

var stampSuffix = regexp.MustCompile(`_\d{8}(-\d{6})?(-\d+)?$`)

// SnapshotStem derives the stem for a new snapshot from the prior snapshot's
// file name, dropping its extension and any timestamp suffix a previous run
// added (or the bare _YYYYMMDD date of older spreadsheets), so a lineage
// keeps one stem.
func SnapshotStem(prior string) string {
	if prior == "" {
		return DefaultStem
	}
	base := filepath.Base(prior)
	stem := stampSuffix.ReplaceAllString(strings.TrimSuffix(base, filepath.Ext(base)), "")
	if stem == "" {
		return DefaultStem
	}
	return stem
}

func syncFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
