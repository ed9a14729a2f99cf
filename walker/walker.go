package walker

import (
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"

	"github.com/dendrascience/filecoder/util"
)

// ErrConsumed is returned when a Walker is iterated a second time.
var ErrConsumed = errors.New("walker: sequence already consumed")

type (
	// WorkItem is one discovered file waiting to be coded.
	WorkItem struct {
		Path      string // path usable with os.Open (the root as given joined with RelPath)
		RelPath   string // path relative to the walk root
		Name      string // file name as found, the identity stored in the mapping
		BaseName  string
		Extension string // without the dot; empty only under PolicyLast
	}

	// Skipped records an item left out under PolicySkip.
	Skipped struct {
		RelPath string
		Reason  error
	}

	// Stats counts what a walk saw. It is complete once the sequence ends.
	Stats struct {
		Files     int // work items yielded
		Dirs      int
		Excluded  int // bookkeeping files and directories, and ignore matches
		Irregular int // symlinks, devices, sockets and pipes
		Skipped   []Skipped
	}

	// Options tunes a walk.
	Options struct {
		// Ignore holds extra filepath.Match patterns tested against each
		// file and directory name.
		Ignore []string
		Policy SplitPolicy
	}

	// Walker walks one root once.
	Walker struct {
		root     string
		opts     Options
		stats    Stats
		consumed bool
	}
)

// New returns a Walker over root. The walk does not start until Items is ranged over.
func New(root string, opts Options) *Walker {
	if opts.Policy == "" {
		opts.Policy = DefaultPolicy
	}
	return &Walker{root: root, opts: opts}
}

// Walk is shorthand for New(root, opts).Items().
func Walk(root string, opts Options) iter.Seq2[WorkItem, error] {
	return New(root, opts).Items()
}

// Stats returns the counts gathered so far.
func (w *Walker) Stats() Stats {
	return w.stats
}

// Items returns the lazy sequence of work items under the root, in directory
// order. Bookkeeping entries, ignore matches and anything that is not a
// regular file are left out.
//
// A file name that cannot be split under the walker's policy is yielded as
// a *util.ConfigurationError (PolicyReject) or recorded in Stats.Skipped
// (PolicySkip). Consumers may keep ranging after such an error. A
// filesystem error is yielded once and ends the walk.
//
// The sequence can be ranged over only once.
func (w *Walker) Items() iter.Seq2[WorkItem, error] {
	return func(yield func(WorkItem, error) bool) {
		if w.consumed {
			yield(WorkItem{}, ErrConsumed)
			return
		}
		w.consumed = true

		// WalkDir does not follow a symlinked root, so resolve it first.
		root, err := filepath.EvalSymlinks(w.root)
		if err != nil {
			yield(WorkItem{}, err)
			return
		}
		info, err := os.Stat(root)
		if err != nil {
			yield(WorkItem{}, err)
			return
		}
		if !info.IsDir() {
			yield(WorkItem{}, &fs.PathError{Op: "walk", Path: w.root, Err: util.ErrExpectedDirectory})
			return
		}

		stop := errors.New("stop")
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			if d.IsDir() {
				if path == root {
					return nil
				}
				if IsBookkeepingDir(name) || matchesAny(w.opts.Ignore, name) {
					w.stats.Excluded++
					return filepath.SkipDir
				}
				w.stats.Dirs++
				return nil
			}
			if IsBookkeeping(name) || matchesAny(w.opts.Ignore, name) {
				w.stats.Excluded++
				return nil
			}
			if !d.Type().IsRegular() {
				w.stats.Irregular++
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			path = filepath.Join(w.root, rel)
			base, ext, err := SplitName(name, w.opts.Policy)
			if err != nil {
				if w.opts.Policy == PolicySkip {
					w.stats.Skipped = append(w.stats.Skipped, Skipped{RelPath: rel, Reason: err})
					return nil
				}
				if !yield(WorkItem{Path: path, RelPath: rel, Name: name}, err) {
					return stop
				}
				return nil
			}

			w.stats.Files++
			item := WorkItem{Path: path, RelPath: rel, Name: name, BaseName: base, Extension: ext}
			if !yield(item, nil) {
				return stop
			}
			return nil
		})
		if err != nil && !errors.Is(err, stop) {
			yield(WorkItem{}, err)
		}
	}
}
