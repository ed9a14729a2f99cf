package coder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dendrascience/filecoder/codegen"
	"github.com/dendrascience/filecoder/internal/logctx"
	"github.com/dendrascience/filecoder/mapping"
	"github.com/dendrascience/filecoder/util"
	"github.com/dendrascience/filecoder/walker"
)

type (
	// Pipeline codes every file under a root into a destination directory.
	// The zero value is not usable; Length must be set.
	Pipeline struct {
		Length       int
		Workers      int // concurrent copies; values below 1 mean 1
		Walk         walker.Options
		Generator    mapping.Generator
		Materializer Materializer
		RunID        string           // generated when empty
		Now          func() time.Time // time.Now when nil
	}

	// Report summarizes a run. It is returned even when the run fails.
	Report struct {
		RunID     string
		Started   time.Time
		Duration  time.Duration
		Coded     int
		Excluded  int
		Irregular int
		Skipped   []walker.Skipped
	}

	// RunError is returned when a run aborts. Processed counts the items
	// that were coded and copied before the failure.
	RunError struct {
		Processed int
		Err       error
	}
)

func (e *RunError) Error() string {
	return fmt.Sprintf("coding aborted after %d items: %v", e.Processed, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// NewRunID returns a fresh, time-ordered run identifier.
func NewRunID() string {
	return ulid.Make().String()
}

// Run codes the tree under root into dest with default collaborators: a
// randomly seeded codegen.Generator and plain file copies.
func Run(ctx context.Context, root, dest string, length int, store *mapping.Store) (Report, error) {
	p := &Pipeline{Length: length}
	return p.Run(ctx, root, dest, store)
}

// Run walks root and, for each file, assigns a code from the store, then
// copies the file to dest as <code>.<ext>. The code is recorded before the
// copy starts; if the copy fails the entry is discarded again and the run
// aborts, so the store only ever lists files that were copied.
//
// root and dest must not overlap. Cancellation of ctx is honored between
// items; a copy that has started is allowed to finish. Run does not persist
// the store.
func (p *Pipeline) Run(ctx context.Context, root, dest string, store *mapping.Store) (Report, error) {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	report := Report{RunID: p.RunID, Started: now()}
	if report.RunID == "" {
		report.RunID = NewRunID()
	}
	logger := logctx.FromContext(ctx).With("run_id", report.RunID)

	if err := codegen.ValidateLength(p.Length); err != nil {
		return report, err
	}
	overlap, err := util.PathsOverlap(root, dest)
	if err != nil {
		return report, err
	}
	if overlap {
		return report, &util.ConfigurationError{Field: "destination", Value: dest, Reason: fmt.Sprintf("overlaps source %s", root)}
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return report, &util.IOError{Op: "mkdir", Dst: dest, Err: err}
	}

	gen := p.Generator
	if gen == nil {
		gen = codegen.New()
	}
	mat := p.Materializer
	if mat == nil {
		mat = CopyMaterializer{}
	}
	workers := max(p.Workers, 1)

	logger.Info("coding started", "source", root, "destination", dest, "length", p.Length, "workers", workers, "known_codes", store.Len())

	var processed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	w := walker.New(root, p.Walk)
	var loopErr error
	for item, err := range w.Items() {
		if gctx.Err() != nil {
			break
		}
		if err != nil {
			loopErr = err
			break
		}
		entry, err := store.Assign(gen, p.Length, item.Name)
		if err != nil {
			loopErr = err
			break
		}
		target := filepath.Join(dest, CodedName(entry.Code, item.Extension))
		copyOne := func() error {
			if err := mat.Materialize(gctx, item.Path, target); err != nil {
				store.Discard(entry.Code)
				logger.Error("copy failed", "source", item.RelPath, "code", entry.Code, "error", err)
				return err
			}
			processed.Add(1)
			logger.Debug("coded", "source", item.RelPath, "code", entry.Code)
			return nil
		}
		if workers == 1 {
			if err := copyOne(); err != nil {
				loopErr = err
				break
			}
			continue
		}
		g.Go(copyOne)
	}
	waitErr := g.Wait()

	stats := w.Stats()
	report.Coded = int(processed.Load())
	report.Excluded = stats.Excluded
	report.Irregular = stats.Irregular
	report.Skipped = stats.Skipped
	report.Duration = now().Sub(report.Started)
	for _, s := range stats.Skipped {
		logger.Warn("skipped", "source", s.RelPath, "reason", s.Reason)
	}

	runErr := loopErr
	if runErr == nil && ctx.Err() != nil {
		runErr = ctx.Err()
	}
	if runErr == nil {
		runErr = waitErr
	}
	if runErr != nil {
		var ex *util.ExhaustedCodespaceError
		if errors.As(runErr, &ex) {
			ex.Coded = report.Coded
		}
		logger.Error("coding aborted", "coded", report.Coded, "error", runErr)
		return report, &RunError{Processed: report.Coded, Err: runErr}
	}

	logger.Info("coding finished", "coded", report.Coded, "excluded", report.Excluded, "skipped", len(report.Skipped), "duration", report.Duration)
	return report, nil
}
