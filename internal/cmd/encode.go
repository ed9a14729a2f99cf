package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dendrascience/filecoder/coder"
	"github.com/dendrascience/filecoder/config"
	"github.com/dendrascience/filecoder/internal/logctx"
	"github.com/dendrascience/filecoder/mapping"
	"github.com/dendrascience/filecoder/walker"
)

// NewEncodeCmd creates and returns the encode subcommand for the filecoder CLI.
// It codes a directory tree and writes the resulting mapping snapshot.
func NewEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Copy files under random codes and record the mapping",
		Long: `Copy every file under the source tree to the destination directory,
renamed to <code>.<ext>, where code is a random number with exactly --length
digits. Platform bookkeeping files (desktop.ini, .DS_Store, Thumbs.db, ...)
are left out.

If --snapshot names a prior mapping, none of its codes is reissued and the
new snapshot contains its entries followed by the new ones. The prior snapshot
is never modified; the new one is written next to it (or to --snapshot-dir)
as <stem>_<YYYYMMDD-HHMMSS>.<ext>, only after every file has been copied.

Every setting can also come from FILECODER_<NAME> environment variables or a
config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			return runEncode(cmd, cfg)
		},
	}

	cmd.Flags().StringP("source", "s", "", "Directory tree to code")
	cmd.Flags().StringP("destination", "d", "", "Directory that receives the coded copies")
	cmd.Flags().String("snapshot", "", "Prior mapping snapshot whose codes must not be reissued")
	cmd.Flags().String("snapshot-dir", "", "Where to write the new snapshot (default: next to --snapshot, else the working directory)")
	cmd.Flags().String("format", "", "Snapshot format: csv, json, sqlite, parquet or xlsx (default: that of --snapshot, else csv)")
	cmd.Flags().IntP("length", "l", 0, "Number of digits in each code (1-18)")
	cmd.Flags().String("split-policy", string(walker.DefaultPolicy), "Names without exactly one extension: reject, skip or last")
	cmd.Flags().IntP("workers", "w", 1, "Number of files copied concurrently")
	cmd.Flags().Bool("verify", false, "Compare a SHA-256 of every copy with its source")
	cmd.Flags().StringSlice("ignore", nil, "Extra file or directory name patterns to leave out")

	return cmd
}

func runEncode(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()
	if err := cfg.Validate(); err != nil {
		return err
	}
	format, err := cfg.SnapshotFormat()
	if err != nil {
		return err
	}

	store, err := mapping.Load(cfg.Snapshot, nil)
	if err != nil {
		return err
	}

	p := &coder.Pipeline{
		Length:       cfg.Length,
		Workers:      cfg.Workers,
		Walk:         cfg.WalkOptions(),
		Materializer: coder.CopyMaterializer{Verify: cfg.Verify},
	}
	report, err := p.Run(cmd.Context(), cfg.Source, cfg.Destination, store)
	if err != nil {
		var runErr *coder.RunError
		if errors.As(err, &runErr) {
			fmt.Fprintf(out, "Coding failed after %d files; no snapshot was written.\n", runErr.Processed)
		}
		return err
	}

	now := time.Now()
	path, err := store.PersistSnapshot(cfg.ResolvedSnapshotDir(), mapping.SnapshotStem(cfg.Snapshot), format, now)
	if err != nil {
		return fmt.Errorf("files were coded but the snapshot could not be written: %w", err)
	}
	meta := store.GenerateMetadata(report.RunID, cfg.Length, format, now)
	if err := meta.Save(path); err != nil {
		logctx.FromContext(cmd.Context()).Warn("failed to write snapshot metadata", "snapshot", path, "error", err)
	}

	printReport(out, report, path, store)
	return nil
}

func printReport(out io.Writer, report coder.Report, snapshot string, store *mapping.Store) {
	fmt.Fprintf(out, "Coding is finished.\n")
	fmt.Fprintf(out, "  Run:        %s\n", report.RunID)
	fmt.Fprintf(out, "  Coded:      %d files\n", report.Coded)
	fmt.Fprintf(out, "  Excluded:   %d bookkeeping files\n", report.Excluded)
	if report.Irregular > 0 {
		fmt.Fprintf(out, "  Not files:  %d symlinks or special files\n", report.Irregular)
	}
	if len(report.Skipped) > 0 {
		fmt.Fprintf(out, "  Skipped:    %d files\n", len(report.Skipped))
		for _, s := range report.Skipped {
			fmt.Fprintf(out, "    - %s: %v\n", s.RelPath, s.Reason)
		}
	}
	fmt.Fprintf(out, "  Mapping:    %s (%d entries)\n", snapshot, store.Len())
	fmt.Fprintf(out, "  Took:       %s\n", report.Duration.Round(time.Millisecond))
}
