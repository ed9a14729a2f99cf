package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dendrascience/filecoder/util"
	"github.com/dendrascience/filecoder/walker"
)

// NewCountCmd creates and returns the count subcommand for the filecoder CLI.
// It reports what encode would pick up in a directory tree without copying.
func NewCountCmd() *cobra.Command {
	var (
		path         string
		showProgress bool
		policy       string
		ignore       []string
	)

	cmd := &cobra.Command{
		Use:   "count [PATH]",
		Short: "Count the files encode would code",
		Long: `Walk a directory tree the way encode does and report how many files
would be coded, how many bookkeeping files would be left out, and which file
names the split policy would reject or skip. Nothing is copied.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				path = args[0]
			}
			p, err := walker.ParseSplitPolicy(policy)
			if err != nil {
				return err
			}
			if bad, err := walker.ValidatePatterns(ignore); err != nil {
				return &util.ConfigurationError{Field: "ignore", Value: bad, Reason: err.Error()}
			}
			return runCount(cmd.OutOrStdout(), path, walker.Options{Ignore: ignore, Policy: p}, showProgress)
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "./", "Path to count files in")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Show progress every 10,000 files")
	cmd.Flags().StringVar(&policy, "split-policy", string(walker.DefaultPolicy), "Names without exactly one extension: reject, skip or last")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "Extra file or directory name patterns to leave out")

	return cmd
}

func runCount(out io.Writer, path string, opts walker.Options, showProgress bool) error {
	w := walker.New(path, opts)
	count := 0
	var rejected []string
	for item, err := range w.Items() {
		if err != nil {
			var ce *util.ConfigurationError
			if errors.As(err, &ce) {
				rejected = append(rejected, fmt.Sprintf("%s: %s", item.RelPath, ce.Reason))
				continue
			}
			return fmt.Errorf("error counting files: %w", err)
		}
		count++
		if showProgress && count%10000 == 0 {
			fmt.Fprintf(out, "Progress: %d files counted\n", count)
		}
	}

	stats := w.Stats()
	fmt.Fprintf(out, "Files to code: %d\n", count)
	fmt.Fprintf(out, "Bookkeeping files excluded: %d\n", stats.Excluded)
	fmt.Fprintf(out, "Symlinks and special files: %d\n", stats.Irregular)
	if len(stats.Skipped) > 0 {
		fmt.Fprintf(out, "Would be skipped: %d\n", len(stats.Skipped))
		for _, s := range stats.Skipped {
			fmt.Fprintf(out, "  - %s: %v\n", s.RelPath, s.Reason)
		}
	}
	if len(rejected) > 0 {
		fmt.Fprintf(out, "Would abort encode: %d\n", len(rejected))
		for _, r := range rejected {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
	return nil
}
