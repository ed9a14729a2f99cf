package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/dendrascience/filecoder/coder"
	"github.com/dendrascience/filecoder/mapping"
	"github.com/dendrascience/filecoder/util"
)

// NewValidateCmd creates and returns the validate subcommand for the filecoder CLI.
// It checks a mapping snapshot and, optionally, a coded output directory.
func NewValidateCmd() *cobra.Command {
	var (
		codedDir string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "validate SNAPSHOT",
		Short: "Check a mapping snapshot and coded files for consistency",
		Long: `Validate a mapping snapshot: every row must hold a well-formed code and
a file name, and no code may appear twice. If the snapshot has a metadata
sidecar, its entry count must match.

With --dir, every file in that coded output directory must be named after a
code in the snapshot. Files whose code is missing are orphans left behind by
an aborted run; leftover temp files from interrupted copies are reported too.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), args[0], codedDir, verbose)
		},
	}

	cmd.Flags().StringVar(&codedDir, "dir", "", "Coded output directory to check against the snapshot")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	return cmd
}

func runValidate(out io.Writer, snapshot, codedDir string, verbose bool) error {
	if verbose {
		fmt.Fprintf(out, "Validating snapshot %s\n", snapshot)
	}
	store, err := mapping.Load(snapshot, nil)
	if err != nil {
		return err
	}

	var problems *multierror.Error

	meta, err := mapping.LoadMetadata(snapshot)
	switch {
	case os.IsNotExist(err):
		if verbose {
			fmt.Fprintf(out, "No metadata sidecar for %s\n", snapshot)
		}
	case err != nil:
		problems = multierror.Append(problems, err)
	case meta.TotalEntryCount != store.Len():
		problems = multierror.Append(problems, fmt.Errorf("metadata records %d entries, snapshot holds %d", meta.TotalEntryCount, store.Len()))
	}

	checked := 0
	if codedDir != "" {
		entries, err := os.ReadDir(codedDir)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			if util.IsTempName(name) {
				problems = multierror.Append(problems, fmt.Errorf("%s: leftover temp file from an interrupted copy", name))
				continue
			}
			checked++
			code, _, ok := coder.ParseCodedName(name)
			switch {
			case !ok:
				problems = multierror.Append(problems, fmt.Errorf("%s: not a coded file name", name))
			case !store.Contains(code):
				problems = multierror.Append(problems, fmt.Errorf("%s: code %s is not in the snapshot (orphan)", name, code))
			case verbose:
				e, _ := store.Lookup(code)
				fmt.Fprintf(out, "%s -> %s\n", name, e.Identity)
			}
		}
	}

	fmt.Fprintf(out, "\nValidation complete:\n")
	fmt.Fprintf(out, "  Entries: %d\n", store.Len())
	if codedDir != "" {
		fmt.Fprintf(out, "  Coded files checked: %d\n", checked)
	}
	var found []error
	if problems != nil {
		found = problems.Errors
	}
	fmt.Fprintf(out, "  Problems: %d\n", len(found))
	for _, p := range found {
		fmt.Fprintf(out, "  - %s\n", p)
	}

	return problems.ErrorOrNil()
}
