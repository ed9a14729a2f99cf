package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dendrascience/filecoder/coder"
	"github.com/dendrascience/filecoder/config"
	"github.com/dendrascience/filecoder/mapping"
	"github.com/dendrascience/filecoder/util"
)

// NewDecodeCmd creates and returns the decode subcommand for the filecoder CLI.
// It reverses coding by looking codes up in a mapping snapshot.
func NewDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode CODE|CODED_FILE...",
		Short: "Look up the original file names of codes",
		Long: `Print the original file name for each code, one "code<TAB>name" line per
argument. Arguments may be bare codes (5231) or coded file names and paths
(coded/5231.jpg). Exits non-zero if any code is not in the snapshot.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			return runDecode(cmd, cfg.Snapshot, args)
		},
	}

	cmd.Flags().String("snapshot", "", "Mapping snapshot to decode against (required)")

	return cmd
}

func runDecode(cmd *cobra.Command, snapshot string, args []string) error {
	if snapshot == "" {
		return &util.ConfigurationError{Field: "snapshot", Reason: "is required"}
	}
	store, err := mapping.Load(snapshot, nil)
	if err != nil {
		return err
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	missing := 0
	for _, arg := range args {
		code, _, ok := coder.ParseCodedName(filepath.Base(arg))
		if !ok {
			fmt.Fprintf(errOut, "%s: not a code\n", arg)
			missing++
			continue
		}
		e, ok := store.Lookup(code)
		if !ok {
			fmt.Fprintf(errOut, "%s: unknown code\n", code)
			missing++
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", e.Code, e.Identity)
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d codes not found in %s", missing, len(args), snapshot)
	}
	return nil
}
