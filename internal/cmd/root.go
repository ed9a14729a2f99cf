package cmd

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dendrascience/filecoder/internal/logctx"
	"github.com/dendrascience/filecoder/internal/logging"
	"github.com/dendrascience/filecoder/version"
)

// NewRootCmd creates and returns the root cobra command for the filecoder CLI.
// It sets up all subcommands, command groups, logging and the shared flags.
func NewRootCmd() *cobra.Command {
	var (
		logLevel string
		logFile  string
		closeLog = func() error { return nil }
	)

	rootCmd := &cobra.Command{
		Use:   "filecoder",
		Short: "filecoder - Rename files to random numeric codes and keep the key",
		Long: `filecoder copies every file under a directory tree to a flat output
directory, renamed to a random fixed-width numeric code. The pairing of code
and original file name is written to a new mapping snapshot so the coding can
be reversed later. Codes are never reissued across runs that share a snapshot
lineage.

Use subcommands to perform different operations:
  - encode: Code a directory tree and write a new mapping snapshot
  - decode: Look up the original names of codes or coded files
  - validate: Check a snapshot and a coded directory for consistency
  - count: Show what encode would pick up, without copying anything
  - seed: Generate a sample tree to try things out on`,
		Version:       version.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logLevel
			if !cmd.Flags().Changed("log-level") {
				if env := os.Getenv("FILECODER_LOG_LEVEL"); env != "" {
					level = env
				}
			}
			logger, closeFn, err := logging.New(logging.Options{
				Level:   level,
				File:    logFile,
				Console: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			closeLog = closeFn
			slog.SetDefault(logger)
			cmd.SetContext(logctx.WithLogger(cmd.Context(), logger))
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default ./filecoder.{yaml,toml,json} if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file")

	groupCoding := "coding"
	groupUtilities := "utilities"

	// Add command groups for better organization
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupCoding,
		Title: "Coding Operations",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupUtilities,
		Title: "Utility Commands",
	})

	encodeCmd := NewEncodeCmd()
	decodeCmd := NewDecodeCmd()
	validateCmd := NewValidateCmd()
	countCmd := NewCountCmd()
	seedCmd := NewSeedCmd()

	encodeCmd.GroupID = groupCoding
	decodeCmd.GroupID = groupCoding
	validateCmd.GroupID = groupUtilities
	countCmd.GroupID = groupUtilities
	seedCmd.GroupID = groupUtilities

	// Add subcommands
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(seedCmd)

	// Post-run hooks are skipped when RunE fails, so the log file is
	// closed from the RunE of each subcommand instead.
	for _, sub := range rootCmd.Commands() {
		run := sub.RunE
		if run == nil {
			continue
		}
		sub.RunE = func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				err = errors.Join(err, closeLog())
				closeLog = func() error { return nil }
			}()
			return run(cmd, args)
		}
	}

	return rootCmd
}
