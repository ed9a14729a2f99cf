package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/taigrr/colorhash"
)

var seedExtensions = []string{"jpg", "png", "tif", "jpeg"}

// NewSeedCmd creates and returns the seed subcommand for the filecoder CLI.
// It generates a nested tree of sample files to try encode on.
func NewSeedCmd() *cobra.Command {
	var (
		outputPath  string
		fileCount   int
		buckets     int
		bookkeeping bool
		awkward     bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a sample image tree",
		Long: `Generate a tree of image-like sample files for trying out encode.

Files are spread over site*/day* directories by a color hash of their
content. Each file holds a single UUID line. By default each directory also
gets the bookkeeping files an OS would leave there (desktop.ini, .DS_Store,
Thumbs.db, AppleDouble files) so their exclusion can be observed. With
--awkward a few names with zero or several extension separators are added.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.OutOrStdout(), outputPath, fileCount, buckets, bookkeeping, awkward, verbose)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Path to output directory (required)")
	cmd.Flags().IntVarP(&fileCount, "count", "c", 200, "Number of files to generate")
	cmd.Flags().IntVar(&buckets, "buckets", 8, "Number of site directories")
	cmd.Flags().BoolVar(&bookkeeping, "bookkeeping", true, "Add OS bookkeeping files to every directory")
	cmd.Flags().BoolVar(&awkward, "awkward", false, "Add file names that do not split into one base name and extension")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	cmd.MarkFlagRequired("output")

	return cmd
}

func runSeed(out io.Writer, outputPath string, fileCount, buckets int, bookkeeping, awkward, verbose bool) error {
	if buckets < 1 {
		buckets = 1
	}
	if verbose {
		fmt.Fprintf(out, "Generating %d sample files in %s\n", fileCount, outputPath)
	}
	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	dirs := make(map[string]int)
	for i := 0; i < fileCount; i++ {
		content := uuid.New().String()
		h := colorhash.HashString(content)
		if h < 0 {
			h = -h
		}
		dir := filepath.Join(outputPath,
			fmt.Sprintf("site%02d", h%buckets),
			fmt.Sprintf("day%d", h/buckets%3+1))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		// Names repeat across directories on purpose; each copy still gets its own code.
		ext := seedExtensions[h%len(seedExtensions)]
		name := fmt.Sprintf("IMG_%04d.%s", dirs[dir]+1, ext)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		dirs[dir]++

		if verbose && (i+1)%100 == 0 {
			fmt.Fprintf(out, "Created %d/%d files...\n", i+1, fileCount)
		}
	}

	extra := 0
	if bookkeeping {
		for dir := range dirs {
			for _, name := range []string{"desktop.ini", ".DS_Store", "Thumbs.db", "._IMG_0001.jpg"} {
				if err := os.WriteFile(filepath.Join(dir, name), []byte("bookkeeping\n"), 0o644); err != nil {
					return fmt.Errorf("failed to write file: %w", err)
				}
				extra++
			}
		}
	}
	if awkward {
		for _, name := range []string{"archive.tar.gz", "README", "scan.final.v2.tif"} {
			if err := os.WriteFile(filepath.Join(outputPath, name), []byte(uuid.New().String()+"\n"), 0o644); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
		}
	}

	fmt.Fprintf(out, "Created %d files in %d directories", fileCount, len(dirs))
	if extra > 0 {
		fmt.Fprintf(out, " plus %d bookkeeping files", extra)
	}
	fmt.Fprintln(out)
	return nil
}
