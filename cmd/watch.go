// =============================================================================
// XML to JSON Converter - Watch Command
// =============================================================================
//
// This file defines the 'watch' command, which converts XML files as they
// appear in a directory. It runs until interrupted (Ctrl+C).
//
// COMMAND USAGE:
//   xml2json watch <dir> [flags]
//
// FLAGS:
//   -o, --output-dir : Output directory (mirrors the input layout)
//   -r, --recursive  : Also watch subdirectories
//   --pattern        : File name glob, repeatable (default: *.xml)
//   --debounce       : Quiet period before a changed file is converted
//   --initial        : Convert the files already present before watching
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/batch"
)

var (
	watchOutputDir string
	watchRecursive bool
	watchPatterns  []string
	watchDebounce  time.Duration
	watchInitial   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Convert XML files as they are added to a directory",
	Long: `The watch command monitors <dir> and converts every matching file that is
created or modified. A file is converted once it has been quiet for the
debounce period, so large files being copied in are converted only after
the copy finishes.

Stop watching with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchOutputDir, "output-dir", "o", "", "Output directory")
	watchCmd.Flags().BoolVarP(&watchRecursive, "recursive", "r", false, "Watch subdirectories")
	watchCmd.Flags().StringSliceVar(&watchPatterns, "pattern", nil, "File name pattern (repeatable, default *.xml)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Quiet period before converting a changed file")
	watchCmd.Flags().BoolVar(&watchInitial, "initial", false, "Convert existing files before watching")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	dir := args[0]
	out := cmd.OutOrStdout()

	if watchOutputDir != "" {
		a.cfg.OutputDir = watchOutputDir
	}
	if watchRecursive {
		a.cfg.Recursive = true
	}
	if len(watchPatterns) > 0 {
		a.cfg.Patterns = watchPatterns
	}

	fm := a.cfg.FileManager(dir)
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}
	runner := batch.New(a.converter(), a.extractor(), fm, batch.Options{
		MaxConcurrency: a.cfg.MaxConcurrency,
		Backup:         a.cfg.BackupOriginal,
		Writer:         a.cfg.WriterOptions(),
	}, a.log)

	report := func(r batch.Result) {
		switch r.Status {
		case batch.StatusConverted:
			fmt.Fprintf(out, "✓ %s -> %s\n", r.InputFile, r.OutputFile)
		case batch.StatusSkipped:
			fmt.Fprintf(out, "- %s: %v\n", r.InputFile, r.Err)
		case batch.StatusFailed:
			fmt.Fprintf(out, "✗ %s: %v\n", r.InputFile, r.Err)
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if watchInitial {
		files, err := fm.Discover(a.cfg.Patterns, a.cfg.Recursive)
		if err != nil {
			return err
		}
		for _, r := range runner.Run(ctx, files).Results {
			report(r)
		}
	}

	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", dir)
	return runner.Watch(ctx, dir, batch.WatchOptions{
		Patterns:  a.cfg.Patterns,
		Recursive: a.cfg.Recursive,
		Debounce:  watchDebounce,
	}, report)
}
