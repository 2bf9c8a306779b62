// =============================================================================
// XML to JSON Converter - Batch Command
// =============================================================================
//
// This file defines the 'batch' command, which converts every matching XML
// file under a directory.
//
// COMMAND USAGE:
//   xml2json batch <dir> [flags]
//
// FLAGS:
//   -o, --output-dir : Output directory (mirrors the input layout)
//   -r, --recursive  : Descend into subdirectories
//   --pattern        : File name glob, repeatable (default: *.xml)
//   --workers        : Files converted at once
//   --backup         : Copy each input to <file>.bak before converting
//   --nfe-report     : Write an NF-e report (.xlsx or .csv)
//   --logs           : Write summary and error logs into the output directory
//
// PROCESSING PIPELINE:
//   1. Discover input files
//   2. Convert them concurrently (internal/batch)
//   3. Print a summary, write logs and the optional NF-e report
//   4. Exit non-zero when any file failed
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/batch"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/report"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	batchOutputDir string
	batchRecursive bool
	batchPatterns  []string
	batchWorkers   int
	batchBackup    bool
	batchReport    string
	batchLogs      bool
)

// =============================================================================
// BATCH COMMAND DEFINITION
// =============================================================================

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Convert all XML files in a directory",
	Long: `The batch command converts every file under <dir> whose name matches the
configured patterns. Files are converted concurrently and independently: a
malformed document is reported and the others are still converted.

Output files mirror the input directory layout under --output-dir, or are
written beside their inputs when no output directory is set.

Invoices found during the run can be collected into a spreadsheet with
--nfe-report report.xlsx (or .csv).`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchOutputDir, "output-dir", "o", "", "Output directory")
	batchCmd.Flags().BoolVarP(&batchRecursive, "recursive", "r", false, "Search subdirectories")
	batchCmd.Flags().StringSliceVar(&batchPatterns, "pattern", nil, "File name pattern (repeatable, default *.xml)")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "Number of files converted at once")
	batchCmd.Flags().BoolVar(&batchBackup, "backup", false, "Back up each input file before converting")
	batchCmd.Flags().StringVar(&batchReport, "nfe-report", "", "Write an NF-e report (.xlsx or .csv)")
	batchCmd.Flags().BoolVar(&batchLogs, "logs", false, "Write summary and error logs")
}

// =============================================================================
// MAIN FUNCTION
// =============================================================================

func runBatch(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	dir := args[0]
	out := cmd.OutOrStdout()

	if batchOutputDir != "" {
		a.cfg.OutputDir = batchOutputDir
	}
	if batchRecursive {
		a.cfg.Recursive = true
	}
	if len(batchPatterns) > 0 {
		a.cfg.Patterns = batchPatterns
	}
	if batchWorkers > 0 {
		a.cfg.MaxConcurrency = batchWorkers
	}
	if batchBackup {
		a.cfg.BackupOriginal = true
	}

	fm := a.cfg.FileManager(dir)
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	files, err := fm.Discover(a.cfg.Patterns, a.cfg.Recursive)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "No files matching %v found in %s\n", a.cfg.Patterns, dir)
		return nil
	}
	fmt.Fprintf(out, "Found %d file(s) to convert\n", len(files))

	runner := batch.New(a.converter(), a.extractor(), fm, batch.Options{
		MaxConcurrency: a.cfg.MaxConcurrency,
		Backup:         a.cfg.BackupOriginal,
		Writer:         a.cfg.WriterOptions(),
	}, a.log)
	summary := runner.Run(cmd.Context(), files)

	for _, r := range summary.Results {
		switch r.Status {
		case batch.StatusConverted:
			fmt.Fprintf(out, "  ✓ %s -> %s\n", r.InputFile, r.OutputFile)
		case batch.StatusSkipped:
			fmt.Fprintf(out, "  - %s: %v\n", r.InputFile, r.Err)
		case batch.StatusFailed:
			fmt.Fprintf(out, "  ✗ %s: %v\n", r.InputFile, r.Err)
		}
	}

	fmt.Fprintln(out, "\n=== Conversion Complete ===")
	fmt.Fprintf(out, "Total files:   %d\n", len(summary.Results))
	fmt.Fprintf(out, "Converted:     %d\n", summary.Converted())
	fmt.Fprintf(out, "Skipped:       %d\n", summary.Skipped())
	fmt.Fprintf(out, "Failed:        %d\n", summary.Failed())
	fmt.Fprintf(out, "NF-e found:    %d\n", len(summary.Records()))
	fmt.Fprintf(out, "Time elapsed:  %s\n", summary.EndTime.Sub(summary.StartTime))

	if batchLogs {
		logDir := a.cfg.OutputDir
		if logDir == "" {
			logDir = dir
		}
		summaryPath, errorPath, err := summary.WriteLogs(logDir)
		if err != nil {
			return err
		}
		a.log.Info("logs written", zap.String("summary", summaryPath), zap.String("errors", errorPath))
	}

	if batchReport != "" {
		var entries []report.Entry
		for _, r := range summary.Results {
			if r.NFe != nil {
				entries = append(entries, report.Entry{Source: filepath.Base(r.InputFile), Record: r.NFe})
			}
		}
		if err := report.WriteFile(batchReport, entries); err != nil {
			return err
		}
		fmt.Fprintf(out, "NF-e report:   %s (%d invoice(s))\n", batchReport, len(entries))
	}

	if err := cmd.Context().Err(); err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}
	if n := summary.Failed(); n > 0 {
		return fmt.Errorf("%d of %d file(s) failed", n, len(summary.Results))
	}
	return nil
}
