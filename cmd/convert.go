// =============================================================================
// XML to JSON Converter - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, which converts a single XML file.
//
// COMMAND USAGE:
//   xml2json convert <file> [flags]
//
// FLAGS:
//   -o, --output : Output path (default: <name>.json beside the input, or in
//                  output_dir when configured)
//   --stdout     : Write the JSON to standard output instead of a file
//   --nfe-info   : Print the NF-e summary fields after converting
//   --stats      : Print document statistics
//   --backup     : Copy the input to <file>.bak before converting
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/converter"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/jsonwriter"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/nfe"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/types"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	convertOutput  string
	convertStdout  bool
	convertNFeInfo bool
	convertStats   bool
	convertBackup  bool
)

// =============================================================================
// CONVERT COMMAND DEFINITION
// =============================================================================

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert one XML file to JSON",
	Long: `The convert command parses an XML file and writes its JSON equivalent.

Repeated sibling elements become arrays, attributes are kept under
"@attributes", and leaf values such as "true", "42" or "10,50" become JSON
booleans and numbers unless --no-type-conversion is given.

A malformed document fails with the line and column of the first error and
no output is written.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "Output JSON file")
	convertCmd.Flags().BoolVar(&convertStdout, "stdout", false, "Write JSON to standard output")
	convertCmd.Flags().BoolVar(&convertNFeInfo, "nfe-info", false, "Print NF-e summary fields")
	convertCmd.Flags().BoolVar(&convertStats, "stats", false, "Print conversion statistics")
	convertCmd.Flags().BoolVar(&convertBackup, "backup", false, "Back up the input file before converting")
}

// =============================================================================
// MAIN FUNCTION
// =============================================================================

func runConvert(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	input := args[0]
	out := cmd.OutOrStdout()

	fm := a.cfg.FileManager(filepath.Dir(input))
	if convertBackup || a.cfg.BackupOriginal {
		backup, err := fm.BackupFile(input)
		if err != nil {
			return err
		}
		a.log.Debug("input backed up", zap.String("backup", backup))
	}

	v, stats, err := a.converter().ConvertFileWithStats(input)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", input, err)
	}

	// With --stdout the JSON owns standard output; reports move to stderr.
	if convertStdout {
		if err := jsonwriter.Write(out, v, a.cfg.WriterOptions()); err != nil {
			return err
		}
		out = cmd.ErrOrStderr()
	} else {
		target := convertOutput
		if target == "" {
			target, err = fm.ResolveOutput(fm.OutputPath(input))
			if err != nil {
				return err
			}
		}
		if err := jsonwriter.WriteFile(target, v, a.cfg.WriterOptions()); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ %s -> %s\n", input, target)
	}

	if convertNFeInfo {
		printNFe(out, a.extractor(), v)
	}
	if convertStats {
		printStats(out, stats)
	}
	return nil
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printNFe(w io.Writer, ext *nfe.Extractor, v types.Value) {
	rec := ext.Extract(v)
	if !rec.IsNFe {
		fmt.Fprintln(w, "\nNot an NF-e document.")
		return
	}

	fmt.Fprintln(w, "\nNF-e Information:")
	rec.Fields.Range(func(k string, val types.Value) bool {
		if val != nil {
			fmt.Fprintf(w, "  • %s: %s\n", k, rec.Get(k))
		}
		return true
	})
	fmt.Fprintf(w, "  • quantidade_itens: %d\n", len(rec.Items))
	for _, warn := range rec.Warnings {
		fmt.Fprintf(w, "  ! %v\n", warn)
	}
	for _, name := range rec.Unnormalized {
		fmt.Fprintf(w, "  ! %s kept as written (unrecognized format)\n", name)
	}
}

func printStats(w io.Writer, s converter.Stats) {
	fmt.Fprintln(w, "\nStatistics:")
	fmt.Fprintf(w, "  Elements:   %d\n", s.Elements)
	fmt.Fprintf(w, "  Attributes: %d\n", s.Attributes)
	fmt.Fprintf(w, "  Arrays:     %d\n", s.Arrays)
	fmt.Fprintf(w, "  Max depth:  %d\n", s.MaxDepth)
	fmt.Fprintf(w, "  Duration:   %s\n", s.Duration)
}
