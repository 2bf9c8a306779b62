// =============================================================================
// XML to JSON Converter - NFe Command
// =============================================================================
//
// This file defines the 'nfe' command, which prints the NF-e fields of a
// document as JSON without writing the converted tree.
//
// COMMAND USAGE:
//   xml2json nfe <file> [--summary]
//
// OUTPUT:
//   {"nfe": {...}, "missing_fields": [...], "unnormalized_fields": [...]}
//   or, with --summary, the short executive summary.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/jsonwriter"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/nfe"
)

var nfeSummary bool

var nfeCmd = &cobra.Command{
	Use:   "nfe <file>",
	Short: "Extract NF-e summary fields as JSON",
	Long: `The nfe command converts an NF-e document and prints its well-known fiscal
fields: access key, number, series, issuer and recipient, totals, dates and
the authorization protocol. Monetary values are normalized to two decimals
and dates to ISO 8601.

Expected fields that cannot be found are listed in "missing_fields"; the
command still succeeds. A document with no infNFe group is an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runNFe,
}

func init() {
	rootCmd.AddCommand(nfeCmd)

	nfeCmd.Flags().BoolVar(&nfeSummary, "summary", false, "Print the short summary only")
}

func runNFe(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	path := args[0]

	v, err := a.converter().ConvertFile(path)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", path, err)
	}

	ext := a.extractor()
	rec := ext.Extract(v)
	if !rec.IsNFe {
		return fmt.Errorf("%s is not an NF-e document (no infNFe found)", path)
	}

	for _, w := range rec.Warnings {
		a.log.Warn("field not found", zap.String("field", w.Field), zap.Strings("paths", w.Paths))
	}
	if chave := rec.Get("chave_nfe"); chave != "" {
		if err := nfe.ValidateChave(chave); err != nil {
			a.log.Warn("access key rejected", zap.String("chave", chave), zap.Error(err))
		}
	}

	if nfeSummary {
		return jsonwriter.Write(cmd.OutOrStdout(), ext.Summary(rec), a.cfg.WriterOptions())
	}
	return jsonwriter.Write(cmd.OutOrStdout(), rec.Report(), a.cfg.WriterOptions())
}
