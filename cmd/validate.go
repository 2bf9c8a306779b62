// =============================================================================
// XML to JSON Converter - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks an XML file without
// converting it.
//
// COMMAND USAGE:
//   xml2json validate <file> [flags]
//
// CHECKS:
//   1. File size against max_file_size_mb
//   2. Encoding and well-formedness (line/column on failure)
//   3. Structure: root, namespace, counts, --require'd elements
//   4. With --nfe: NF-e groups, namespace and access key check digit
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/jsonwriter"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/validation"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/xmlparser"
)

var (
	validateNFe      bool
	validateStrict   bool
	validateRequired []string
	validateJSON     bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check that an XML file is well-formed and structurally sound",
	Long: `The validate command parses the file strictly and reports the first
syntax error with its line and column. A well-formed document is then
described (root element, namespace, element and attribute counts) and
checked for the elements named with --require.

With --nfe the NF-e layout is checked as well: the NFe, infNFe, ide, emit,
det and total groups, the portalfiscal namespace, and the 44-digit access
key with its check digit.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateNFe, "nfe", false, "Apply NF-e structure checks")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Treat warnings as errors")
	validateCmd.Flags().StringSliceVar(&validateRequired, "require", nil, "Element that must be present (repeatable)")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Print the result as JSON")
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	path := args[0]
	out := cmd.OutOrStdout()

	if !validation.HasXMLExtension(path) {
		fmt.Fprintf(out, "! %s does not have an XML extension\n", path)
	}
	if err := validation.ValidateFileSize(path, a.cfg.MaxFileSizeMB); err != nil {
		return err
	}

	doc, err := xmlparser.ParseFile(path, a.cfg.ParserOptions())
	if err != nil {
		fmt.Fprintf(out, "✗ %s is not well-formed\n", path)
		return err
	}

	var result *validation.Result
	if validateNFe {
		result = validation.ValidateNFeStructure(doc, validation.Options{TreatWarningsAsErrors: validateStrict})
	} else {
		result = validation.ValidateStructure(doc, validateRequired)
		if validateStrict && result.WarningCount > 0 {
			result.Valid = false
		}
	}

	if validateJSON {
		if err := jsonwriter.Write(out, result, a.cfg.WriterOptions()); err != nil {
			return err
		}
	} else {
		printValidation(cmd, path, result)
	}

	if !result.Valid {
		if err := result.Err(); err != nil {
			return fmt.Errorf("%s failed validation: %w", path, err)
		}
		return fmt.Errorf("%s failed validation with %d warning(s)", path, result.WarningCount)
	}
	return nil
}

func printValidation(cmd *cobra.Command, path string, r *validation.Result) {
	out := cmd.OutOrStdout()
	mark := "✓"
	if !r.Valid {
		mark = "✗"
	}
	fmt.Fprintf(out, "%s %s\n", mark, path)
	fmt.Fprintf(out, "  Root element: %s\n", r.RootElement)
	if r.Namespace != "" {
		fmt.Fprintf(out, "  Namespace:    %s\n", r.Namespace)
	}
	fmt.Fprintf(out, "  Elements:     %d\n", r.TotalElements)
	fmt.Fprintf(out, "  Attributes:   %d\n", r.AttributesCount)
	if len(r.RequiredFound) > 0 {
		fmt.Fprintf(out, "  Found:        %s\n", strings.Join(r.RequiredFound, ", "))
	}
	if len(r.Missing) > 0 {
		fmt.Fprintf(out, "  Missing:      %s\n", strings.Join(r.Missing, ", "))
	}
	if r.IsNFe {
		fmt.Fprintf(out, "  NF-e key:     %s\n", r.NFeKey)
	}
	for _, msg := range r.Messages() {
		fmt.Fprintf(out, "  %s\n", msg)
	}
}
