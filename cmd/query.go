// =============================================================================
// XML to JSON Converter - Query Command
// =============================================================================
//
// This file defines the 'query' command, which converts a document and
// prints the values at one or more GJSON paths.
//
// COMMAND USAGE:
//   xml2json query <file> <path> [path...]
//
// PATH SYNTAX (github.com/tidwall/gjson):
//   catalog.book.0.title        first book title
//   catalog.book.#              number of books
//   catalog.book.#.@attributes.id
//   nfeProc.NFe.infNFe.det.#(prod.CFOP==5102)#.prod.xProd
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/types"
)

var queryRaw bool

var queryCmd = &cobra.Command{
	Use:   "query <file> <path> [path...]",
	Short: "Convert an XML file and print values at GJSON paths",
	Long: `The query command converts an XML file in memory and evaluates each
GJSON path against the result, printing one line per path. Strings are
printed without quotes unless --raw is given; objects and arrays are printed
as compact JSON.

A path that matches nothing is an error.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().BoolVar(&queryRaw, "raw", false, "Print every result as raw JSON")
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	path, queries := args[0], args[1:]

	v, err := a.converter().ConvertFile(path)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", path, err)
	}
	data, err := types.Marshal(v)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, res := range gjson.GetManyBytes(data, queries...) {
		if !res.Exists() {
			return fmt.Errorf("path %q matched nothing", queries[i])
		}
		if queryRaw || res.Type == gjson.JSON || res.Type == gjson.Number {
			fmt.Fprintln(out, res.Raw)
		} else {
			fmt.Fprintln(out, res.String())
		}
	}
	return nil
}
