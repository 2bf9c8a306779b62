// =============================================================================
// XML to JSON Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the XML to JSON Converter CLI application.
// It delegates command execution to the cmd package.
//
// USAGE:
//   xml2json convert <file>     - Convert one XML file to JSON
//   xml2json batch <dir>        - Convert every XML file in a directory
//   xml2json validate <file>    - Check well-formedness and structure
//   xml2json nfe <file>         - Print NF-e summary fields
//   xml2json query <file> <p>   - Print values at GJSON paths
//   xml2json watch <dir>        - Convert files as they appear
//   xml2json version            - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Parsing, conversion, NF-e extraction, batch, reports
//   - pkg/           : Shared file management utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/XML-to-JSON-conversion/cmd"
)

func main() {
	cmd.Execute()
}
