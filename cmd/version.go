// =============================================================================
// XML to JSON Converter - Version Command
// =============================================================================
//
// This file defines the 'version' command, which displays the application
// version and build information.
//
// COMMAND USAGE:
//   xml2json version
//
// OUTPUT:
//   XML to JSON Converter
//   Version:    1.0.0
//   Build Date: 2025-07-14
//   Go Version: go1.24.0
//
// =============================================================================

package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
)

// =============================================================================
// VERSION INFORMATION
// =============================================================================
// These variables are set at build time using ldflags.
// Example build command:
//   go build -ldflags "-X 'github.com/ginjaninja78/XML-to-JSON-conversion/cmd.Version=1.0.0'"

// Version is the application version.
var Version = "1.0.0"

// BuildDate is the date the application was built.
var BuildDate = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long:  `Display the application version, build date, and Go runtime version.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("XML to JSON Converter")
		cmd.Printf("Version:    %s\n", Version)
		cmd.Printf("Build Date: %s\n", BuildDate)
		cmd.Printf("Go Version: %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
