// =============================================================================
// XML to JSON Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (xml2json)
//   ├── convertCmd  (xml2json convert <file>)
//   ├── batchCmd    (xml2json batch <dir>)
//   ├── validateCmd (xml2json validate <file>)
//   ├── nfeCmd      (xml2json nfe <file>)
//   ├── queryCmd    (xml2json query <file> <path>)
//   ├── watchCmd    (xml2json watch <dir>)
//   └── versionCmd  (xml2json version)
//
// GLOBAL FLAGS:
//   The conversion flags below override the configuration file, which in
//   turn overrides the built-in defaults.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/config"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/converter"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/logger"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/nfe"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file (YAML or TOML).
var cfgFile string

// verbose enables debug logging.
var verbose bool

// Conversion overrides.
var (
	noCleanNamespaces bool
	noAttributes      bool
	noTypeConversion  bool
	emptyAsString     bool
	indent            int
	minimize          bool
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "xml2json",
	Short: "XML to JSON Converter - Structural conversion with NFe field extraction",
	Long: `XML to JSON Converter turns XML documents into equivalent JSON, keeping
attributes, repeated elements and typed values, and extracts the well-known
fiscal fields of Brazilian electronic invoices (NF-e).

Key Features:
  - Order-preserving structural conversion with array detection
  - Boolean and number coercion, including "10,50" decimal commas
  - Namespace cleanup and configurable attribute layout
  - NF-e summary extraction with money, date and document normalization
  - Concurrent batch conversion with XLSX/CSV invoice reports

Example Usage:
  xml2json convert nota.xml                 # Writes nota.json
  xml2json convert nota.xml --nfe-info      # Also prints the invoice summary
  xml2json batch ./xml -r -o ./json         # Converts a directory tree
  xml2json query nota.xml "nfeProc.NFe.infNFe.ide.nNF"`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command and exits non-zero on failure. SIGINT and
// SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&cfgFile, "config", "", "Path to a YAML or TOML configuration file (default "+config.DefaultPath+" when present)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	flags.BoolVar(&noCleanNamespaces, "no-clean-namespaces", false, "Keep namespace prefixes in names")
	flags.BoolVar(&noAttributes, "no-attributes", false, "Drop XML attributes")
	flags.BoolVar(&noTypeConversion, "no-type-conversion", false, "Keep all leaf values as strings")
	flags.BoolVar(&emptyAsString, "empty-as-string", false, `Render empty elements as "" instead of null`)
	flags.IntVar(&indent, "indent", 2, "JSON indentation in spaces")
	flags.BoolVar(&minimize, "minimize", false, "Write minimized JSON (no indentation)")
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// app is the configuration and logger a command runs with.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

// setup loads the configuration, applies the global flags and builds the
// logger. Logs go to the command's error stream.
func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{
		Level:  level,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log}, nil
}

// applyFlags copies explicitly set global flags onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if noCleanNamespaces {
		cfg.CleanNamespaces = false
	}
	if noAttributes {
		cfg.PreserveAttributes = false
	}
	if noTypeConversion {
		cfg.AutoTypeConversion = false
	}
	if emptyAsString {
		cfg.EmptyValuePolicy = string(converter.EmptyString)
	}
	if flags.Changed("indent") {
		n := indent
		cfg.Indent = &n
	}
	if minimize {
		cfg.Indent = nil
	}
}

func (a *app) converter() *converter.Converter {
	return converter.New(a.cfg.ConverterOptions(), a.log)
}

func (a *app) extractor() *nfe.Extractor {
	return nfe.NewExtractor(a.cfg.NFeOptions(), a.log)
}
