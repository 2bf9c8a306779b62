// =============================================================================
// XML to JSON Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the converter settings.
// Every command reads one Config and projects it into the option structs of
// the packages it drives.
//
// SOURCES (later sources win):
//   1. Built-in defaults (Default)
//   2. Config file: YAML (.yaml/.yml) or TOML (.toml)
//   3. A .env file in the working directory
//   4. XML2JSON_* environment variables
//   5. Command-line flags (applied by cmd/)
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/converter"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/jsonwriter"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/nfe"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/xmlparser"
	"github.com/ginjaninja78/XML-to-JSON-conversion/pkg/utils"
)

// DefaultPath is read when no --config flag is given and the file exists.
const DefaultPath = "xml2json.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "XML2JSON_"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration.
type Config struct {
	// =========================================================================
	// CONVERSION SETTINGS
	// =========================================================================

	// CleanNamespaces strips namespace prefixes from element and attribute
	// names.
	// Default: true
	CleanNamespaces bool `yaml:"clean_namespaces" toml:"clean_namespaces"`

	// PreserveAttributes emits XML attributes in the output.
	// Default: true
	PreserveAttributes bool `yaml:"preserve_attributes" toml:"preserve_attributes"`

	// AutoTypeConversion turns "true", "42" and "10,50" into JSON booleans
	// and numbers.
	// Default: true
	AutoTypeConversion bool `yaml:"auto_type_conversion" toml:"auto_type_conversion"`

	// EmptyValuePolicy is "null" or "empty_string".
	// Default: "null"
	EmptyValuePolicy string `yaml:"empty_value_policy" toml:"empty_value_policy"`

	// AttributeStyle is "grouped" (@attributes object) or "prefixed" (@name keys).
	// Default: "grouped"
	AttributeStyle string `yaml:"attribute_style" toml:"attribute_style"`

	// ValueKey and TextKey name the text entries of elements with
	// attributes or children.
	// Default: "_value", "_text"
	ValueKey string `yaml:"value_key" toml:"value_key"`
	TextKey  string `yaml:"text_key" toml:"text_key"`

	// ForceArray lists tag names that always become arrays.
	//
	// Example:
	//   force_array: [det, dup]
	ForceArray []string `yaml:"force_array" toml:"force_array"`

	// FallbackEncoding decodes undeclared, non-UTF-8 input.
	// Default: "windows-1252"
	FallbackEncoding string `yaml:"fallback_encoding" toml:"fallback_encoding"`

	// MaxFileSizeMB rejects larger inputs. Zero disables the limit.
	// Default: 100
	MaxFileSizeMB float64 `yaml:"max_file_size_mb" toml:"max_file_size_mb"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// Indent is the number of spaces per level. A null value minimizes the
	// output.
	// Default: 2
	Indent *int `yaml:"indent" toml:"indent"`

	// RemoveEmpty* prune empty values before writing.
	RemoveEmptyStrings bool `yaml:"remove_empty_strings" toml:"remove_empty_strings"`
	RemoveNulls        bool `yaml:"remove_nulls" toml:"remove_nulls"`
	RemoveEmptyObjects bool `yaml:"remove_empty_objects" toml:"remove_empty_objects"`
	RemoveEmptyArrays  bool `yaml:"remove_empty_arrays" toml:"remove_empty_arrays"`

	// OutputDir receives batch output. Empty writes next to each input.
	OutputDir string `yaml:"output_dir" toml:"output_dir"`

	// OutputNameFormat is the output file name template.
	// Placeholders: {stem}, {uuid}, {timestamp}
	// Default: "{stem}.json"
	OutputNameFormat string `yaml:"output_name_format" toml:"output_name_format"`

	// CollisionPolicy is "overwrite", "skip" or "suffix".
	// Default: "overwrite"
	CollisionPolicy string `yaml:"collision_policy" toml:"collision_policy"`

	// BackupOriginal copies each input file to <input><backup_suffix>
	// before converting it.
	BackupOriginal bool   `yaml:"backup_original" toml:"backup_original"`
	BackupSuffix   string `yaml:"backup_suffix" toml:"backup_suffix"`

	// =========================================================================
	// BATCH SETTINGS
	// =========================================================================

	// Patterns are glob patterns matched against file names.
	// Default: ["*.xml"]
	Patterns []string `yaml:"patterns" toml:"patterns"`

	// Recursive descends into subdirectories.
	Recursive bool `yaml:"recursive" toml:"recursive"`

	// MaxConcurrency is the number of files converted at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency" toml:"max_concurrency"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel is one of debug, info, warn, error.
	// Default: "info"
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// LogFormat is "console" or "json".
	// Default: "console"
	LogFormat string `yaml:"log_format" toml:"log_format"`

	// NFe holds the invoice extraction settings.
	NFe NFeConfig `yaml:"nfe" toml:"nfe"`
}

// NFeConfig holds the NFe extraction settings.
type NFeConfig struct {
	// MoneyFormat is "decimal" (1234.56) or "brl" (R$ 1234.56).
	// Default: "decimal"
	MoneyFormat string `yaml:"money_format" toml:"money_format"`

	// FormatDocuments punctuates CNPJ, CPF and CEP.
	// Default: true
	FormatDocuments bool `yaml:"format_documents" toml:"format_documents"`

	// ExtractItems includes the product list.
	// Default: true
	ExtractItems bool `yaml:"extract_items" toml:"extract_items"`
}

// Default returns the built-in configuration.
func Default() *Config {
	indent := 2
	return &Config{
		CleanNamespaces:    true,
		PreserveAttributes: true,
		AutoTypeConversion: true,
		EmptyValuePolicy:   string(converter.EmptyNull),
		AttributeStyle:     string(converter.AttributesGrouped),
		ValueKey:           "_value",
		TextKey:            "_text",
		FallbackEncoding:   "windows-1252",
		MaxFileSizeMB:      100,
		Indent:             &indent,
		OutputNameFormat:   "{stem}.json",
		CollisionPolicy:    string(utils.CollisionOverwrite),
		BackupSuffix:       ".bak",
		Patterns:           []string{"*.xml"},
		MaxConcurrency:     4,
		LogLevel:           "info",
		LogFormat:          "console",
		NFe: NFeConfig{
			MoneyFormat:     string(nfe.MoneyDecimal),
			FormatDocuments: true,
			ExtractItems:    true,
		},
	}
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load builds the configuration from defaults, the file at path, a .env
// file and XML2JSON_* variables.
//
// PARAMETERS:
//   - path: The config file. Empty reads DefaultPath when it exists.
//
// RETURNS:
//   - The validated configuration.
//   - An error if the file cannot be read or parsed, or a value is invalid.
func Load(path string) (*Config, error) {
	return load(path, ".env")
}

func load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// readFile decodes the file over the current values, so unset keys keep
// their defaults.
func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return fmt.Errorf("unsupported config file type %q (expected .yaml, .yml or .toml)", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// envSetters maps variable names (without prefix) to field setters.
var envSetters = map[string]func(c *Config, v string) error{
	"CLEAN_NAMESPACES":     boolSetter(func(c *Config) *bool { return &c.CleanNamespaces }),
	"PRESERVE_ATTRIBUTES":  boolSetter(func(c *Config) *bool { return &c.PreserveAttributes }),
	"AUTO_TYPE_CONVERSION": boolSetter(func(c *Config) *bool { return &c.AutoTypeConversion }),
	"RECURSIVE":            boolSetter(func(c *Config) *bool { return &c.Recursive }),
	"BACKUP_ORIGINAL":      boolSetter(func(c *Config) *bool { return &c.BackupOriginal }),
	"EMPTY_VALUE_POLICY":   stringSetter(func(c *Config) *string { return &c.EmptyValuePolicy }),
	"ATTRIBUTE_STYLE":      stringSetter(func(c *Config) *string { return &c.AttributeStyle }),
	"FALLBACK_ENCODING":    stringSetter(func(c *Config) *string { return &c.FallbackEncoding }),
	"OUTPUT_DIR":           stringSetter(func(c *Config) *string { return &c.OutputDir }),
	"COLLISION_POLICY":     stringSetter(func(c *Config) *string { return &c.CollisionPolicy }),
	"LOG_LEVEL":            stringSetter(func(c *Config) *string { return &c.LogLevel }),
	"LOG_FORMAT":           stringSetter(func(c *Config) *string { return &c.LogFormat }),
	"NFE_MONEY_FORMAT":     stringSetter(func(c *Config) *string { return &c.NFe.MoneyFormat }),
	"MAX_CONCURRENCY": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.MaxConcurrency = n
		return nil
	},
	"MAX_FILE_SIZE_MB": func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		c.MaxFileSizeMB = f
		return nil
	},
	"INDENT": func(c *Config, v string) error {
		if v == "" || strings.EqualFold(v, "null") {
			c.Indent = nil
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Indent = &n
		return nil
	},
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func stringSetter(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func (c *Config) applyEnv() error {
	for name, set := range envSetters {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			continue
		}
		if err := set(c, strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, name, v, err)
		}
	}
	return nil
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	var errs []error

	oneOf := func(key, value string, allowed ...string) {
		for _, a := range allowed {
			if value == a {
				return
			}
		}
		errs = append(errs, fmt.Errorf("%s must be one of %s, got %q", key, strings.Join(allowed, ", "), value))
	}

	oneOf("empty_value_policy", c.EmptyValuePolicy, string(converter.EmptyNull), string(converter.EmptyString))
	oneOf("attribute_style", c.AttributeStyle, string(converter.AttributesGrouped), string(converter.AttributesPrefixed))
	oneOf("collision_policy", c.CollisionPolicy, string(utils.CollisionOverwrite), string(utils.CollisionSkip), string(utils.CollisionSuffix))
	oneOf("log_format", c.LogFormat, "console", "json")
	oneOf("nfe.money_format", c.NFe.MoneyFormat, string(nfe.MoneyDecimal), string(nfe.MoneyBRL))

	if c.ValueKey == "" || c.TextKey == "" {
		errs = append(errs, errors.New("value_key and text_key must not be empty"))
	}
	if c.Indent != nil && (*c.Indent < 0 || *c.Indent > 16) {
		errs = append(errs, fmt.Errorf("indent must be between 0 and 16, got %d", *c.Indent))
	}
	if c.MaxConcurrency < 1 {
		errs = append(errs, fmt.Errorf("max_concurrency must be at least 1, got %d", c.MaxConcurrency))
	}
	if c.MaxFileSizeMB < 0 {
		errs = append(errs, errors.New("max_file_size_mb must not be negative"))
	}
	for _, p := range c.Patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			errs = append(errs, fmt.Errorf("invalid pattern %q: %w", p, err))
		}
	}

	return errors.Join(errs...)
}

// =============================================================================
// PROJECTIONS
// =============================================================================

// ParserOptions returns the raw input decoding options.
func (c *Config) ParserOptions() xmlparser.Options {
	return xmlparser.Options{
		FallbackEncoding: c.FallbackEncoding,
		MaxBytes:         int64(c.MaxFileSizeMB * 1024 * 1024),
	}
}

// ConverterOptions returns the structural conversion options.
func (c *Config) ConverterOptions() converter.Options {
	opts := converter.DefaultOptions()
	opts.CleanNamespaces = c.CleanNamespaces
	opts.PreserveAttributes = c.PreserveAttributes
	opts.AutoTypeConversion = c.AutoTypeConversion
	opts.EmptyValue = converter.EmptyPolicy(c.EmptyValuePolicy)
	opts.AttributeStyle = converter.AttributeStyle(c.AttributeStyle)
	opts.ValueKey = c.ValueKey
	opts.TextKey = c.TextKey
	opts.ForceArray = c.ForceArray
	opts.Parser = c.ParserOptions()
	return opts
}

// NFeOptions returns the extraction options, keyed to match the converter.
func (c *Config) NFeOptions() nfe.Options {
	opts := nfe.DefaultOptions()
	conv := c.ConverterOptions()
	opts.MoneyFormat = nfe.MoneyFormat(c.NFe.MoneyFormat)
	opts.FormatDocuments = c.NFe.FormatDocuments
	opts.ExtractItems = c.NFe.ExtractItems
	opts.ValueKey = conv.ValueKey
	opts.AttributesKey = conv.AttributesKey
	opts.AttributePrefix = conv.AttributePrefix
	return opts
}

// WriterOptions returns the JSON generation options.
func (c *Config) WriterOptions() jsonwriter.Options {
	opts := jsonwriter.Options{
		Clean: jsonwriter.CleanOptions{
			RemoveEmptyStrings: c.RemoveEmptyStrings,
			RemoveNulls:        c.RemoveNulls,
			RemoveEmptyObjects: c.RemoveEmptyObjects,
			RemoveEmptyArrays:  c.RemoveEmptyArrays,
		},
	}
	if c.Indent != nil {
		opts.Indent = *c.Indent
	}
	return opts
}

// FileManager returns a file manager for inputs under inputRoot.
func (c *Config) FileManager(inputRoot string) *utils.FileManager {
	fm := utils.NewFileManager(inputRoot, c.OutputDir)
	fm.NameFormat = c.OutputNameFormat
	fm.Collision = utils.CollisionPolicy(c.CollisionPolicy)
	fm.BackupSuffix = c.BackupSuffix
	return fm
}
