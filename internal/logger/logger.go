// =============================================================================
// XML to JSON Converter - Logging
// =============================================================================
//
// This module builds the zap logger shared by every command. Core packages
// receive a *zap.Logger and fall back to zap.NewNop() when given nil.
//
// FORMATS:
//   - "console" : human-readable, colorless, for terminals
//   - "json"    : one JSON object per line, for log collectors
//
// =============================================================================

package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the level, encoding and destination of log output.
type Options struct {
	// Level is one of debug, info, warn, error.
	// Default: "info"
	Level string

	// Format is "console" or "json".
	// Default: "console"
	Format string

	// Output receives log lines.
	// Default: os.Stderr
	Output io.Writer
}

// New builds a logger from opts.
func New(opts Options) (*zap.Logger, error) {
	if opts.Level == "" {
		opts.Level = "info"
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(opts.Format) {
	case "", "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("invalid log format %q (expected console or json)", opts.Format)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(opts.Output), level)
	return zap.New(core), nil
}
