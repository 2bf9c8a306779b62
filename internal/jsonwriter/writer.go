// =============================================================================
// XML to JSON Converter - JSON Writer Module
// =============================================================================
//
// This module serializes converted documents to JSON text and writes output
// files.
//
// OUTPUT FORMAT:
//   - Indented with Indent spaces, or minimized when Indent is 0
//   - Non-ASCII text written as UTF-8, not \u escapes
//   - HTML characters (<, >, &) left unescaped
//   - Always terminated by a newline
//
// CLEANUP:
//   Empty values (empty strings, nulls, empty objects, empty arrays) can be
//   pruned before writing. Each kind is switched on separately; all are off
//   by default so the written JSON matches the converted structure exactly.
//
// =============================================================================

package jsonwriter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/types"
)

// =============================================================================
// OPTIONS
// =============================================================================

// CleanOptions selects which empty values Clean removes.
type CleanOptions struct {
	RemoveEmptyStrings bool
	RemoveNulls        bool
	RemoveEmptyObjects bool
	RemoveEmptyArrays  bool
}

// Enabled reports whether any cleanup is requested.
func (c CleanOptions) Enabled() bool {
	return c.RemoveEmptyStrings || c.RemoveNulls || c.RemoveEmptyObjects || c.RemoveEmptyArrays
}

// Options contains options for JSON generation.
type Options struct {
	// Indent is the number of spaces per level. Zero minimizes the output.
	// Default: 2
	Indent int

	// EscapeHTML escapes <, > and & inside strings.
	// Default: false
	EscapeHTML bool

	// Clean prunes empty values before writing.
	Clean CleanOptions
}

// DefaultOptions returns the default generation options.
func DefaultOptions() Options {
	return Options{Indent: 2}
}

// =============================================================================
// GENERATION
// =============================================================================

// Generate serializes v.
func Generate(v types.Value, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, v, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write serializes v to w.
func Write(w io.Writer, v types.Value, opts Options) error {
	if opts.Clean.Enabled() {
		v = Clean(v, opts.Clean)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(opts.EscapeHTML)
	if opts.Indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", opts.Indent))
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// WriteFile serializes v to path. The file is written next to its final
// name and renamed into place, so readers never see a partial document.
func WriteFile(path string, v types.Value, opts Options) error {
	data, err := Generate(v, opts)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// =============================================================================
// CLEANUP
// =============================================================================

// Clean returns a copy of v without the empty values selected by opts.
// Containers emptied by the cleanup are themselves subject to removal. The
// top-level value is never removed.
func Clean(v types.Value, opts CleanOptions) types.Value {
	switch t := v.(type) {
	case *types.Object:
		out := types.NewObject()
		t.Range(func(k string, child types.Value) bool {
			cleaned := Clean(child, opts)
			if !removable(cleaned, opts) {
				out.Set(k, cleaned)
			}
			return true
		})
		return out
	case []types.Value:
		out := make([]types.Value, 0, len(t))
		for _, item := range t {
			cleaned := Clean(item, opts)
			if !removable(cleaned, opts) {
				out = append(out, cleaned)
			}
		}
		return out
	}
	return v
}

func removable(v types.Value, opts CleanOptions) bool {
	switch t := v.(type) {
	case nil:
		return opts.RemoveNulls
	case string:
		return opts.RemoveEmptyStrings && t == ""
	case *types.Object:
		return opts.RemoveEmptyObjects && t.Len() == 0
	case []types.Value:
		return opts.RemoveEmptyArrays && len(t) == 0
	}
	return false
}
