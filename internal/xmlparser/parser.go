// =============================================================================
// XML to JSON Converter - XML Parser Module
// =============================================================================
//
// This module turns raw XML bytes into an element tree the converter can walk.
//
// PARSING PIPELINE:
//   1. Strip a UTF-8 byte order mark, if any
//   2. Resolve the declared encoding (<?xml ... encoding="..."?>)
//   3. Fall back to a single-byte encoding for undeclared, non-UTF-8 input
//   4. Scan the whole document for well-formedness (exact line/column on error)
//   5. Build the tree with etree
//
// ERRORS:
//   - *ParseError               : malformed or empty document
//   - *UnsupportedEncodingError : declared encoding has no decoder
//
// =============================================================================

package xmlparser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ParseError reports a document that is not well-formed XML.
type ParseError struct {
	// Line and Column are 1-based. Zero means unknown.
	Line   int
	Column int

	// Msg is a human-readable description.
	Msg string

	// Err is the underlying decoder error, if any.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("xml parse error at line %d, column %d: %s", e.Line, e.Column, e.Msg)
	}
	return "xml parse error: " + e.Msg
}

// Unwrap returns the underlying decoder error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnsupportedEncodingError reports a declared character encoding that cannot
// be decoded.
type UnsupportedEncodingError struct {
	Label string
}

// Error implements the error interface.
func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("unsupported character encoding %q", e.Label)
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls how raw bytes are decoded before parsing.
type Options struct {
	// FallbackEncoding is applied to documents that declare no encoding and
	// are not valid UTF-8. Empty disables the fallback.
	// Default: "windows-1252"
	FallbackEncoding string

	// MaxBytes rejects files larger than this when read through ParseFile.
	// Zero disables the check.
	MaxBytes int64
}

// DefaultOptions returns the default parsing options.
func DefaultOptions() Options {
	return Options{
		FallbackEncoding: "windows-1252",
	}
}

// ErrFileTooLarge is returned by ParseFile when MaxBytes is exceeded.
var ErrFileTooLarge = errors.New("file exceeds maximum size")

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}

	declEncodingRe = regexp.MustCompile(`^\s*<\?xml[^>]*?\sencoding\s*=\s*["']([^"']+)["']`)
)

// =============================================================================
// ENCODING DETECTION
// =============================================================================

// DeclaredEncoding returns the encoding label from the XML declaration, or
// the empty string when the document declares none.
func DeclaredEncoding(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(data) > 1024 {
		data = data[:1024]
	}
	m := declEncodingRe.FindSubmatch(data)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(string(m[1]))
}

func isUTF8Label(label string) bool {
	switch strings.ToLower(label) {
	case "utf-8", "utf8":
		return true
	}
	return false
}

// normalize resolves the declared or fallback encoding and returns bytes the
// XML decoders can read.
func normalize(data []byte, opts Options) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	label := DeclaredEncoding(data)
	if label != "" {
		if !isUTF8Label(label) {
			if enc, _ := charset.Lookup(label); enc == nil {
				return nil, &UnsupportedEncodingError{Label: label}
			}
		}
		return data, nil
	}

	if utf8.Valid(data) || opts.FallbackEncoding == "" {
		return data, nil
	}

	enc, _ := charset.Lookup(opts.FallbackEncoding)
	if enc == nil {
		return nil, &UnsupportedEncodingError{Label: opts.FallbackEncoding}
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode as %s: %w", opts.FallbackEncoding, err)
	}
	return decoded, nil
}

// =============================================================================
// PARSING
// =============================================================================

// Parse decodes data and returns the element tree.
//
// PARAMETERS:
//   - data: Raw document bytes.
//   - opts: Decoding options.
//
// RETURNS:
//   - The parsed document, whose Root() is never nil.
//   - A *ParseError or *UnsupportedEncodingError on failure.
func Parse(data []byte, opts Options) (*etree.Document, error) {
	if len(bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))) == 0 {
		return nil, &ParseError{Msg: "document is empty"}
	}

	data, err := normalize(data, opts)
	if err != nil {
		return nil, err
	}

	if err := checkWellFormed(data); err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, &ParseError{Msg: err.Error(), Err: err}
	}
	if doc.Root() == nil {
		return nil, &ParseError{Msg: "no root element"}
	}
	return doc, nil
}

// ParseReader reads r to the end and parses it.
func ParseReader(r io.Reader, opts Options) (*etree.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return Parse(data, opts)
}

// ParseFile reads and parses the file at path.
func ParseFile(path string, opts Options) (*etree.Document, error) {
	if opts.MaxBytes > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if info.Size() > opts.MaxBytes {
			return nil, fmt.Errorf("%s (%d bytes, limit %d): %w", path, info.Size(), opts.MaxBytes, ErrFileTooLarge)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data, opts)
}

// checkWellFormed runs a strict token scan over the whole document. etree is
// lenient about a few structural problems, so this pass is what guarantees a
// positioned error for unclosed or mismatched tags.
func checkWellFormed(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel

	depth := 0
	roots := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line, col := dec.InputPos()
			var syn *xml.SyntaxError
			if errors.As(err, &syn) {
				return &ParseError{Line: syn.Line, Column: col, Msg: syn.Msg, Err: err}
			}
			return &ParseError{Line: line, Column: col, Msg: err.Error(), Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					line, col := dec.InputPos()
					return &ParseError{Line: line, Column: col, Msg: "multiple root elements"}
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				line, col := dec.InputPos()
				return &ParseError{Line: line, Column: col, Msg: "text outside the root element"}
			}
		}
	}

	if roots == 0 {
		return &ParseError{Msg: "no root element"}
	}
	return nil
}
