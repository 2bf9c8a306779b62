// =============================================================================
// XML to JSON Converter - Validation Module
// =============================================================================
//
// This module performs structural checks on a parsed XML document before or
// alongside conversion. It does not validate against an XSD; it reports what
// the document contains and which expected elements are absent.
//
// VALIDATION TYPES:
//   1. Generic structure : root element, namespace, element and attribute
//                          counts, required element names
//   2. NFe structure     : NFe element set, portal fiscal namespace, access
//                          key format and check digit
//   3. File checks       : extension and maximum size
//
// ERROR SEVERITY:
//   - "error"   : the document is not what the caller asked for
//   - "warning" : the document is usable but incomplete
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/nfe"
)

// NFeNamespace is the namespace of documents issued under the NFe layout.
const NFeNamespace = "http://www.portalfiscal.inf.br/nfe"

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// XMLExtensions are the file extensions accepted as XML input.
var XMLExtensions = []string{".xml", ".nfe", ".cte", ".mdfe"}

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Rule is the check that produced the finding.
	// Examples: "required_element", "namespace", "nfe_key", "check_digit"
	Rule string

	// Element is the element the finding refers to, if any.
	Element string

	// Value is the offending value, if any.
	Value string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(e.Severity), e.Rule)
	if e.Element != "" {
		fmt.Fprintf(&b, " <%s>", e.Element)
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	if e.Value != "" {
		fmt.Fprintf(&b, " (value: '%s')", e.Value)
	}
	return b.String()
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// Result contains the results of structural validation.
type Result struct {
	// Valid is true when there are no error-severity findings.
	Valid bool `json:"valid"`

	RootElement     string   `json:"root_element"`
	Namespace       string   `json:"namespace,omitempty"`
	TotalElements   int      `json:"total_elements"`
	AttributesCount int      `json:"attributes_count"`
	RequiredFound   []string `json:"required_elements_found"`
	Missing         []string `json:"missing_elements"`

	// NFe checks, set by ValidateNFeStructure only.
	IsNFe            bool   `json:"is_nfe"`
	CorrectNamespace bool   `json:"correct_namespace"`
	HasNFeKey        bool   `json:"has_nfe_key"`
	NFeKey           string `json:"nfe_key,omitempty"`

	Issues       []*ValidationError `json:"-"`
	ErrorCount   int                `json:"error_count"`
	WarningCount int                `json:"warning_count"`
}

func (r *Result) add(issue *ValidationError) {
	r.Issues = append(r.Issues, issue)
	if issue.Severity == SeverityError {
		r.ErrorCount++
		r.Valid = false
	} else {
		r.WarningCount++
	}
}

// Err joins every error-severity finding, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			errs = append(errs, issue)
		}
	}
	return errors.Join(errs...)
}

// Messages returns every finding as text, errors and warnings alike.
func (r *Result) Messages() []string {
	out := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		out[i] = issue.Error()
	}
	return out
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options contains options for validation.
type Options struct {
	// TreatWarningsAsErrors makes any warning invalidate the result.
	// Default: false
	TreatWarningsAsErrors bool
}

// =============================================================================
// GENERIC STRUCTURE
// =============================================================================

// ValidateStructure describes doc and checks that every name in required
// occurs somewhere in it. Names are compared without namespace prefixes.
func ValidateStructure(doc *etree.Document, required []string) *Result {
	result := &Result{Valid: true, RequiredFound: []string{}, Missing: []string{}}

	root := doc.Root()
	if root == nil {
		result.add(&ValidationError{Severity: SeverityError, Rule: "root_element", Message: "document has no root element"})
		return result
	}

	result.RootElement = root.Tag
	result.Namespace = root.NamespaceURI()

	seen := make(map[string]bool)
	walk(root, func(el *etree.Element) {
		result.TotalElements++
		for _, a := range el.Attr {
			if a.Space != "xmlns" && !(a.Space == "" && a.Key == "xmlns") {
				result.AttributesCount++
			}
		}
		seen[el.Tag] = true
	})

	for _, name := range required {
		if seen[name] {
			result.RequiredFound = append(result.RequiredFound, name)
			continue
		}
		result.Missing = append(result.Missing, name)
		result.add(&ValidationError{
			Severity: SeverityError,
			Rule:     "required_element",
			Element:  name,
			Message:  "required element not found",
		})
	}

	return result
}

// =============================================================================
// NFE STRUCTURE
// =============================================================================

var (
	// nfeCoreElements must exist in every invoice.
	nfeCoreElements = []string{"NFe", "infNFe", "ide", "emit", "det", "total"}

	// nfeOptionalElements are absent from unauthorized invoices or from
	// older layouts; their absence is only a warning.
	nfeOptionalElements = []string{"nfeProc", "dest", "transp", "pag", "protNFe"}
)

// ValidateNFeStructure runs ValidateStructure with the NFe element set and
// adds the NFe-specific checks.
func ValidateNFeStructure(doc *etree.Document, opts Options) *Result {
	result := ValidateStructure(doc, nfeCoreElements)
	if doc.Root() == nil {
		return result
	}

	for _, name := range nfeOptionalElements {
		if doc.FindElement("//"+name) != nil {
			result.RequiredFound = append(result.RequiredFound, name)
			continue
		}
		result.Missing = append(result.Missing, name)
		result.add(&ValidationError{
			Severity: SeverityWarning,
			Rule:     "optional_element",
			Element:  name,
			Message:  "element not found",
		})
	}

	switch doc.Root().Tag {
	case "nfeProc", "NFe", "enviNFe":
		result.IsNFe = true
	default:
		result.add(&ValidationError{
			Severity: SeverityError,
			Rule:     "root_element",
			Element:  doc.Root().Tag,
			Message:  "root element is not an NFe document",
		})
	}

	inf := doc.FindElement("//infNFe")
	if inf == nil {
		return finish(result, opts)
	}

	if inf.NamespaceURI() == NFeNamespace {
		result.CorrectNamespace = true
	} else {
		result.add(&ValidationError{
			Severity: SeverityWarning,
			Rule:     "namespace",
			Element:  "infNFe",
			Value:    inf.NamespaceURI(),
			Message:  "expected namespace " + NFeNamespace,
		})
	}

	id := inf.SelectAttrValue("Id", "")
	result.NFeKey = id
	result.HasNFeKey = strings.HasPrefix(id, "NFe") && len(id) == nfe.ChaveLength+3
	if !result.HasNFeKey {
		result.add(&ValidationError{
			Severity: SeverityError,
			Rule:     "nfe_key",
			Element:  "infNFe",
			Value:    id,
			Message:  "Id attribute must be \"NFe\" followed by 44 digits",
		})
		return finish(result, opts)
	}

	if err := nfe.ValidateChave(id[3:]); err != nil {
		result.add(&ValidationError{
			Severity: SeverityError,
			Rule:     "check_digit",
			Element:  "infNFe",
			Value:    id,
			Message:  err.Error(),
		})
	}

	return finish(result, opts)
}

func finish(result *Result, opts Options) *Result {
	if opts.TreatWarningsAsErrors && result.WarningCount > 0 {
		result.Valid = false
	}
	return result
}

func walk(el *etree.Element, fn func(*etree.Element)) {
	fn(el)
	for _, child := range el.ChildElements() {
		walk(child, fn)
	}
}

// =============================================================================
// FILE CHECKS
// =============================================================================

// ErrFileTooLarge is returned by ValidateFileSize.
var ErrFileTooLarge = errors.New("file too large")

// ValidateFileSize fails when the file at path exceeds maxMB megabytes.
// A non-positive limit disables the check.
func ValidateFileSize(path string, maxMB float64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if maxMB <= 0 {
		return nil
	}
	sizeMB := float64(info.Size()) / (1024 * 1024)
	if sizeMB > maxMB {
		return fmt.Errorf("%s is %.2fMB (maximum %.2fMB): %w", path, sizeMB, maxMB, ErrFileTooLarge)
	}
	return nil
}

// HasXMLExtension reports whether path carries one of XMLExtensions.
func HasXMLExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range XMLExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
