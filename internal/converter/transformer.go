// =============================================================================
// XML to JSON Converter - Scalar Transformation
// =============================================================================
//
// This module decides how a piece of XML text becomes a JSON scalar.
//
// COERCION ORDER (first match wins):
//   1. Boolean : "true" / "false", case-insensitive
//   2. Integer : optional sign followed by digits
//   3. Decimal : digits with exactly one "." or "," separator
//   4. String  : everything else
//
// NUMBER FORMAT:
//   Numbers are never routed through float64. The source text is rewritten
//   into canonical JSON number text instead:
//     "007"     -> 7
//     "+12"     -> 12
//     "1234,56" -> 1234.56
//     ".5"      -> 0.5
//     "4.00"    -> 4.00
//     "10."     -> 10
//   so arbitrarily long digit strings (such as 44-digit access keys) and
//   trailing fraction digits survive exactly.
//
// =============================================================================

package converter

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/types"
)

// =============================================================================
// SCALAR RESULT
// =============================================================================

// ScalarKind identifies which coercion rule matched.
type ScalarKind int

const (
	KindString ScalarKind = iota
	KindBool
	KindInteger
	KindDecimal
)

// String returns the kind name used in logs and stats.
func (k ScalarKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	}
	return "string"
}

// Scalar is the tagged outcome of coercing one text value.
type Scalar struct {
	Kind   ScalarKind
	Text   string
	Bool   bool
	Number json.Number
}

// Value returns the scalar as a member of the JSON value model.
func (s Scalar) Value() types.Value {
	switch s.Kind {
	case KindBool:
		return s.Bool
	case KindInteger, KindDecimal:
		return s.Number
	}
	return s.Text
}

var (
	integerPattern = regexp.MustCompile(`^[-+]?[0-9]+$`)
	decimalPattern = regexp.MustCompile(`^[-+]?([0-9]+[.,][0-9]*|[.,][0-9]+)$`)
)

// =============================================================================
// COERCION
// =============================================================================

// Coerce applies the coercion rules to text, which is expected to be trimmed.
func Coerce(text string) Scalar {
	switch strings.ToLower(text) {
	case "true":
		return Scalar{Kind: KindBool, Text: text, Bool: true}
	case "false":
		return Scalar{Kind: KindBool, Text: text, Bool: false}
	}

	if integerPattern.MatchString(text) {
		sign, digits := splitSign(text)
		return Scalar{Kind: KindInteger, Text: text, Number: json.Number(canonicalInteger(sign, digits))}
	}

	if decimalPattern.MatchString(text) {
		sign, body := splitSign(text)
		sep := strings.IndexAny(body, ".,")
		intPart := canonicalInteger("", body[:sep])
		frac := body[sep+1:]
		if frac == "" {
			return Scalar{Kind: KindDecimal, Text: text, Number: json.Number(withSign(sign, intPart))}
		}
		return Scalar{Kind: KindDecimal, Text: text, Number: json.Number(sign + intPart + "." + frac)}
	}

	return Scalar{Kind: KindString, Text: text}
}

// splitSign separates a leading sign. A "+" sign is dropped since JSON does
// not allow it.
func splitSign(text string) (string, string) {
	switch {
	case strings.HasPrefix(text, "-"):
		return "-", text[1:]
	case strings.HasPrefix(text, "+"):
		return "", text[1:]
	}
	return "", text
}

// canonicalInteger strips leading zeros; "-0" collapses to "0".
func canonicalInteger(sign, digits string) string {
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return "0"
	}
	return sign + digits
}

func withSign(sign, digits string) string {
	if digits == "0" {
		return digits
	}
	return sign + digits
}

// PadDigits left-pads a digit string with zeros up to length. Used to
// restore document numbers whose leading zeros were dropped by coercion.
func PadDigits(digits string, length int) string {
	if len(digits) >= length {
		return digits
	}
	return strings.Repeat("0", length-len(digits)) + digits
}
