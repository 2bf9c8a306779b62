// =============================================================================
// XML to JSON Converter - NFe Value Normalization
// =============================================================================
//
// This module turns the values of an NFe into a uniform representation.
//
// NORMALIZATIONS:
//   Money      : "1.234,56" / "1,234.56" / "1234.56" -> "1234.56"
//                (exact decimal arithmetic, two places, optional "R$ ")
//   Dates      : RFC 3339, ISO date/time, dd/mm/yyyy -> ISO 8601
//   Documents  : CNPJ 12.345.678/0001-99, CPF 123.456.789-01, CEP 01310-100
//
// Values in a format that is not recognized are returned unchanged and the
// caller flags them as unnormalized.
//
// =============================================================================

package nfe

import (
	"encoding/json"
	"math/big"
	"strings"
	"time"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/types"
)

// MoneyFormat selects how monetary fields are rendered.
type MoneyFormat string

const (
	// MoneyDecimal renders "1234.56".
	MoneyDecimal MoneyFormat = "decimal"

	// MoneyBRL renders "R$ 1234.56".
	MoneyBRL MoneyFormat = "brl"
)

// =============================================================================
// MONEY
// =============================================================================

// ParseMoney reads an amount written in Brazilian ("1.234,56"), US
// ("1,234.56") or plain ("1234.56") notation. The last separator present is
// the decimal separator when both kinds appear.
//
// PARAMETERS:
//   - s: The amount as written, optionally prefixed with "R$".
//
// RETURNS:
//   - The exact amount.
//   - false when s is empty or not a plain decimal amount.
func ParseMoney(s string) (*big.Rat, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return nil, false
	}

	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	// big.Rat also accepts fractions, exponents and base prefixes.
	if strings.Trim(s, "0123456789.-+") != "" {
		return nil, false
	}
	r, ok := new(big.Rat).SetString(s)
	return r, ok
}

// FormatMoney renders r with two decimal places. Negative amounts that round
// to zero render as "0.00".
func FormatMoney(r *big.Rat, format MoneyFormat) string {
	out := r.FloatString(2)
	if out == "-0.00" {
		out = "0.00"
	}
	if format == MoneyBRL {
		return "R$ " + out
	}
	return out
}

// =============================================================================
// DATES
// =============================================================================

type dateLayout struct {
	parse  string
	render string
}

var dateLayouts = []dateLayout{
	{time.RFC3339, time.RFC3339},
	{"2006-01-02T15:04:05", "2006-01-02T15:04:05"},
	{"2006-01-02 15:04:05", "2006-01-02T15:04:05"},
	{"2006-01-02", "2006-01-02"},
	{"02/01/2006 15:04:05", "2006-01-02T15:04:05"},
	{"02/01/2006", "2006-01-02"},
}

// NormalizeDate converts a recognized date or timestamp to ISO 8601. An
// unrecognized value comes back unchanged with ok == false.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		t, err := time.Parse(l.parse, s)
		if err == nil {
			return t.Format(l.render), true
		}
	}
	return s, false
}

// =============================================================================
// DOCUMENT NUMBERS
// =============================================================================

// FormatCNPJ renders 14 digits as 12.345.678/0001-99.
func FormatCNPJ(d string) string {
	if len(d) != 14 {
		return d
	}
	return d[:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:]
}

// FormatCPF renders 11 digits as 123.456.789-01.
func FormatCPF(d string) string {
	if len(d) != 11 {
		return d
	}
	return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
}

// FormatCEP renders 8 digits as 01310-100.
func FormatCEP(d string) string {
	if len(d) != 8 {
		return d
	}
	return d[:5] + "-" + d[5:]
}

// padDigits restores leading zeros lost when a digit string was coerced
// into a number.
func padDigits(d string, width int) string {
	if width <= 0 || len(d) >= width {
		return d
	}
	return strings.Repeat("0", width-len(d)) + d
}

// =============================================================================
// SCALAR TEXT
// =============================================================================

// scalarText renders a resolved value as text. Objects carrying a value key
// (an element that had attributes) are unwrapped first. numeric reports
// whether the value was a coerced number.
func scalarText(v types.Value, valueKey string) (text string, numeric bool, ok bool) {
	if obj, isObj := v.(*types.Object); isObj {
		inner, has := obj.Get(valueKey)
		if !has {
			return "", false, false
		}
		v = inner
	}

	switch t := v.(type) {
	case string:
		t = strings.TrimSpace(t)
		return t, false, t != ""
	case json.Number:
		return t.String(), true, true
	case bool:
		if t {
			return "true", false, true
		}
		return "false", false, true
	}
	return "", false, false
}
