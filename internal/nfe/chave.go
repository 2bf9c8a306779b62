// =============================================================================
// XML to JSON Converter - NFe Access Key
// =============================================================================
//
// This module handles the 44-digit access key (chave de acesso) that
// identifies every NFe.
//
// KEY LAYOUT:
//   cUF(2) AAMM(4) CNPJ(14) mod(2) serie(3) nNF(9) tpEmis(1) cNF(8) cDV(1)
//
// CHECK DIGIT:
//   Modulo 11 over the first 43 digits, weights 2..9 from the right,
//   wrapping around. A remainder of 0 or 1 gives digit 0.
//
// =============================================================================

package nfe

import (
	"errors"
	"fmt"
	"strings"
)

// ChaveLength is the number of digits in an NFe access key.
const ChaveLength = 44

// ErrInvalidCheckDigit is returned by ValidateChave when the last digit of
// the key does not match its modulo 11 check digit.
var ErrInvalidCheckDigit = errors.New("invalid access key check digit")

// ChaveFromID extracts the 44-digit access key from an infNFe Id attribute
// ("NFe" followed by the key). A bare 44-digit key is returned unchanged;
// anything else yields "".
func ChaveFromID(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "NFe") && len(id) == ChaveLength+3 {
		return id[3:]
	}
	if len(id) == ChaveLength && OnlyDigits(id) == id {
		return id
	}
	return ""
}

// OnlyDigits drops every character that is not an ASCII digit.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateChave checks length, digits and the modulo 11 check digit of an
// access key.
//
// PARAMETERS:
//   - chave: The 44-digit key, without the "NFe" prefix.
//
// RETURNS:
//   - nil for a valid key.
//   - ErrInvalidCheckDigit when only the check digit is wrong, or an error
//     describing the length or character problem.
func ValidateChave(chave string) error {
	chave = strings.TrimSpace(chave)
	if len(chave) != ChaveLength {
		return fmt.Errorf("access key must have %d digits, got %d", ChaveLength, len(chave))
	}
	if OnlyDigits(chave) != chave {
		return errors.New("access key must contain only digits")
	}
	if CheckDigit(chave[:ChaveLength-1]) != int(chave[ChaveLength-1]-'0') {
		return ErrInvalidCheckDigit
	}
	return nil
}

// CheckDigit computes the modulo 11 check digit of the first 43 digits of a
// key. Weights run 2..9 from the rightmost digit and wrap around.
func CheckDigit(base string) int {
	weight := 2
	sum := 0
	for i := len(base) - 1; i >= 0; i-- {
		sum += int(base[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}
