package converter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		in   string
		kind ScalarKind
		want any
	}{
		{"true", KindBool, true},
		{"False", KindBool, false},
		{"0", KindInteger, json.Number("0")},
		{"-0", KindInteger, json.Number("0")},
		{"00042", KindInteger, json.Number("42")},
		{"+12", KindInteger, json.Number("12")},
		{"-15", KindInteger, json.Number("-15")},
		{"3.14", KindDecimal, json.Number("3.14")},
		{"1234,56", KindDecimal, json.Number("1234.56")},
		{"007.50", KindDecimal, json.Number("7.50")},
		{",5", KindDecimal, json.Number("0.5")},
		{"-.5", KindDecimal, json.Number("-0.5")},
		{"10.", KindDecimal, json.Number("10")},
		{"1.234,56", KindString, "1.234,56"},
		{"1,234.56", KindString, "1,234.56"},
		{"12a", KindString, "12a"},
		{"SEM GTIN", KindString, "SEM GTIN"},
		{"-", KindString, "-"},
		{"1e5", KindString, "1e5"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s := Coerce(tt.in)
			assert.Equal(t, tt.kind, s.Kind)
			assert.Equal(t, tt.want, s.Value())
			assert.Equal(t, tt.in, s.Text)
		})
	}
}

func TestCoercedNumbersAreValidJSON(t *testing.T) {
	for _, in := range []string{"007", "-0", "+3", "1,5", ".25", "5.", "000.000"} {
		s := Coerce(in)
		assert.True(t, json.Valid([]byte(s.Number)), in)
	}
}

func TestPadDigits(t *testing.T) {
	assert.Equal(t, "01234567000189", PadDigits("1234567000189", 14))
	assert.Equal(t, "12345", PadDigits("12345", 3))
}

func TestScalarKindString(t *testing.T) {
	assert.Equal(t, "decimal", KindDecimal.String())
	assert.Equal(t, "string", KindString.String())
}
