package nfe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChaveFromID(t *testing.T) {
	assert.Equal(t, "35250732409620000175550010000037471011544648",
		ChaveFromID("NFe35250732409620000175550010000037471011544648"))
	assert.Equal(t, "35250732409620000175550010000037471011544648",
		ChaveFromID(" 35250732409620000175550010000037471011544648 "))
	assert.Equal(t, "", ChaveFromID("NFe123"))
	assert.Equal(t, "", ChaveFromID(""))
}

func TestOnlyDigits(t *testing.T) {
	assert.Equal(t, "12345678000199", OnlyDigits("12.345.678/0001-99"))
	assert.Equal(t, "", OnlyDigits("abc"))
}

func TestValidateChave(t *testing.T) {
	assert.NoError(t, ValidateChave("35250732409620000175550010000037471011544648"))
	assert.NoError(t, ValidateChave("35240112345678000199550010000001231234567899"))

	assert.ErrorIs(t, ValidateChave("35250732409620000175550010000037471011544640"), ErrInvalidCheckDigit)
	assert.Error(t, ValidateChave("123"))
	assert.Error(t, ValidateChave("3525073240962000017555001000003747101154464X"))
}

func TestCheckDigit(t *testing.T) {
	assert.Equal(t, 8, CheckDigit("3525073240962000017555001000003747101154464"))
	assert.Equal(t, 9, CheckDigit("3524011234567800019955001000000123123456789"))
}
