package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lanekit/auth-service/internal/apperrors"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("ada@example.com"))
	assert.NoError(t, ValidateEmail("first.last+tag@sub.example.org"))

	for _, email := range []string{"", "not-an-email", "missing@tld", "UPPER@EXAMPLE.COM", "a@b@c.com"} {
		err := ValidateEmail(email)
		assert.Error(t, err, email)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), email)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Sup3r$ecret"))

	cases := map[string]string{
		"short":        "Ab1$",
		"no uppercase": "sup3r$ecret",
		"no lowercase": "SUP3R$ECRET",
		"no digit":     "Super$ecret",
		"no special":   "Sup3rSecret",
	}
	for name, pw := range cases {
		err := ValidatePassword(pw)
		assert.Error(t, err, name)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), name)
	}
}
