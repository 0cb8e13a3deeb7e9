package validator

import (
	"regexp"

	"github.com/lanekit/auth-service/internal/apperrors"
)

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,4}$`)

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return apperrors.New(apperrors.KindValidation, "Invalid email format")
	}
	return nil
}
