package validator

import (
	"regexp"

	"github.com/lanekit/auth-service/internal/apperrors"
)

var (
	upperRegex   = regexp.MustCompile(`[A-Z]`)
	lowerRegex   = regexp.MustCompile(`[a-z]`)
	digitRegex   = regexp.MustCompile(`[0-9]`)
	specialRegex = regexp.MustCompile(`[!@#~$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)
)

const combinationMessage = "Password must contain one uppercase, one lowercase, one number, and one special character"

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return apperrors.New(apperrors.KindValidation, "Password must be at least 8 characters long")
	}
	for _, re := range []*regexp.Regexp{upperRegex, lowerRegex, digitRegex, specialRegex} {
		if !re.MatchString(password) {
			return apperrors.New(apperrors.KindValidation, combinationMessage)
		}
	}
	return nil
}
