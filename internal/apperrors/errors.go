package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies an error for the HTTP boundary. The string value is
// what clients see in the error field.
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindConflict   Kind = "CONFLICT"
	KindNotFound   Kind = "NOT_FOUND"
	KindAuth       Kind = "UNAUTHENTICATED"
	KindToken      Kind = "TOKEN"
	KindInternal   Kind = "INTERNAL_SERVER_ERROR"
)

// Error is the service error type. Message is safe to show to clients;
// the wrapped cause is for logs only.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindConflict:
		return fiber.StatusConflict
	case KindNotFound:
		return fiber.StatusNotFound
	case KindAuth, KindToken:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(cause error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

var (
	UserNotFound         = New(KindNotFound, "User not found")
	EmailExists          = New(KindConflict, "An account with this email already exists")
	AlreadyVerified      = New(KindConflict, "This account is already verified")
	OTPCodeNotValid      = New(KindValidation, "The code you entered is not valid")
	OTPCodeExpired       = New(KindValidation, "The code you entered has expired, please request a new one")
	InvalidCredentials   = New(KindAuth, "Invalid email or password")
	EmailNotVerified     = New(KindAuth, "Please verify your email address before logging in")
	InvalidRefreshToken  = New(KindToken, "Invalid or expired refresh token")
	RefreshTokenRequired = New(KindValidation, "Refresh token is required")
	NotLoggedIn          = New(KindAuth, "You are not logged in")
	InvalidToken         = New(KindToken, "Invalid authentication token")
	ExpiredToken         = New(KindToken, "Your session token has expired")
	UserNoLongerExists   = New(KindAuth, "The account belonging to this session no longer exists")
	SessionExpired       = New(KindAuth, "Your session has ended, please log in again")
	SomethingWentWrong   = New(KindInternal, "Something went wrong, please try again")
)
