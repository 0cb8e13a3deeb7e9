package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err    *Error
		status int
	}{
		{OTPCodeNotValid, fiber.StatusBadRequest},
		{EmailExists, fiber.StatusConflict},
		{UserNotFound, fiber.StatusNotFound},
		{InvalidCredentials, fiber.StatusUnauthorized},
		{InvalidToken, fiber.StatusUnauthorized},
		{SomethingWentWrong, fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.HTTPStatus(), tc.err.Message)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, KindInternal, "Unable to log in")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, IsKind(err, KindInternal))
	assert.False(t, IsKind(err, KindAuth))
}

func TestWrappedSentinelStaysMatchable(t *testing.T) {
	err := fmt.Errorf("handler: %w", InvalidCredentials)
	assert.ErrorIs(t, err, InvalidCredentials)

	var appErr *Error
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, KindAuth, appErr.Kind)
}
