package middleware

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/lanekit/auth-service/internal/apperrors"
)

// ErrorHandler is the app-wide fiber error handler. Typed service errors
// map to their status and client-safe message; everything else becomes a
// logged 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		if appErr.Kind == apperrors.KindInternal {
			log.Printf("internal error on %s %s: %v", c.Method(), c.Path(), err)
		}
		return c.Status(appErr.HTTPStatus()).JSON(fiber.Map{
			"success": false,
			"error":   string(appErr.Kind),
			"message": appErr.Message,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"success": false,
			"error":   "REQUEST_ERROR",
			"message": fiberErr.Message,
		})
	}

	log.Printf("unhandled error on %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   string(apperrors.KindInternal),
		"message": "Something went wrong, please try again",
	})
}
