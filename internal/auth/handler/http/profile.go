package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lanekit/auth-service/internal/apperrors"
	"github.com/lanekit/auth-service/internal/auth"
	"github.com/lanekit/auth-service/internal/database"
)

// Me returns the authenticated user's sanitized profile.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return apperrors.NotLoggedIn
	}

	profile, err := h.authService.CurrentUser(c.Context(), user.ID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile loaded",
		"data":    profile,
	})
}

func currentUser(c *fiber.Ctx) *database.User {
	if user, ok := c.Locals(string(auth.CurrentUserKey)).(*database.User); ok {
		return user
	}
	return auth.GetCurrentUser(c.UserContext())
}
