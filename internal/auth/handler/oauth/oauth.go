package oauth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lanekit/auth-service/internal/apperrors"
	"github.com/lanekit/auth-service/internal/auth/service"
)

type OAuthHandler struct {
	oauthService *service.OAuthService
}

func NewOAuthHandler(oauthService *service.OAuthService) *OAuthHandler {
	return &OAuthHandler{oauthService: oauthService}
}

func (h *OAuthHandler) RegisterRoutes(router fiber.Router) {
	group := router.Group("/auth/oauth/google")
	group.Get("/", h.GoogleRedirect)
	group.Get("/callback", h.GoogleCallback)
}

// GoogleRedirect starts the browser consent flow.
func (h *OAuthHandler) GoogleRedirect(c *fiber.Ctx) error {
	authURL, _, err := h.oauthService.AuthCodeURL(c.Context())
	if err != nil {
		return err
	}
	return c.Redirect(authURL, fiber.StatusTemporaryRedirect)
}

// GoogleCallback finishes the flow: exchanges the code, signs the user
// in and returns the token pair as JSON.
func (h *OAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return apperrors.New(apperrors.KindValidation, "Missing code or state parameter")
	}

	result, err := h.oauthService.HandleCallback(c.Context(), code, state)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Signed in with Google",
		"data":    result,
	})
}
