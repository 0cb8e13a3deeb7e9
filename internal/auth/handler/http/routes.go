package http

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the auth endpoints. The protected group carries
// the session-liveness middleware passed in by the caller.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, protect fiber.Handler) {
	authGroup := router.Group("/auth")

	authGroup.Post("/register", h.Register)
	authGroup.Post("/verify-otp", h.VerifyOTP)
	authGroup.Post("/resend-otp", h.ResendOTP)
	authGroup.Post("/login", h.Login)
	authGroup.Post("/refresh", h.Refresh)
	authGroup.Post("/forgot-password", h.ForgotPassword)
	authGroup.Post("/reset-password", h.ResetPassword)

	authGroup.Post("/logout", protect, h.Logout)
	authGroup.Get("/me", protect, h.Me)
}
