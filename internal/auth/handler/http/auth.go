package http

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lanekit/auth-service/internal/apperrors"
	"github.com/lanekit/auth-service/internal/auth"
	"github.com/lanekit/auth-service/internal/auth/model"
	"github.com/lanekit/auth-service/internal/utils/validator"
	"github.com/lanekit/auth-service/pkg/jwt"
)

// AuthAPI is the slice of the auth service the HTTP layer consumes.
type AuthAPI interface {
	Register(ctx context.Context, input model.RegisterInput) (*model.RegisterResult, error)
	VerifyOTP(ctx context.Context, input model.VerifyOTPInput) (*model.LoginResult, error)
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, input model.LoginInput) (*model.LoginResult, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*jwt.TokenPair, error)
	Logout(ctx context.Context, userID int64, refreshToken string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, input model.ResetPasswordInput) error
	CurrentUser(ctx context.Context, userID int64) (*model.PublicUser, error)
}

type AuthHandler struct {
	authService AuthAPI
}

func NewAuthHandler(authService AuthAPI) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input model.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return apperrors.New(apperrors.KindValidation, "Invalid request body")
	}

	input.Email = trimEmail(input.Email)
	if err := validator.ValidateEmail(input.Email); err != nil {
		return err
	}
	if err := validator.ValidatePassword(input.Password); err != nil {
		return err
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return apperrors.New(apperrors.KindValidation, "First name and last name are required")
	}

	result, err := h.authService.Register(c.Context(), input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Registration successful, please check your email for the verification code",
		"data":    result.User,
	})
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var input model.VerifyOTPInput
	if err := c.BodyParser(&input); err != nil {
		return apperrors.New(apperrors.KindValidation, "Invalid request body")
	}

	input.Email = trimEmail(input.Email)
	if err := validator.ValidateEmail(input.Email); err != nil {
		return err
	}
	if len(input.Code) != 6 {
		return apperrors.OTPCodeNotValid
	}

	result, err := h.authService.VerifyOTP(c.Context(), input)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Email verified successfully",
		"data":    result,
	})
}

func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	email, err := emailFromBody(c)
	if err != nil {
		return err
	}

	if err := h.authService.ResendOTP(c.Context(), email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "A new verification code has been sent to your email",
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input model.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return apperrors.New(apperrors.KindValidation, "Invalid request body")
	}

	input.Email = trimEmail(input.Email)
	if input.Email == "" || input.Password == "" {
		return apperrors.New(apperrors.KindValidation, "Email and password are required")
	}

	result, err := h.authService.Login(c.Context(), input)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"data":    result,
	})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.BodyParser(&body); err != nil {
		return apperrors.New(apperrors.KindValidation, "Invalid request body")
	}

	pair, err := h.authService.RefreshTokens(c.Context(), body.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Session refreshed",
		"data": fiber.Map{
			"accessToken":  pair.AccessToken,
			"refreshToken": pair.RefreshToken,
		},
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return apperrors.NotLoggedIn
	}

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.BodyParser(&body); err != nil {
		return apperrors.New(apperrors.KindValidation, "Invalid request body")
	}

	if err := h.authService.Logout(c.Context(), user.ID, body.RefreshToken); err != nil {
		return err
	}
	log.Printf("user %d logged out from %s", user.ID, auth.GetIPFromContext(c.UserContext()))

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out successfully",
		"data":    fiber.Map{"userId": user.ID},
	})
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	email, err := emailFromBody(c)
	if err != nil {
		return err
	}

	if err := h.authService.ForgotPassword(c.Context(), email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "A password reset code has been sent to your email",
	})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var input model.ResetPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return apperrors.New(apperrors.KindValidation, "Invalid request body")
	}

	input.Email = trimEmail(input.Email)
	if err := validator.ValidateEmail(input.Email); err != nil {
		return err
	}
	if len(input.Code) != 6 {
		return apperrors.OTPCodeNotValid
	}
	if err := validator.ValidatePassword(input.NewPassword); err != nil {
		return err
	}

	if err := h.authService.ResetPassword(c.Context(), input); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password reset successfully, please log in with your new password",
	})
}

func emailFromBody(c *fiber.Ctx) (string, error) {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&body); err != nil {
		return "", apperrors.New(apperrors.KindValidation, "Invalid request body")
	}

	email := trimEmail(body.Email)
	if err := validator.ValidateEmail(email); err != nil {
		return "", err
	}
	return email, nil
}

// trimEmail strips whitespace only. Addresses are stored and matched
// case-sensitively; the format validator admits lowercase addresses.
func trimEmail(email string) string {
	return strings.TrimSpace(email)
}
