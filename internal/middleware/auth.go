package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/singleflight"

	"github.com/lanekit/auth-service/internal/apperrors"
	"github.com/lanekit/auth-service/internal/auth"
	"github.com/lanekit/auth-service/internal/auth/repository"
	"github.com/lanekit/auth-service/internal/database"
	"github.com/lanekit/auth-service/pkg/jwt"
)

// SessionStore is the slice of the user repository the middleware needs.
type SessionStore interface {
	GetByID(ctx context.Context, id int64) (*database.User, error)
	HasActiveRefreshToken(ctx context.Context, userID int64) (bool, error)
}

// Protect guards a route group. An access token alone is not enough: the
// user must also hold at least one live refresh token, so logout and
// password reset cut off access immediately instead of at access-token
// expiry.
func Protect(userRepo SessionStore, signer *jwt.Signer) fiber.Handler {
	var sfGroup singleflight.Group

	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			return err
		}

		claims, err := signer.ValidateAccessToken(tokenString)
		if err != nil {
			return err
		}

		user, err := userRepo.GetByID(c.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.UserNoLongerExists
			}
			return apperrors.Wrap(err, apperrors.KindInternal, "Unable to authenticate request")
		}

		// Collapse concurrent liveness checks for the same user into one
		// query.
		sfKey := fmt.Sprintf("session:%d", claims.UserID)
		result, err, _ := sfGroup.Do(sfKey, func() (interface{}, error) {
			return userRepo.HasActiveRefreshToken(c.Context(), claims.UserID)
		})
		if err != nil {
			return apperrors.Wrap(err, apperrors.KindInternal, "Unable to authenticate request")
		}
		if !result.(bool) {
			return apperrors.SessionExpired
		}

		c.SetUserContext(auth.WithClientIP(auth.WithCurrentUser(c.UserContext(), user), c.IP()))
		c.Locals(string(auth.CurrentUserKey), user)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", apperrors.NotLoggedIn
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", apperrors.InvalidToken
	}
	return parts[1], nil
}
