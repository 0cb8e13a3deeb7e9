package auth

import (
	"context"

	"github.com/lanekit/auth-service/internal/database"
)

type contextKey string

var (
	CurrentUserKey = contextKey("currentUser")
	ClientIPKey    = contextKey("clientIP")
)

func GetCurrentUser(ctx context.Context) *database.User {
	if user, ok := ctx.Value(CurrentUserKey).(*database.User); ok {
		return user
	}
	return nil
}

func WithCurrentUser(ctx context.Context, user *database.User) context.Context {
	return context.WithValue(ctx, CurrentUserKey, user)
}

func GetIPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(ClientIPKey).(string); ok {
		return ip
	}
	return ""
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ClientIPKey, ip)
}
