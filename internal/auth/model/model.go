package model

import (
	"time"

	"github.com/lanekit/auth-service/internal/database"
	"github.com/lanekit/auth-service/pkg/jwt"
)

// PublicUser is the sanitized account view returned by the API. No hash,
// no OTP slots, no stored tokens.
type PublicUser struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	IsVerified  bool       `json:"isVerified"`
	Roles       []string   `json:"roles,omitempty"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func NewPublicUser(u *database.User) *PublicUser {
	pub := &PublicUser{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsVerified:  u.IsVerified,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
	for _, role := range u.Roles {
		pub.Roles = append(pub.Roles, role.Name)
	}
	return pub
}

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type RegisterResult struct {
	User  *PublicUser `json:"user"`
	JobID string      `json:"-"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries the sanitized user plus the freshly minted pair.
type LoginResult struct {
	User   *PublicUser    `json:"user"`
	Tokens *jwt.TokenPair `json:"tokens"`
}

type VerifyOTPInput struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type ResetPasswordInput struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

// GoogleProfile is the subset of the userinfo response the service needs.
type GoogleProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"given_name"`
	LastName  string `json:"family_name"`
}
