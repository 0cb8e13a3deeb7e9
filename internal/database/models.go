package database

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// User is the credential record. The OTP slot for email verification and
// the password reset slot are independent on purpose: a reset code must
// never satisfy a verification check or vice versa.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64   `bun:"id,pk,autoincrement"`
	Email        string  `bun:"email,notnull,unique"`
	PasswordHash *string `bun:"password_hash"`
	GoogleID     *string `bun:"google_id,unique,nullzero"`
	FirstName    string  `bun:"first_name,notnull"`
	LastName     string  `bun:"last_name,notnull"`

	IsVerified   bool       `bun:"is_verified,notnull,default:false"`
	OTP          *string    `bun:"otp"`
	OTPExpiresAt *time.Time `bun:"otp_expires_at"`

	PasswordResetToken     *string    `bun:"password_reset_token"`
	PasswordResetExpiresAt *time.Time `bun:"password_reset_expires_at"`

	// Last-issued refresh token, a denormalized convenience field. The
	// RefreshTokens relation is the authoritative session record.
	RefreshToken *string `bun:"refresh_token"`

	LastLoginAt *time.Time `bun:"last_login_at"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull,default:current_timestamp"`

	Roles         []*Role         `bun:"m2m:user_roles,join:User=Role"`
	RefreshTokens []*RefreshToken `bun:"rel:has-many,join:id=user_id"`
}

// HasPassword reports whether the account can log in locally. OAuth-only
// accounts carry no hash.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_tokens,alias:rt"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Token     string    `bun:"token,notnull,unique"`
	UserID    int64     `bun:"user_id,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// Role is stored only so the sanitized login/profile response can carry
// role names. No RBAC evaluation happens in this service.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull,unique"`
}

type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`

	UserID int64 `bun:"user_id,pk"`
	RoleID int64 `bun:"role_id,pk"`
	User   *User `bun:"rel:belongs-to,join:user_id=id"`
	Role   *Role `bun:"rel:belongs-to,join:role_id=id"`
}

// CreateSchema creates the auth tables. Used on startup when migrate is
// enabled and by the sqlite-backed repository tests.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []interface{}{
		(*User)(nil),
		(*RefreshToken)(nil),
		(*Role)(nil),
		(*UserRole)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
