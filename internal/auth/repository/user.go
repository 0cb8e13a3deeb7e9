package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/lanekit/auth-service/internal/database"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrTokenNotFound  = errors.New("refresh token not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository is the credential store contract. Single-row operations
// are atomic on their own; the multi-step session writes (login eviction,
// rotation, password reset) run inside one transaction so two concurrent
// logins cannot delete each other's freshly minted token.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*database.User, error)
	GetByID(ctx context.Context, id int64) (*database.User, error)
	GetByIDWithRoles(ctx context.Context, id int64) (*database.User, error)
	GetByEmailOrGoogleID(ctx context.Context, email, googleID string) (*database.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	CreateLocalUser(ctx context.Context, email, passwordHash, firstName, lastName, otpCode string, otpExpiry time.Time) (*database.User, error)
	CreateGoogleUser(ctx context.Context, email, firstName, lastName, googleID string) (*database.User, error)
	LinkGoogleID(ctx context.Context, userID int64, googleID string) error

	SetVerificationOTP(ctx context.Context, userID int64, code string, expiry time.Time) error
	MarkVerifiedWithSession(ctx context.Context, userID int64, refreshToken string, expiresAt time.Time) error

	SetPasswordResetOTP(ctx context.Context, userID int64, code string, expiry time.Time) error
	ResetPassword(ctx context.Context, userID int64, passwordHash string) error

	UpdateLoginTime(ctx context.Context, userID int64) error

	ReplaceRefreshTokens(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	AddRefreshToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	RotateRefreshToken(ctx context.Context, userID int64, oldToken, newToken string, expiresAt time.Time) error
	FindRefreshTokenByValue(ctx context.Context, token string) (*database.RefreshToken, error)
	HasActiveRefreshToken(ctx context.Context, userID int64) (bool, error)
	DeleteAllRefreshTokens(ctx context.Context, userID int64) error
}

type userRepository struct {
	db *bun.DB
}

func NewUserRepository(db *bun.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*database.User, error) {
	user := new(database.User)
	err := r.db.NewSelect().
		Model(user).
		Relation("Roles").
		Where("u.email = ?", email).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*database.User, error) {
	user := new(database.User)
	err := r.db.NewSelect().
		Model(user).
		Where("u.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (r *userRepository) GetByIDWithRoles(ctx context.Context, id int64) (*database.User, error) {
	user := new(database.User)
	err := r.db.NewSelect().
		Model(user).
		Relation("Roles").
		Where("u.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user with roles: %w", err)
	}
	return user, nil
}

// GetByEmailOrGoogleID resolves the account for an OAuth profile. The
// email match is checked first so an existing local account wins and gets
// linked instead of a second account being created off the googleId.
func (r *userRepository) GetByEmailOrGoogleID(ctx context.Context, email, googleID string) (*database.User, error) {
	user, err := r.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user = new(database.User)
	err = r.db.NewSelect().
		Model(user).
		Relation("Roles").
		Where("u.google_id = ?", googleID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by google id: %w", err)
	}
	return user, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Where("u.email = ?", email).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

func (r *userRepository) CreateLocalUser(ctx context.Context, email, passwordHash, firstName, lastName, otpCode string, otpExpiry time.Time) (*database.User, error) {
	now := time.Now()
	user := &database.User{
		Email:        email,
		PasswordHash: &passwordHash,
		FirstName:    firstName,
		LastName:     lastName,
		IsVerified:   false,
		OTP:          &otpCode,
		OTPExpiresAt: &otpExpiry,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.db.NewInsert().
		Model(user).
		Exec(ctx)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (r *userRepository) CreateGoogleUser(ctx context.Context, email, firstName, lastName, googleID string) (*database.User, error) {
	now := time.Now()
	user := &database.User{
		Email:      email,
		GoogleID:   &googleID,
		FirstName:  firstName,
		LastName:   lastName,
		IsVerified: true, // Google already verified the address
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := r.db.NewInsert().
		Model(user).
		Exec(ctx)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create oauth user: %w", err)
	}
	return user, nil
}

func (r *userRepository) LinkGoogleID(ctx context.Context, userID int64, googleID string) error {
	_, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("google_id = ?", googleID).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to link google id: %w", err)
	}
	return nil
}

func (r *userRepository) SetVerificationOTP(ctx context.Context, userID int64, code string, expiry time.Time) error {
	res, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("otp = ?", code).
		Set("otp_expires_at = ?", expiry).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set verification otp: %w", err)
	}
	return requireRows(res)
}

// MarkVerifiedWithSession flips the verification flag, clears the OTP slot
// and persists the first refresh token in one transaction: either the user
// ends up verified with a usable session, or nothing changed.
func (r *userRepository) MarkVerifiedWithSession(ctx context.Context, userID int64, refreshToken string, expiresAt time.Time) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*database.User)(nil)).
			Set("is_verified = ?", true).
			Set("otp = NULL").
			Set("otp_expires_at = NULL").
			Set("refresh_token = ?", refreshToken).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", userID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to mark user verified: %w", err)
		}
		if err := requireRows(res); err != nil {
			return err
		}

		_, err = tx.NewInsert().
			Model(&database.RefreshToken{
				Token:     refreshToken,
				UserID:    userID,
				ExpiresAt: expiresAt,
				CreatedAt: time.Now(),
			}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create refresh token: %w", err)
		}
		return nil
	})
}

func (r *userRepository) SetPasswordResetOTP(ctx context.Context, userID int64, code string, expiry time.Time) error {
	res, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_reset_token = ?", code).
		Set("password_reset_expires_at = ?", expiry).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set password reset otp: %w", err)
	}
	return requireRows(res)
}

// ResetPassword stores the new hash, clears the reset slot and tears down
// every session, all in one transaction. A reset always forces re-login
// everywhere.
func (r *userRepository) ResetPassword(ctx context.Context, userID int64, passwordHash string) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*database.User)(nil)).
			Set("password_hash = ?", passwordHash).
			Set("password_reset_token = NULL").
			Set("password_reset_expires_at = NULL").
			Set("refresh_token = NULL").
			Set("updated_at = ?", time.Now()).
			Where("id = ?", userID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		if err := requireRows(res); err != nil {
			return err
		}

		_, err = tx.NewDelete().
			Model((*database.RefreshToken)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete refresh tokens: %w", err)
		}
		return nil
	})
}

func (r *userRepository) UpdateLoginTime(ctx context.Context, userID int64) error {
	_, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("last_login_at = ?", time.Now()).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	return err
}

// ReplaceRefreshTokens enforces the single-session policy for local login:
// delete everything the user had, then persist the new token.
func (r *userRepository) ReplaceRefreshTokens(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*database.RefreshToken)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete refresh tokens: %w", err)
		}
		return insertRefreshToken(ctx, tx, userID, token, expiresAt)
	})
}

// AddRefreshToken persists a token without evicting existing sessions.
// The OAuth login path uses this on purpose.
func (r *userRepository) AddRefreshToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return insertRefreshToken(ctx, tx, userID, token, expiresAt)
	})
}

// RotateRefreshToken atomically swaps the stored token during refresh so a
// superseded token can never race its replacement.
func (r *userRepository) RotateRefreshToken(ctx context.Context, userID int64, oldToken, newToken string, expiresAt time.Time) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*database.RefreshToken)(nil)).
			Where("user_id = ?", userID).
			Where("token = ?", oldToken).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete rotated token: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrTokenNotFound
		}
		return insertRefreshToken(ctx, tx, userID, newToken, expiresAt)
	})
}

func insertRefreshToken(ctx context.Context, tx bun.Tx, userID int64, token string, expiresAt time.Time) error {
	_, err := tx.NewInsert().
		Model(&database.RefreshToken{
			Token:     token,
			UserID:    userID,
			ExpiresAt: expiresAt,
			CreatedAt: time.Now(),
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}

	_, err = tx.NewUpdate().
		Model((*database.User)(nil)).
		Set("refresh_token = ?", token).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update denormalized token: %w", err)
	}
	return nil
}

func (r *userRepository) FindRefreshTokenByValue(ctx context.Context, token string) (*database.RefreshToken, error) {
	record := new(database.RefreshToken)
	err := r.db.NewSelect().
		Model(record).
		Where("rt.token = ?", token).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}
	return record, nil
}

func (r *userRepository) HasActiveRefreshToken(ctx context.Context, userID int64) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.RefreshToken)(nil)).
		Where("rt.user_id = ?", userID).
		Where("rt.expires_at > ?", time.Now()).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check active refresh token: %w", err)
	}
	return exists, nil
}

// DeleteAllRefreshTokens is the logout teardown: every session record goes
// and the denormalized field is cleared with it.
func (r *userRepository) DeleteAllRefreshTokens(ctx context.Context, userID int64) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*database.RefreshToken)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete refresh tokens: %w", err)
		}

		_, err := tx.NewUpdate().
			Model((*database.User)(nil)).
			Set("refresh_token = NULL").
			Set("updated_at = ?", time.Now()).
			Where("id = ?", userID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to clear denormalized token: %w", err)
		}
		return nil
	})
}

func requireRows(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func isDuplicateKey(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || // mysql
		strings.Contains(msg, "UNIQUE constraint failed") // sqlite
}
