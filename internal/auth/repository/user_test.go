package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/lanekit/auth-service/internal/database"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	sqlDB, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	db.RegisterModel((*database.UserRole)(nil))
	require.NoError(t, database.CreateSchema(context.Background(), db))

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func createTestUser(t *testing.T, repo UserRepository, email string) *database.User {
	t.Helper()
	user, err := repo.CreateLocalUser(
		context.Background(), email, "$2a$12$hash", "Ada", "Lovelace",
		"482913", time.Now().Add(10*time.Minute),
	)
	require.NoError(t, err)
	return user
}

func TestCreateLocalUser(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := createTestUser(t, repo, "ada@example.com")
	assert.NotZero(t, user.ID)
	assert.False(t, user.IsVerified)
	require.NotNil(t, user.OTP)
	assert.Equal(t, "482913", *user.OTP)

	_, err := repo.CreateLocalUser(ctx, "ada@example.com", "hash", "A", "B", "111111", time.Now().Add(time.Minute))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestGetByEmail(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	created := createTestUser(t, repo, "ada@example.com")

	found, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByEmailLoadsRoles(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createTestUser(t, repo, "ada@example.com")

	role := &database.Role{Name: "admin"}
	_, err := db.NewInsert().Model(role).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewInsert().Model(&database.UserRole{UserID: user.ID, RoleID: role.ID}).Exec(ctx)
	require.NoError(t, err)

	found, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Len(t, found.Roles, 1)
	assert.Equal(t, "admin", found.Roles[0].Name)
}

func TestGetByEmailOrGoogleID(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	local := createTestUser(t, repo, "ada@example.com")
	googleUser, err := repo.CreateGoogleUser(ctx, "grace@example.com", "Grace", "Hopper", "google-123")
	require.NoError(t, err)
	assert.True(t, googleUser.IsVerified)

	// Email match wins even when the googleId points at a different account.
	found, err := repo.GetByEmailOrGoogleID(ctx, "ada@example.com", "google-123")
	require.NoError(t, err)
	assert.Equal(t, local.ID, found.ID)

	found, err = repo.GetByEmailOrGoogleID(ctx, "other@example.com", "google-123")
	require.NoError(t, err)
	assert.Equal(t, googleUser.ID, found.ID)

	_, err = repo.GetByEmailOrGoogleID(ctx, "other@example.com", "google-999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkVerifiedWithSession(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := createTestUser(t, repo, "ada@example.com")
	err := repo.MarkVerifiedWithSession(ctx, user.ID, "refresh-1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	updated, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsVerified)
	assert.Nil(t, updated.OTP)
	assert.Nil(t, updated.OTPExpiresAt)
	require.NotNil(t, updated.RefreshToken)
	assert.Equal(t, "refresh-1", *updated.RefreshToken)

	record, err := repo.FindRefreshTokenByValue(ctx, "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, record.UserID)
}

func TestReplaceRefreshTokensEvictsOldSessions(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := createTestUser(t, repo, "ada@example.com")
	expiry := time.Now().Add(time.Hour)

	require.NoError(t, repo.ReplaceRefreshTokens(ctx, user.ID, "session-1", expiry))
	require.NoError(t, repo.ReplaceRefreshTokens(ctx, user.ID, "session-2", expiry))

	_, err := repo.FindRefreshTokenByValue(ctx, "session-1")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	record, err := repo.FindRefreshTokenByValue(ctx, "session-2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, record.UserID)
}

func TestAddRefreshTokenKeepsExistingSessions(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := createTestUser(t, repo, "ada@example.com")
	expiry := time.Now().Add(time.Hour)

	require.NoError(t, repo.ReplaceRefreshTokens(ctx, user.ID, "session-1", expiry))
	require.NoError(t, repo.AddRefreshToken(ctx, user.ID, "session-2", expiry))

	_, err := repo.FindRefreshTokenByValue(ctx, "session-1")
	require.NoError(t, err)
	_, err = repo.FindRefreshTokenByValue(ctx, "session-2")
	require.NoError(t, err)
}

func TestRotateRefreshToken(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := createTestUser(t, repo, "ada@example.com")
	expiry := time.Now().Add(time.Hour)
	require.NoError(t, repo.ReplaceRefreshTokens(ctx, user.ID, "old-token", expiry))

	err := repo.RotateRefreshToken(ctx, user.ID, "old-token", "new-token", expiry)
	require.NoError(t, err)

	_, err = repo.FindRefreshTokenByValue(ctx, "old-token")
	assert.ErrorIs(t, err, ErrTokenNotFound)
	_, err = repo.FindRefreshTokenByValue(ctx, "new-token")
	require.NoError(t, err)

	// Rotating the superseded token again must fail.
	err = repo.RotateRefreshToken(ctx, user.ID, "old-token", "newer-token", expiry)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestHasActiveRefreshToken(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := createTestUser(t, repo, "ada@example.com")

	active, err := repo.HasActiveRefreshToken(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, repo.AddRefreshToken(ctx, user.ID, "live", time.Now().Add(time.Hour)))
	active, err = repo.HasActiveRefreshToken(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, repo.DeleteAllRefreshTokens(ctx, user.ID))
	require.NoError(t, repo.AddRefreshToken(ctx, user.ID, "stale", time.Now().Add(-time.Minute)))
	active, err = repo.HasActiveRefreshToken(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestDeleteAllRefreshTokens(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := createTestUser(t, repo, "ada@example.com")
	require.NoError(t, repo.ReplaceRefreshTokens(ctx, user.ID, "session-1", time.Now().Add(time.Hour)))

	require.NoError(t, repo.DeleteAllRefreshTokens(ctx, user.ID))

	_, err := repo.FindRefreshTokenByValue(ctx, "session-1")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	updated, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.RefreshToken)
}

func TestResetPasswordTearsDownSessions(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := createTestUser(t, repo, "ada@example.com")
	require.NoError(t, repo.ReplaceRefreshTokens(ctx, user.ID, "session-1", time.Now().Add(time.Hour)))
	require.NoError(t, repo.SetPasswordResetOTP(ctx, user.ID, "915502", time.Now().Add(10*time.Minute)))

	require.NoError(t, repo.ResetPassword(ctx, user.ID, "$2a$12$newhash"))

	updated, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.PasswordHash)
	assert.Equal(t, "$2a$12$newhash", *updated.PasswordHash)
	assert.Nil(t, updated.PasswordResetToken)
	assert.Nil(t, updated.PasswordResetExpiresAt)
	assert.Nil(t, updated.RefreshToken)

	active, err := repo.HasActiveRefreshToken(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestSetVerificationOTPOverwritesPrevious(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := createTestUser(t, repo, "ada@example.com")
	newExpiry := time.Now().Add(10 * time.Minute)
	require.NoError(t, repo.SetVerificationOTP(ctx, user.ID, "777777", newExpiry))

	updated, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.OTP)
	assert.Equal(t, "777777", *updated.OTP)

	err = repo.SetVerificationOTP(ctx, 99999, "111111", newExpiry)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLinkGoogleID(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := createTestUser(t, repo, "ada@example.com")
	require.NoError(t, repo.LinkGoogleID(ctx, user.ID, "google-abc"))

	updated, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.GoogleID)
	assert.Equal(t, "google-abc", *updated.GoogleID)
	assert.True(t, updated.HasPassword())
}
