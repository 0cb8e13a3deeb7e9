package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanekit/auth-service/internal/auth"
	"github.com/lanekit/auth-service/internal/auth/repository"
	"github.com/lanekit/auth-service/internal/database"
	"github.com/lanekit/auth-service/pkg/jwt"
)

type stubSessionStore struct {
	user       *database.User
	userErr    error
	hasSession bool
	sessionErr error
}

func (s *stubSessionStore) GetByID(context.Context, int64) (*database.User, error) {
	return s.user, s.userErr
}

func (s *stubSessionStore) HasActiveRefreshToken(context.Context, int64) (bool, error) {
	return s.hasSession, s.sessionErr
}

func newProtectedApp(t *testing.T, store SessionStore, signer *jwt.Signer) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/protected", Protect(store, signer), func(c *fiber.Ctx) error {
		user := auth.GetCurrentUser(c.UserContext())
		require.NotNil(t, user)
		assert.NotEmpty(t, auth.GetIPFromContext(c.UserContext()))
		return c.JSON(fiber.Map{"success": true, "userId": user.ID})
	})
	return app
}

func testSigner(t *testing.T) *jwt.Signer {
	t.Helper()
	signer, err := jwt.NewSigner("test-access-secret", "test-refresh-secret")
	require.NoError(t, err)
	return signer
}

func doRequest(t *testing.T, app *fiber.App, authHeader string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set(fiber.HeaderAuthorization, authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestProtectAllowsLiveSession(t *testing.T) {
	signer := testSigner(t)
	store := &stubSessionStore{
		user:       &database.User{ID: 42, Email: "ada@example.com"},
		hasSession: true,
	}
	app := newProtectedApp(t, store, signer)

	token, err := signer.GenerateToken(42, jwt.TokenTypeAccess, time.Minute)
	require.NoError(t, err)

	resp, body := doRequest(t, app, "Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(42), body["userId"])
}

func TestProtectRejectsMissingAndMalformedHeaders(t *testing.T) {
	signer := testSigner(t)
	store := &stubSessionStore{hasSession: true}
	app := newProtectedApp(t, store, signer)

	resp, body := doRequest(t, app, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHENTICATED", body["error"])

	resp, body = doRequest(t, app, "Basic abc123")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "TOKEN", body["error"])
}

func TestProtectRejectsRefreshTokenAsAccess(t *testing.T) {
	signer := testSigner(t)
	store := &stubSessionStore{
		user:       &database.User{ID: 42},
		hasSession: true,
	}
	app := newProtectedApp(t, store, signer)

	refresh, err := signer.GenerateToken(42, jwt.TokenTypeRefresh, time.Minute)
	require.NoError(t, err)

	resp, body := doRequest(t, app, "Bearer "+refresh)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "TOKEN", body["error"])
}

func TestProtectRejectsExpiredToken(t *testing.T) {
	signer := testSigner(t)
	store := &stubSessionStore{
		user:       &database.User{ID: 42},
		hasSession: true,
	}
	app := newProtectedApp(t, store, signer)

	expired, err := signer.GenerateToken(42, jwt.TokenTypeAccess, -time.Minute)
	require.NoError(t, err)

	resp, _ := doRequest(t, app, "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectRejectsDeletedUser(t *testing.T) {
	signer := testSigner(t)
	store := &stubSessionStore{
		userErr:    repository.ErrNotFound,
		hasSession: true,
	}
	app := newProtectedApp(t, store, signer)

	token, err := signer.GenerateToken(42, jwt.TokenTypeAccess, time.Minute)
	require.NoError(t, err)

	resp, body := doRequest(t, app, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body["message"], "no longer exists")
}

// Valid access token, but every refresh token is gone: the user logged
// out or reset their password, so access stops immediately.
func TestProtectRejectsWhenNoLiveRefreshToken(t *testing.T) {
	signer := testSigner(t)
	store := &stubSessionStore{
		user:       &database.User{ID: 42},
		hasSession: false,
	}
	app := newProtectedApp(t, store, signer)

	token, err := signer.GenerateToken(42, jwt.TokenTypeAccess, time.Minute)
	require.NoError(t, err)

	resp, body := doRequest(t, app, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body["message"], "session has ended")
}
