package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanekit/auth-service/internal/apperrors"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	signer, err := NewSigner("access-secret", "refresh-secret")
	require.NoError(t, err)
	return signer
}

func TestNewSignerRequiresSecrets(t *testing.T) {
	_, err := NewSigner("", "refresh")
	assert.Error(t, err)
	_, err = NewSigner("access", "")
	assert.Error(t, err)
}

func TestGenerateTokenPairRoundTrip(t *testing.T) {
	signer := newTestSigner(t)

	pair, err := signer.GenerateTokenPair(42)
	require.NoError(t, err)

	accessClaims, err := signer.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), accessClaims.UserID)
	assert.True(t, accessClaims.IsAccessToken())

	refreshClaims, err := signer.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), refreshClaims.UserID)
	assert.True(t, refreshClaims.IsRefreshToken())
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	signer := newTestSigner(t)

	pair, err := signer.GenerateTokenPair(42)
	require.NoError(t, err)

	_, err = signer.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.InvalidToken)

	_, err = signer.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.InvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	signer := newTestSigner(t)

	token, err := signer.GenerateToken(42, TokenTypeAccess, -time.Minute)
	require.NoError(t, err)

	_, err = signer.ValidateAccessToken(token)
	assert.ErrorIs(t, err, apperrors.ExpiredToken)
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	signer := newTestSigner(t)
	other, err := NewSigner("different-access", "different-refresh")
	require.NoError(t, err)

	token, err := other.GenerateToken(42, TokenTypeAccess, time.Minute)
	require.NoError(t, err)

	_, err = signer.ValidateAccessToken(token)
	assert.ErrorIs(t, err, apperrors.InvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	signer := newTestSigner(t)
	_, err := signer.ValidateAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, apperrors.InvalidToken)
}

func TestGetTokenRemainingTTL(t *testing.T) {
	signer := newTestSigner(t)

	token, err := signer.GenerateToken(42, TokenTypeAccess, time.Hour)
	require.NoError(t, err)

	ttl := GetTokenRemainingTTL(token)
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	assert.Equal(t, time.Duration(0), GetTokenRemainingTTL("garbage"))
}
