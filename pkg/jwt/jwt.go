package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lanekit/auth-service/internal/apperrors"
)

type Claims struct {
	UserID int64  `json:"userId"`
	Type   string `json:"type"` //access or refresh
	jwt.RegisteredClaims
}

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	AccessTokenExpiry  = 15 * time.Minute
	RefreshTokenExpiry = 7 * 24 * time.Hour
)

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Signer issues and verifies HS256 token pairs. Access and refresh tokens
// are signed with independent secrets so a leaked access secret cannot be
// used to mint refresh tokens.
type Signer struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
}

func NewSigner(accessSecret, refreshSecret string) (*Signer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("jwt secrets not configured")
	}
	return &Signer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		issuer:        "auth-service",
	}, nil
}

func (s *Signer) secretFor(tokenType string) ([]byte, error) {
	switch tokenType {
	case TokenTypeAccess:
		return s.accessSecret, nil
	case TokenTypeRefresh:
		return s.refreshSecret, nil
	default:
		return nil, fmt.Errorf("invalid token type %q", tokenType)
	}
}

func (s *Signer) GenerateToken(userID int64, tokenType string, expiration time.Duration) (string, error) {
	secret, err := s.secretFor(tokenType)
	if err != nil {
		return "", err
	}

	claims := &Claims{
		UserID: userID,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// GenerateTokenPair mints the standard access+refresh pair for a user.
func (s *Signer) GenerateTokenPair(userID int64) (*TokenPair, error) {
	accessToken, err := s.GenerateToken(userID, TokenTypeAccess, AccessTokenExpiry)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.GenerateToken(userID, TokenTypeRefresh, RefreshTokenExpiry)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Signer) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, TokenTypeAccess)
}

func (s *Signer) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, TokenTypeRefresh)
}

func (s *Signer) validate(tokenString, tokenType string) (*Claims, error) {
	secret, err := s.secretFor(tokenType)
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ExpiredToken
		}
		return nil, apperrors.InvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.InvalidToken
	}

	if claims.Type != tokenType {
		return nil, apperrors.InvalidToken
	}

	return claims, nil
}

func (c *Claims) IsAccessToken() bool {
	return c.Type == TokenTypeAccess
}

func (c *Claims) IsRefreshToken() bool {
	return c.Type == TokenTypeRefresh
}

// GetTokenRemainingTTL reports how long a token stays valid without
// verifying it. Used for log lines only.
func GetTokenRemainingTTL(tokenString string) time.Duration {
	claims := &Claims{}
	_, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims)
	if err != nil || claims.ExpiresAt == nil {
		return 0
	}
	return time.Until(claims.ExpiresAt.Time)
}
