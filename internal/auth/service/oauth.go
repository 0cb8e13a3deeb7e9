package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/lanekit/auth-service/internal/apperrors"
	"github.com/lanekit/auth-service/internal/auth/model"
	"github.com/lanekit/auth-service/internal/configs"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	oauthStateTTL     = 10 * time.Minute
)

// OAuthService drives the browser-based Google sign-in. The PKCE
// verifier lives in Redis keyed by the state nonce, so the callback can
// land on any instance.
type OAuthService struct {
	googleOAuthConfig *oauth2.Config
	authService       *AuthService
}

func NewOAuthService(authService *AuthService) *OAuthService {
	return &OAuthService{
		googleOAuthConfig: &oauth2.Config{
			ClientID:     authService.cfg.Providers.GoogleClientID,
			ClientSecret: authService.cfg.Providers.GoogleClientSecret,
			RedirectURL:  GetRedirectURL(authService.cfg, "google"),
			Scopes:       []string{"email", "profile"},
			Endpoint:     google.Endpoint,
		},
		authService: authService,
	}
}

func GetRedirectURL(cfg *configs.Config, provider string) string {
	baseAPIUrl := "http://localhost:8080"
	if cfg.Env.CurrentEnv == "production" {
		baseAPIUrl = cfg.Env.BaseAPIUrl
	}
	return fmt.Sprintf("%s/auth/oauth/%s/callback", baseAPIUrl, provider)
}

// AuthCodeURL mints the state nonce, caches the PKCE verifier under it
// and returns the Google consent URL plus the state for the caller.
func (s *OAuthService) AuthCodeURL(ctx context.Context) (string, string, error) {
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	cacheKey := oauthStateKey(state)
	if err := s.authService.cache.Set(ctx, cacheKey, verifier, oauthStateTTL); err != nil {
		return "", "", apperrors.Wrap(err, apperrors.KindInternal, "Unable to start sign-in")
	}

	authURL := s.googleOAuthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
	return authURL, state, nil
}

// HandleCallback exchanges the authorization code, fetches the Google
// profile and delegates sign-in to the auth service. The state must
// still be cached; an expired or replayed state fails the exchange.
func (s *OAuthService) HandleCallback(ctx context.Context, code, state string) (*model.LoginResult, error) {
	cacheKey := oauthStateKey(state)

	var verifier string
	if err := s.authService.cache.Get(ctx, cacheKey, &verifier); err != nil {
		return nil, apperrors.New(apperrors.KindAuth, "Sign-in session expired, please try again")
	}
	// One-shot state, a replayed callback must not find it.
	if err := s.authService.cache.Delete(ctx, cacheKey); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to complete sign-in")
	}

	token, err := s.googleOAuthConfig.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindAuth, "Unable to complete sign-in")
	}

	profile, err := s.fetchGoogleProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	return s.authService.HandleGoogleAuth(ctx, profile)
}

func (s *OAuthService) fetchGoogleProfile(ctx context.Context, token *oauth2.Token) (*model.GoogleProfile, error) {
	client := s.googleOAuthConfig.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to complete sign-in")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to complete sign-in")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.Newf(apperrors.KindAuth, "Google userinfo request failed: %s", string(body))
	}

	var profile model.GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to complete sign-in")
	}
	if profile.Email == "" || profile.ID == "" {
		return nil, apperrors.New(apperrors.KindAuth, "Google profile is missing required fields")
	}
	return &profile, nil
}

func oauthStateKey(state string) string {
	return fmt.Sprintf("oauth:google:%s", state)
}
