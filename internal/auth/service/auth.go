package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lanekit/auth-service/internal/apperrors"
	"github.com/lanekit/auth-service/internal/auth/model"
	"github.com/lanekit/auth-service/internal/auth/repository"
	"github.com/lanekit/auth-service/internal/configs"
	"github.com/lanekit/auth-service/internal/mailqueue"
	"github.com/lanekit/auth-service/pkg/jwt"
	"github.com/lanekit/auth-service/pkg/mail"
	"github.com/lanekit/auth-service/pkg/otp"
	"github.com/lanekit/auth-service/pkg/password"
)

type CacheService interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	RawClient() *redis.Client
}

type AuthService struct {
	userRepo   repository.UserRepository
	cfg        *configs.Config
	signer     *jwt.Signer
	dispatcher mailqueue.Dispatcher
	cache      CacheService
}

func NewAuthService(userRepo repository.UserRepository, cfg *configs.Config, signer *jwt.Signer, dispatcher mailqueue.Dispatcher, cache CacheService) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		cfg:        cfg,
		signer:     signer,
		dispatcher: dispatcher,
		cache:      cache,
	}
}

// Register creates an unverified account and queues the verification
// email. The account exists immediately but cannot log in until the OTP
// round-trip completes.
func (s *AuthService) Register(ctx context.Context, input model.RegisterInput) (*model.RegisterResult, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to complete registration")
	}
	if exists {
		return nil, apperrors.EmailExists
	}

	hashed, err := password.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to complete registration")
	}

	code, err := otp.Generate()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to complete registration")
	}

	user, err := s.userRepo.CreateLocalUser(ctx, input.Email, hashed, input.FirstName, input.LastName, code, otp.Expiry())
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.EmailExists
		}
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to complete registration")
	}

	// The user row stays even if the enqueue fails; resend recovers.
	jobID, err := s.dispatcher.Enqueue(ctx, user.Email, "Verify your email address", mail.VerificationEmailBody(user.FirstName, code))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Registration succeeded but the verification email could not be queued, please request a new code")
	}

	return &model.RegisterResult{
		User:  model.NewPublicUser(user),
		JobID: jobID,
	}, nil
}

// VerifyOTP checks the emailed code, marks the account verified and
// starts the first session in the same breath.
func (s *AuthService) VerifyOTP(ctx context.Context, input model.VerifyOTPInput) (*model.LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.UserNotFound
		}
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to verify account")
	}

	if user.IsVerified {
		return nil, apperrors.AlreadyVerified
	}
	if user.OTP == nil || *user.OTP != input.Code {
		return nil, apperrors.OTPCodeNotValid
	}
	if user.OTPExpiresAt == nil || time.Now().After(*user.OTPExpiresAt) {
		return nil, apperrors.OTPCodeExpired
	}

	pair, err := s.signer.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to verify account")
	}

	expiresAt := time.Now().Add(jwt.RefreshTokenExpiry)
	if err := s.userRepo.MarkVerifiedWithSession(ctx, user.ID, pair.RefreshToken, expiresAt); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to verify account")
	}
	user.IsVerified = true

	return &model.LoginResult{
		User:   model.NewPublicUser(user),
		Tokens: pair,
	}, nil
}

// ResendOTP issues a fresh verification code. The new code overwrites
// the previous one, so only the latest emailed code can verify.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.UserNotFound
		}
		return apperrors.Wrap(err, apperrors.KindInternal, "Unable to resend code")
	}
	if user.IsVerified {
		return apperrors.AlreadyVerified
	}

	code, err := otp.Generate()
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindInternal, "Unable to resend code")
	}
	if err := s.userRepo.SetVerificationOTP(ctx, user.ID, code, otp.Expiry()); err != nil {
		return apperrors.Wrap(err, apperrors.KindInternal, "Unable to resend code")
	}

	s.queueEmail(ctx, user.Email, "Verify your email address", mail.VerificationEmailBody(user.FirstName, code))
	return nil
}

// Login authenticates a verified local account and replaces every prior
// session with a single fresh one. Wrong-email and wrong-password both
// surface as InvalidCredentials; the distinction only reaches the log.
func (s *AuthService) Login(ctx context.Context, input model.LoginInput) (*model.LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("login rejected: no account for %s", input.Email)
			return nil, apperrors.InvalidCredentials
		}
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to log in")
	}

	if !user.HasPassword() {
		log.Printf("login rejected: oauth-only account %d has no password", user.ID)
		return nil, apperrors.InvalidCredentials
	}
	if err := password.CheckPasswordHash(input.Password, *user.PasswordHash); err != nil {
		log.Printf("login rejected: bad password for user %d", user.ID)
		return nil, apperrors.InvalidCredentials
	}
	if !user.IsVerified {
		return nil, apperrors.EmailNotVerified
	}

	pair, err := s.signer.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to log in")
	}

	expiresAt := time.Now().Add(jwt.RefreshTokenExpiry)
	if err := s.userRepo.ReplaceRefreshTokens(ctx, user.ID, pair.RefreshToken, expiresAt); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to log in")
	}
	if err := s.userRepo.UpdateLoginTime(ctx, user.ID); err != nil {
		log.Printf("failed to update login time for user %d: %v", user.ID, err)
	}

	return &model.LoginResult{
		User:   model.NewPublicUser(user),
		Tokens: pair,
	}, nil
}

// RefreshTokens rotates a live refresh token into a new pair. The
// presented token must verify cryptographically AND still exist in the
// store; a superseded token fails the store check and the whole call.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.RefreshTokenRequired
	}

	claims, err := s.signer.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.InvalidRefreshToken
	}

	stored, err := s.userRepo.FindRefreshTokenByValue(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, apperrors.InvalidRefreshToken
		}
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to refresh session")
	}
	if stored.UserID != claims.UserID || stored.IsExpired() {
		return nil, apperrors.InvalidRefreshToken
	}

	pair, err := s.signer.GenerateTokenPair(claims.UserID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to refresh session")
	}

	expiresAt := time.Now().Add(jwt.RefreshTokenExpiry)
	err = s.userRepo.RotateRefreshToken(ctx, claims.UserID, refreshToken, pair.RefreshToken, expiresAt)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, apperrors.InvalidRefreshToken
		}
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to refresh session")
	}

	return pair, nil
}

// Logout tears down every session the user holds. The caller must
// present the refresh token currently on record; anything else is
// treated as not logged in.
func (s *AuthService) Logout(ctx context.Context, userID int64, refreshToken string) error {
	if refreshToken == "" {
		return apperrors.RefreshTokenRequired
	}

	stored, err := s.userRepo.FindRefreshTokenByValue(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return apperrors.NotLoggedIn
		}
		return apperrors.Wrap(err, apperrors.KindInternal, "Unable to log out")
	}
	if stored.UserID != userID {
		return apperrors.NotLoggedIn
	}

	if err := s.userRepo.DeleteAllRefreshTokens(ctx, userID); err != nil {
		return apperrors.Wrap(err, apperrors.KindInternal, "Unable to log out")
	}
	return nil
}

// ForgotPassword stores a reset code in the dedicated reset slot and
// queues the email.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.UserNotFound
		}
		return apperrors.Wrap(err, apperrors.KindInternal, "Unable to process request")
	}

	code, err := otp.Generate()
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindInternal, "Unable to process request")
	}
	if err := s.userRepo.SetPasswordResetOTP(ctx, user.ID, code, otp.Expiry()); err != nil {
		return apperrors.Wrap(err, apperrors.KindInternal, "Unable to process request")
	}

	s.queueEmail(ctx, user.Email, "Reset your password", mail.PasswordResetEmailBody(user.FirstName, code))
	return nil
}

// ResetPassword consumes a valid reset code, stores the new hash and
// invalidates every existing session.
func (s *AuthService) ResetPassword(ctx context.Context, input model.ResetPasswordInput) error {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.UserNotFound
		}
		return apperrors.Wrap(err, apperrors.KindInternal, "Unable to reset password")
	}

	if user.PasswordResetToken == nil || *user.PasswordResetToken != input.Code {
		return apperrors.OTPCodeNotValid
	}
	if user.PasswordResetExpiresAt == nil || time.Now().After(*user.PasswordResetExpiresAt) {
		return apperrors.OTPCodeExpired
	}

	hashed, err := password.HashPassword(input.NewPassword)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindInternal, "Unable to reset password")
	}
	if err := s.userRepo.ResetPassword(ctx, user.ID, hashed); err != nil {
		return apperrors.Wrap(err, apperrors.KindInternal, "Unable to reset password")
	}
	return nil
}

// HandleGoogleAuth signs a user in from a verified Google profile,
// creating or linking the account as needed. OAuth sessions are additive,
// a Google sign-in never evicts existing sessions.
func (s *AuthService) HandleGoogleAuth(ctx context.Context, profile *model.GoogleProfile) (*model.LoginResult, error) {
	user, err := s.userRepo.GetByEmailOrGoogleID(ctx, profile.Email, profile.ID)
	switch {
	case err == nil:
		if user.GoogleID == nil || *user.GoogleID != profile.ID {
			if err := s.userRepo.LinkGoogleID(ctx, user.ID, profile.ID); err != nil {
				return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to complete sign-in")
			}
			googleID := profile.ID
			user.GoogleID = &googleID
		}
	case errors.Is(err, repository.ErrNotFound):
		user, err = s.userRepo.CreateGoogleUser(ctx, profile.Email, profile.FirstName, profile.LastName, profile.ID)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to complete sign-in")
		}
	default:
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to complete sign-in")
	}

	pair, err := s.signer.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to complete sign-in")
	}

	expiresAt := time.Now().Add(jwt.RefreshTokenExpiry)
	if err := s.userRepo.AddRefreshToken(ctx, user.ID, pair.RefreshToken, expiresAt); err != nil {
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to complete sign-in")
	}
	if err := s.userRepo.UpdateLoginTime(ctx, user.ID); err != nil {
		log.Printf("failed to update login time for user %d: %v", user.ID, err)
	}

	return &model.LoginResult{
		User:   model.NewPublicUser(user),
		Tokens: pair,
	}, nil
}

// CurrentUser loads the sanitized profile for an authenticated request.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*model.PublicUser, error) {
	user, err := s.userRepo.GetByIDWithRoles(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.UserNoLongerExists
		}
		return nil, apperrors.Wrap(err, apperrors.KindInternal, "Unable to load profile")
	}
	return model.NewPublicUser(user), nil
}

func (s *AuthService) queueEmail(ctx context.Context, recipient, subject, body string) string {
	jobID, err := s.dispatcher.Enqueue(ctx, recipient, subject, body)
	if err != nil {
		// Delivery failures must not fail the request that queued them.
		log.Printf("failed to enqueue email for %s: %v", recipient, err)
		return ""
	}
	return jobID
}
