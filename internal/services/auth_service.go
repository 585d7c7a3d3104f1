package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tourbook/tourbook/internal/auth"
	"github.com/tourbook/tourbook/internal/models"
	pkgauth "github.com/tourbook/tourbook/pkg/auth"
	pkglogger "github.com/tourbook/tourbook/pkg/logger"
)

// UserRepository defines the credential-store operations the services need
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByVerificationTokenHash(ctx context.Context, tokenHash string) (*models.User, error)
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateProfile(ctx context.Context, id string, name, email, photo string) (*models.User, error)
	UpdateRole(ctx context.Context, id, role string) (*models.User, error)
	Deactivate(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	SetVerificationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	MarkEmailVerified(ctx context.Context, id string) error
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error
}

// AuthService handles signup, login, email verification and the password
// change/reset flows.
type AuthService struct {
	repo    UserRepository
	tm      *auth.TokenManager
	mailer  Mailer
	baseURL string
	logger  *slog.Logger
}

// NewAuthService creates a new AuthService. baseURL is the public origin
// embedded in emailed verification and reset links.
func NewAuthService(repo UserRepository, tm *auth.TokenManager, mailer Mailer, baseURL string, logger *slog.Logger) *AuthService {
	return &AuthService{
		repo:    repo,
		tm:      tm,
		mailer:  mailer,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Photo         string `json:"photo"`
	Role          string `json:"role"`
	EmailVerified bool   `json:"emailVerified"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

// SignupResponse is the minimal projection returned from signup: no id,
// no token, since the account is not usable until verified.
type SignupResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResult carries a freshly issued bearer token and the user it
// belongs to.
type AuthResult struct {
	Token string
	User  *UserResponse
}

func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Photo:         user.Photo,
		Role:          user.Role,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     user.UpdatedAt.Format(time.RFC3339),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates an unverified account and emails a verification link.
// The verification send is critical: if it fails the new account is
// rolled back so no unverifiable record is left behind. The welcome mail
// is best effort.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*SignupResponse, error) {
	email = normalizeEmail(email)

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error())
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check for existing user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if existing != nil {
		if existing.EmailVerified {
			return nil, models.ErrEmailTaken
		}
		// An unverified account may be superseded by a fresh signup.
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			s.logger.Error("failed to supersede unverified account",
				slog.String("user_id", existing.ID),
				slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		s.logger.Info("superseded unverified account", slog.String("user_id", existing.ID))
	}

	passwordHash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.repo.Create(ctx, &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrEmailTaken
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.sendVerificationEmail(ctx, user); err != nil {
		// Critical send: never leave an unverifiable account behind.
		if delErr := s.repo.Delete(ctx, user.ID); delErr != nil {
			s.logger.Error("failed to roll back user after email failure",
				slog.String("user_id", user.ID),
				slog.Any("error", delErr))
		}
		return nil, models.ErrEmailSendFailed
	}

	if err := s.mailer.Send(ctx, MessageWelcome, user.Email, user.Name, s.baseURL+"/me"); err != nil {
		// Non-critical side effect.
		s.logger.Warn("failed to send welcome email",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
	}

	s.logger.Info("user signed up",
		slog.String("user_id", user.ID),
		slog.String("email", pkglogger.SanitizedEmail(user.Email)))

	return &SignupResponse{Name: user.Name, Email: user.Email}, nil
}

// sendVerificationEmail generates a side-channel token, persists its
// digest and mails the raw value. While an unexpired token is already
// pending, generation is skipped so previously emailed links stay valid.
func (s *AuthService) sendVerificationEmail(ctx context.Context, user *models.User) error {
	if user.PendingVerification(time.Now()) {
		s.logger.Info("verification token still pending, not rotating",
			slog.String("user_id", user.ID))
		return nil
	}

	raw, digest, err := auth.NewSideToken()
	if err != nil {
		s.logger.Error("failed to generate verification token", slog.Any("error", err))
		return err
	}

	expiresAt := time.Now().Add(auth.SideTokenTTL)
	if err := s.repo.SetVerificationToken(ctx, user.ID, digest, expiresAt); err != nil {
		s.logger.Error("failed to store verification token",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return err
	}

	verifyURL := fmt.Sprintf("%s/verifyEmail/%s", s.baseURL, raw)
	if err := s.mailer.Send(ctx, MessageVerification, user.Email, user.Name, verifyURL); err != nil {
		s.logger.Error("failed to send verification email",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return err
	}

	s.logger.Info("verification email sent", slog.String("user_id", user.ID))
	return nil
}

// VerifyEmail redeems a raw verification token. The expired and
// never-matched cases surface as distinct errors for user-facing
// messaging only; both refuse verification.
func (s *AuthService) VerifyEmail(ctx context.Context, rawToken string, autoLogin bool) (*AuthResult, error) {
	if rawToken == "" {
		return nil, models.ErrUnauthorized
	}

	digest := auth.HashSideToken(rawToken)

	user, err := s.repo.GetByVerificationTokenHash(ctx, digest)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to look up verification token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.EmailVerificationExpiresAt == nil || time.Now().After(*user.EmailVerificationExpiresAt) {
		s.logger.Info("verification token expired", slog.String("user_id", user.ID))
		return nil, models.ErrTokenExpired
	}

	if err := s.repo.MarkEmailVerified(ctx, user.ID); err != nil {
		s.logger.Error("failed to mark email verified",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("email verified", slog.String("user_id", user.ID))

	user.EmailVerified = true
	if !autoLogin {
		return &AuthResult{User: userModelToResponse(user)}, nil
	}

	return s.issueToken(user)
}

// ResendVerification re-sends the verification email. Responds
// identically whether or not the address is known, to avoid account
// enumeration; the pending-token guard means an unexpired link is never
// invalidated by a resend.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		s.logger.Error("failed to look up user for resend", slog.Any("error", err))
		return nil
	}

	if user.EmailVerified {
		return nil
	}

	if err := s.sendVerificationEmail(ctx, user); err != nil {
		s.logger.Warn("resend verification failed", slog.String("user_id", user.ID))
	}
	return nil
}

// Login authenticates credentials and issues a bearer token. Unknown
// email and wrong password are indistinguishable to the caller; an
// unverified email is reported distinctly.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: please provide email and password", models.ErrBadRequest)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed: invalid credentials")
		return nil, models.ErrUnauthorized
	}

	if !user.EmailVerified {
		s.logger.Info("login blocked: email not verified", slog.String("user_id", user.ID))
		return nil, models.ErrEmailNotVerified
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return s.issueToken(user)
}

// ForgotPassword generates a reset token and emails the reset link. A
// failed send clears the pending pair so no dangling unusable reset
// state remains.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return models.ErrInternalServer
	}

	// Reset tokens always rotate; each request invalidates the previous link.
	raw, digest, err := auth.NewSideToken()
	if err != nil {
		s.logger.Error("failed to generate reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	expiresAt := time.Now().Add(auth.SideTokenTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, digest, expiresAt); err != nil {
		s.logger.Error("failed to store reset token",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return models.ErrInternalServer
	}

	resetURL := fmt.Sprintf("%s/api/v1/users/resetPassword/%s", s.baseURL, raw)
	if err := s.mailer.Send(ctx, MessagePasswordReset, user.Email, user.Name, resetURL); err != nil {
		if clearErr := s.repo.ClearResetToken(ctx, user.ID); clearErr != nil {
			s.logger.Error("failed to clear reset token after email failure",
				slog.String("user_id", user.ID),
				slog.Any("error", clearErr))
		}
		return models.ErrEmailSendFailed
	}

	s.logger.Info("password reset email sent", slog.String("user_id", user.ID))
	return nil
}

// ResetPassword redeems a raw reset token and sets a new password. The
// redeemed pair is cleared in the same statement that swaps the hash, so
// the raw token can never authenticate again.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, password string) (*AuthResult, error) {
	if rawToken == "" {
		return nil, fmt.Errorf("%w: token is invalid or has expired", models.ErrBadRequest)
	}

	digest := auth.HashSideToken(rawToken)

	user, err := s.repo.GetByResetTokenHash(ctx, digest)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: token is invalid or has expired", models.ErrBadRequest)
		}
		s.logger.Error("failed to look up reset token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.PasswordResetExpiresAt == nil || time.Now().After(*user.PasswordResetExpiresAt) {
		return nil, fmt.Errorf("%w: token is invalid or has expired", models.ErrBadRequest)
	}

	if err := s.setPassword(ctx, user, password); err != nil {
		return nil, err
	}

	s.logger.Info("password reset", slog.String("user_id", user.ID))
	return s.issueToken(user)
}

// UpdatePassword changes the password of an authenticated user after
// verifying the current one, then reissues a bearer token.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) (*AuthResult, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return nil, models.ErrWrongPassword
	}

	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return nil, err
	}

	s.logger.Info("password updated", slog.String("user_id", user.ID))
	return s.issueToken(user)
}

// setPassword hashes and persists a new password. The change timestamp
// is backdated one second so the token issued in the same request is not
// itself considered stale.
func (s *AuthService) setPassword(ctx context.Context, user *models.User, password string) error {
	if err := pkgauth.ValidatePassword(password); err != nil {
		return fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error())
	}

	passwordHash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	changedAt := time.Now().Add(-time.Second)
	if err := s.repo.UpdatePassword(ctx, user.ID, passwordHash, changedAt); err != nil {
		s.logger.Error("failed to update password",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return models.ErrInternalServer
	}

	user.PasswordHash = passwordHash
	user.PasswordChangedAt = &changedAt
	return nil
}

func (s *AuthService) issueToken(user *models.User) (*AuthResult, error) {
	token, err := s.tm.Sign(user.ID)
	if err != nil {
		s.logger.Error("failed to sign token",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &AuthResult{
		Token: token,
		User:  userModelToResponse(user),
	}, nil
}
