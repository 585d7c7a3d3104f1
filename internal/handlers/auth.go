package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tourbook/tourbook/internal/auth"
	"github.com/tourbook/tourbook/internal/models"
	"github.com/tourbook/tourbook/internal/services"
	pkghttp "github.com/tourbook/tourbook/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Signup(ctx context.Context, name, email, password string) (*services.SignupResponse, error)
	VerifyEmail(ctx context.Context, rawToken string, autoLogin bool) (*services.AuthResult, error)
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken, password string) (*services.AuthResult, error)
	UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) (*services.AuthResult, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service          AuthServiceInterface
	cookieExpiryDays int
}

// NewAuthHandler creates a new AuthHandler. cookieExpiryDays controls
// the lifetime of the session cookie set alongside issued tokens.
func NewAuthHandler(service AuthServiceInterface, cookieExpiryDays int) *AuthHandler {
	return &AuthHandler{
		service:          service,
		cookieExpiryDays: cookieExpiryDays,
	}
}

// Request DTOs

// SignupRequest represents the request body for signup
type SignupRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResendVerificationRequest represents the request body for resending
// the verification email
type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPasswordRequest represents the request body for forgotPassword
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents the request body for resetPassword
type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// UpdatePasswordRequest represents the request body for updateMyPassword
type UpdatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// Signup creates an unverified account and triggers the verification
// email. No token is issued; the account is unusable until verified.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEmailTaken):
			pkghttp.WriteConflict(w, "Email address already in use")
		case errors.Is(err, models.ErrEmailSendFailed):
			pkghttp.WriteInternalError(w, "There was an error sending the email. Try again later!")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteSuccessWithMessage(w, http.StatusCreated,
		"Account created. Please check your email to verify your address.",
		map[string]interface{}{"user": resp})
}

// VerifyEmail redeems the emailed verification token. With
// ?autoLogin=true a bearer token is issued and the session cookie set.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	rawToken := chi.URLParam(r, "token")
	autoLogin := r.URL.Query().Get("autoLogin") == "true"

	result, err := h.service.VerifyEmail(r.Context(), rawToken, autoLogin)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTokenExpired):
			pkghttp.WriteUnauthorized(w, "Verification link has expired. Please request a new one.")
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Verification link is invalid")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	if autoLogin {
		auth.SetSessionCookie(w, r, result.Token, h.cookieExpiryDays)
		pkghttp.WriteToken(w, http.StatusOK, result.Token,
			map[string]interface{}{"user": result.User})
		return
	}

	pkghttp.WriteSuccessMessage(w, http.StatusOK, "Email verified. You can now log in.")
}

// ResendVerification responds identically whether or not the address is
// known, to avoid account enumeration.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ResendVerificationRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	_ = h.service.ResendVerification(r.Context(), req.Email)

	pkghttp.WriteSuccessMessage(w, http.StatusOK,
		"If an unverified account exists for that address, a verification email has been sent.")
}

// Login authenticates credentials, issues a bearer token and sets the
// session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		pkghttp.WriteBadRequest(w, "Please provide email and password!")
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEmailNotVerified):
			pkghttp.WriteUnauthorized(w, "Please verify your email address before logging in")
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Incorrect email or password")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Please provide email and password!")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.SetSessionCookie(w, r, result.Token, h.cookieExpiryDays)
	pkghttp.WriteToken(w, http.StatusOK, result.Token,
		map[string]interface{}{"user": result.User})
}

// Logout overwrites the session cookie. Bearer tokens are stateless, so
// there is nothing to revoke server-side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	pkghttp.WriteSuccessMessage(w, http.StatusOK, "Logged out")
}

// ForgotPassword emails a password reset link.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "There is no user with email address.")
		case errors.Is(err, models.ErrEmailSendFailed):
			pkghttp.WriteInternalError(w, "There was an error sending the email. Try again later!")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteSuccessMessage(w, http.StatusOK, "Token sent to email!")
}

// ResetPassword redeems the emailed reset token, sets the new password
// and logs the user straight in.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Token is invalid or has expired")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.SetSessionCookie(w, r, result.Token, h.cookieExpiryDays)
	pkghttp.WriteToken(w, http.StatusOK, result.Token,
		map[string]interface{}{"user": result.User})
}

// UpdatePassword changes the authenticated user's password and reissues
// the bearer token and session cookie.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "You are not logged in! Please log in to get access.")
		return
	}

	var req UpdatePasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.UpdatePassword(r.Context(), user.ID, req.PasswordCurrent, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrWrongPassword):
			pkghttp.WriteUnauthorized(w, "Your current password is wrong.")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "You are not logged in! Please log in to get access.")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.SetSessionCookie(w, r, result.Token, h.cookieExpiryDays)
	pkghttp.WriteToken(w, http.StatusOK, result.Token,
		map[string]interface{}{"user": result.User})
}
