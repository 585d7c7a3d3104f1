package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tourbook/tourbook/internal/handlers"
	"github.com/tourbook/tourbook/internal/models"
	"github.com/tourbook/tourbook/internal/services"
)

func testAuthResult(userID string) *services.AuthResult {
	return &services.AuthResult{
		Token: "signed.jwt.token",
		User:  &services.UserResponse{ID: userID, Email: "alice@x.com", Role: models.RoleUser},
	}
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "jwt" {
			return c
		}
	}
	return nil
}

func TestSignup_Success(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		SignupFunc: func(ctx context.Context, name, email, password string) (*services.SignupResponse, error) {
			return &services.SignupResponse{Name: name, Email: email}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, 90)
	req := handlers.NewTestRequest(t, "POST", "/api/v1/users/signup", handlers.SignupRequest{
		Name:            "Alice",
		Email:           "alice@x.com",
		Password:        "pass1234",
		PasswordConfirm: "pass1234",
	})

	w := httptest.NewRecorder()
	handler.Signup(w, req)

	env := handlers.AssertEnvelope(t, w, http.StatusCreated)
	assert.Empty(t, env.Token, "signup never issues a token")
	assert.Nil(t, sessionCookie(t, w), "signup never sets a session cookie")
}

func TestSignup_PasswordConfirmMismatch(t *testing.T) {
	called := false
	mockAuth := &handlers.MockAuthService{
		SignupFunc: func(ctx context.Context, name, email, password string) (*services.SignupResponse, error) {
			called = true
			return nil, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, 90)
	req := handlers.NewTestRequest(t, "POST", "/api/v1/users/signup", handlers.SignupRequest{
		Name:            "Alice",
		Email:           "alice@x.com",
		Password:        "pass1234",
		PasswordConfirm: "different",
	})

	w := httptest.NewRecorder()
	handler.Signup(w, req)

	env := handlers.AssertEnvelope(t, w, http.StatusBadRequest)
	assert.Contains(t, env.Message, "passwords do not match")
	assert.False(t, called, "mismatched confirmation must not reach the service")
}

func TestSignup_EmailTaken(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		SignupFunc: func(ctx context.Context, name, email, password string) (*services.SignupResponse, error) {
			return nil, models.ErrEmailTaken
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, 90)
	req := handlers.NewTestRequest(t, "POST", "/api/v1/users/signup", handlers.SignupRequest{
		Name:            "Alice",
		Email:           "alice@x.com",
		Password:        "pass1234",
		PasswordConfirm: "pass1234",
	})

	w := httptest.NewRecorder()
	handler.Signup(w, req)

	handlers.AssertEnvelope(t, w, http.StatusConflict)
}

func TestSignup_EmailSendFailure(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		SignupFunc: func(ctx context.Context, name, email, password string) (*services.SignupResponse, error) {
			return nil, models.ErrEmailSendFailed
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, 90)
	req := handlers.NewTestRequest(t, "POST", "/api/v1/users/signup", handlers.SignupRequest{
		Name:            "Alice",
		Email:           "alice@x.com",
		Password:        "pass1234",
		PasswordConfirm: "pass1234",
	})

	w := httptest.NewRecorder()
	handler.Signup(w, req)

	env := handlers.AssertEnvelope(t, w, http.StatusInternalServerError)
	assert.Contains(t, env.Message, "error sending the email")
}

func TestLogin_SuccessSetsCookie(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResult, error) {
			return testAuthResult("user-1"), nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, 90)
	req := handlers.NewTestRequest(t, "POST", "/api/v1/users/login", handlers.LoginRequest{
		Email:    "alice@x.com",
		Password: "pass1234",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	env := handlers.AssertEnvelope(t, w, http.StatusOK)
	assert.Equal(t, "signed.jwt.token", env.Token)

	cookie := sessionCookie(t, w)
	require.NotNil(t, cookie)
	assert.Equal(t, "signed.jwt.token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure, "plain-HTTP test request must not set Secure")
}

func TestLogin_MissingCredentials(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{}, 90)
	req := handlers.NewTestRequest(t, "POST", "/api/v1/users/login", handlers.LoginRequest{
		Email: "alice@x.com",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	env := handlers.AssertEnvelope(t, w, http.StatusBadRequest)
	assert.Equal(t, "Please provide email and password!", env.Message)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResult, error) {
			return nil, models.ErrUnauthorized
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, 90)
	req := handlers.NewTestRequest(t, "POST", "/api/v1/users/login", handlers.LoginRequest{
		Email:    "alice@x.com",
		Password: "wrong",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	env := handlers.AssertEnvelope(t, w, http.StatusUnauthorized)
	assert.Equal(t, "Incorrect email or password", env.Message)
	assert.Nil(t, sessionCookie(t, w))
}

func TestLogin_UnverifiedEmailDistinctMessage(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.AuthResult, error) {
			return nil, models.ErrEmailNotVerified
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, 90)
	req := handlers.NewTestRequest(t, "POST", "/api/v1/users/login", handlers.LoginRequest{
		Email:    "alice@x.com",
		Password: "pass1234",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	env := handlers.AssertEnvelope(t, w, http.StatusUnauthorized)
	assert.Contains(t, env.Message, "verify your email")
}

func TestLogout_OverwritesCookie(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{}, 90)
	req := handlers.NewTestRequest(t, "GET", "/api/v1/users/logout", nil)

	w := httptest.NewRecorder()
	handler.Logout(w, req)

	handlers.AssertEnvelope(t, w, http.StatusOK)

	cookie := sessionCookie(t, w)
	require.NotNil(t, cookie)
	assert.Equal(t, "loggedOut", cookie.Value)
}

func TestVerifyEmail_Success(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		VerifyEmailFunc: func(ctx context.Context, rawToken string, autoLogin bool) (*services.AuthResult, error) {
			assert.Equal(t, "rawtoken123", rawToken)
			assert.False(t, autoLogin)
			return &services.AuthResult{User: &services.UserResponse{ID: "user-1"}}, nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, 90)
	req := handlers.NewTestRequest(t, "GET", "/api/v1/users/verifyEmail/rawtoken123", nil)
	req = handlers.WithURLParam(req, "token", "rawtoken123")

	w := httptest.NewRecorder()
	handler.VerifyEmail(w, req)

	env := handlers.AssertEnvelope(t, w, http.StatusOK)
	assert.Empty(t, env.Token)
	assert.Nil(t, sessionCookie(t, w))
}

func TestVerifyEmail_AutoLoginSetsCookie(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		VerifyEmailFunc: func(ctx context.Context, rawToken string, autoLogin bool) (*services.AuthResult, error) {
			assert.True(t, autoLogin)
			return testAuthResult("user-1"), nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, 90)
	req := handlers.NewTestRequest(t, "GET", "/api/v1/users/verifyEmail/rawtoken123?autoLogin=true", nil)
	req = handlers.WithURLParam(req, "token", "rawtoken123")

	w := httptest.NewRecorder()
	handler.VerifyEmail(w, req)

	env := handlers.AssertEnvelope(t, w, http.StatusOK)
	assert.Equal(t, "signed.jwt.token", env.Token)
	require.NotNil(t, sessionCookie(t, w))
}

func TestVerifyEmail_ExpiredToken(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		VerifyEmailFunc: func(ctx context.Context, rawToken string, autoLogin bool) (*services.AuthResult, error) {
			return nil, models.ErrTokenExpired
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, 90)
	req := handlers.NewTestRequest(t, "GET", "/api/v1/users/verifyEmail/stale", nil)
	req = handlers.WithURLParam(req, "token", "stale")

	w := httptest.NewRecorder()
	handler.VerifyEmail(w, req)

	env := handlers.AssertEnvelope(t, w, http.StatusUnauthorized)
	assert.Contains(t, env.Message, "expired")
}

func TestResendVerification_AlwaysSucceeds(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{}, 90)
	req := handlers.NewTestRequest(t, "POST", "/api/v1/users/resendVerification",
		handlers.ResendVerificationRequest{Email: "nobody@x.com"})

	w := httptest.NewRecorder()
	handler.ResendVerification(w, req)

	handlers.AssertEnvelope(t, w, http.StatusOK)
}

func TestForgotPassword_Success(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		ForgotPasswordFunc: func(ctx context.Context, email string) error {
			return nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, 90)
	req := handlers.NewTestRequest(t, "POST", "/api/v1/users/forgotPassword",
		handlers.ForgotPasswordRequest{Email: "alice@x.com"})

	w := httptest.NewRecorder()
	handler.ForgotPassword(w, req)

	env := handlers.AssertEnvelope(t, w, http.StatusOK)
	assert.Equal(t, "Token sent to email!", env.Message)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{}, 90)
	req := handlers.NewTestRequest(t, "POST", "/api/v1/users/forgotPassword",
		handlers.ForgotPasswordRequest{Email: "nobody@x.com"})

	w := httptest.NewRecorder()
	handler.ForgotPassword(w, req)

	handlers.AssertEnvelope(t, w, http.StatusNotFound)
}

func TestResetPassword_SuccessLogsIn(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		ResetPasswordFunc: func(ctx context.Context, rawToken, password string) (*services.AuthResult, error) {
			assert.Equal(t, "rawtoken123", rawToken)
			return testAuthResult("user-1"), nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, 90)
	req := handlers.NewTestRequest(t, "PATCH", "/api/v1/users/resetPassword/rawtoken123",
		handlers.ResetPasswordRequest{Password: "newpass99", PasswordConfirm: "newpass99"})
	req = handlers.WithURLParam(req, "token", "rawtoken123")

	w := httptest.NewRecorder()
	handler.ResetPassword(w, req)

	env := handlers.AssertEnvelope(t, w, http.StatusOK)
	assert.Equal(t, "signed.jwt.token", env.Token)
	require.NotNil(t, sessionCookie(t, w))
}

func TestResetPassword_InvalidToken(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{}, 90)
	req := handlers.NewTestRequest(t, "PATCH", "/api/v1/users/resetPassword/bogus",
		handlers.ResetPasswordRequest{Password: "newpass99", PasswordConfirm: "newpass99"})
	req = handlers.WithURLParam(req, "token", "bogus")

	w := httptest.NewRecorder()
	handler.ResetPassword(w, req)

	env := handlers.AssertEnvelope(t, w, http.StatusBadRequest)
	assert.Equal(t, "Token is invalid or has expired", env.Message)
}

func TestUpdatePassword_WrongCurrent(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		UpdatePasswordFunc: func(ctx context.Context, userID, currentPassword, newPassword string) (*services.AuthResult, error) {
			return nil, models.ErrWrongPassword
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, 90)
	req := handlers.NewTestRequest(t, "PATCH", "/api/v1/users/updateMyPassword",
		handlers.UpdatePasswordRequest{
			PasswordCurrent: "wrong",
			Password:        "newpass99",
			PasswordConfirm: "newpass99",
		})
	req = handlers.WithUserContext(req, &models.User{ID: "user-1", Role: models.RoleUser})

	w := httptest.NewRecorder()
	handler.UpdatePassword(w, req)

	env := handlers.AssertEnvelope(t, w, http.StatusUnauthorized)
	assert.Equal(t, "Your current password is wrong.", env.Message)
}

func TestUpdatePassword_SuccessReissuesCookie(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		UpdatePasswordFunc: func(ctx context.Context, userID, currentPassword, newPassword string) (*services.AuthResult, error) {
			assert.Equal(t, "user-1", userID)
			return testAuthResult("user-1"), nil
		},
	}

	handler := handlers.NewAuthHandler(mockAuth, 90)
	req := handlers.NewTestRequest(t, "PATCH", "/api/v1/users/updateMyPassword",
		handlers.UpdatePasswordRequest{
			PasswordCurrent: "pass1234",
			Password:        "newpass99",
			PasswordConfirm: "newpass99",
		})
	req = handlers.WithUserContext(req, &models.User{ID: "user-1", Role: models.RoleUser})

	w := httptest.NewRecorder()
	handler.UpdatePassword(w, req)

	env := handlers.AssertEnvelope(t, w, http.StatusOK)
	assert.Equal(t, "signed.jwt.token", env.Token)
	require.NotNil(t, sessionCookie(t, w))
}

func TestUpdatePassword_Unauthenticated(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockAuthService{}, 90)
	req := handlers.NewTestRequest(t, "PATCH", "/api/v1/users/updateMyPassword",
		handlers.UpdatePasswordRequest{
			PasswordCurrent: "pass1234",
			Password:        "newpass99",
			PasswordConfirm: "newpass99",
		})

	w := httptest.NewRecorder()
	handler.UpdatePassword(w, req)

	handlers.AssertEnvelope(t, w, http.StatusUnauthorized)
}
