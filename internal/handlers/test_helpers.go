package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/tourbook/tourbook/internal/auth"
	"github.com/tourbook/tourbook/internal/models"
	"github.com/tourbook/tourbook/internal/services"
	pkghttp "github.com/tourbook/tourbook/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithUserContext adds a resolved user to the request context for
// testing authenticated endpoints.
func WithUserContext(req *http.Request, user *models.User) *http.Request {
	ctx := context.WithValue(req.Context(), auth.UserContextKey, user)
	return req.WithContext(ctx)
}

// WithURLParam attaches a chi route parameter to the request context.
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertEnvelope checks status code, decodes the response envelope and
// verifies its status field matches the HTTP class.
func AssertEnvelope(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int) pkghttp.Envelope {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var env pkghttp.Envelope
	err := json.Unmarshal(w.Body.Bytes(), &env)
	assert.NoError(t, err, "Failed to decode response envelope")

	switch {
	case expectedStatus < 400:
		assert.Equal(t, "success", env.Status)
	case expectedStatus < 500:
		assert.Equal(t, "fail", env.Status)
	default:
		assert.Equal(t, "error", env.Status)
	}
	return env
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	SignupFunc             func(ctx context.Context, name, email, password string) (*services.SignupResponse, error)
	VerifyEmailFunc        func(ctx context.Context, rawToken string, autoLogin bool) (*services.AuthResult, error)
	ResendVerificationFunc func(ctx context.Context, email string) error
	LoginFunc              func(ctx context.Context, email, password string) (*services.AuthResult, error)
	ForgotPasswordFunc     func(ctx context.Context, email string) error
	ResetPasswordFunc      func(ctx context.Context, rawToken, password string) (*services.AuthResult, error)
	UpdatePasswordFunc     func(ctx context.Context, userID, currentPassword, newPassword string) (*services.AuthResult, error)
}

func (m *MockAuthService) Signup(ctx context.Context, name, email, password string) (*services.SignupResponse, error) {
	if m.SignupFunc != nil {
		return m.SignupFunc(ctx, name, email, password)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, rawToken string, autoLogin bool) (*services.AuthResult, error) {
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(ctx, rawToken, autoLogin)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) ResendVerification(ctx context.Context, email string) error {
	if m.ResendVerificationFunc != nil {
		return m.ResendVerificationFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) error {
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email)
	}
	return models.ErrNotFound
}

func (m *MockAuthService) ResetPassword(ctx context.Context, rawToken, password string) (*services.AuthResult, error) {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, rawToken, password)
	}
	return nil, models.ErrBadRequest
}

func (m *MockAuthService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) (*services.AuthResult, error) {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, userID, currentPassword, newPassword)
	}
	return nil, models.ErrInternalServer
}

// MockUserService implements UserServiceInterface for testing
type MockUserService struct {
	GetFunc           func(ctx context.Context, id string) (*services.UserResponse, error)
	ListFunc          func(ctx context.Context, limit, offset int) ([]*services.UserResponse, error)
	UpdateProfileFunc func(ctx context.Context, id, name, email string) (*services.UserResponse, error)
	DeactivateFunc    func(ctx context.Context, id string) error
	UpdateRoleFunc    func(ctx context.Context, id, role string) (*services.UserResponse, error)
	DeleteFunc        func(ctx context.Context, id string) error
}

func (m *MockUserService) Get(ctx context.Context, id string) (*services.UserResponse, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserService) List(ctx context.Context, limit, offset int) ([]*services.UserResponse, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*services.UserResponse{}, nil
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id, name, email string) (*services.UserResponse, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, name, email)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserService) Deactivate(ctx context.Context, id string) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id)
	}
	return nil
}

func (m *MockUserService) UpdateRole(ctx context.Context, id, role string) (*services.UserResponse, error) {
	if m.UpdateRoleFunc != nil {
		return m.UpdateRoleFunc(ctx, id, role)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}
