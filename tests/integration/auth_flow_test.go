package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tourbook/tourbook/internal/services"
)

// TestAuthFlow exercises the full account lifecycle against a real
// Postgres instance: signup, verification, login and password change.
func TestAuthFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	testDB, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer testDB.Teardown(ctx)

	ts := NewTestServer(testDB.DB)
	defer ts.Close()

	email, password := TestAccount("flow")

	// Signup creates an unverified account and captures a verification email.
	resp, err := ts.Request("POST", "/api/v1/users/signup", map[string]string{
		"name":            "Flow Tester",
		"email":           email,
		"password":        password,
		"passwordConfirm": password,
	}, nil)
	require.NoError(t, err)
	env, err := ParseEnvelope(resp)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "signup failed: %s", env.Message)
	assert.Empty(t, env.Token)

	verification := LastMessageOfKind(ts.Mailer, services.MessageVerification)
	require.NotNil(t, verification, "no verification email captured")
	rawToken := ExtractTokenFromURL(verification.URL)
	require.NotEmpty(t, rawToken)

	// Login before verification is refused.
	resp, err = ts.Request("POST", "/api/v1/users/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	require.NoError(t, err)
	env, err = ParseEnvelope(resp)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, env.Message, "verify your email")

	// Verify the email via the emailed token.
	resp, err = ts.Request("GET", "/api/v1/users/verifyEmail/"+rawToken, nil, nil)
	require.NoError(t, err)
	env, err = ParseEnvelope(resp)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, "verification failed: %s", env.Message)

	// The token is single use.
	resp, err = ts.Request("GET", "/api/v1/users/verifyEmail/"+rawToken, nil, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Login now succeeds and yields a bearer token.
	resp, err = ts.Request("POST", "/api/v1/users/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	require.NoError(t, err)
	env, err = ParseEnvelope(resp)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, env.Token)
	token := env.Token

	// The token authenticates profile access.
	resp, err = ts.RequestWithAuth("GET", "/api/v1/users/me", token, nil)
	require.NoError(t, err)
	env, err = ParseEnvelope(resp)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Changing the password invalidates the old token and issues a new
	// one. Issue and change times are compared at second granularity, so
	// put the change in a later second than the login.
	time.Sleep(2 * time.Second)

	newPassword := "EvenBetterPass456!"
	resp, err = ts.RequestWithAuth("PATCH", "/api/v1/users/updateMyPassword", token, map[string]string{
		"passwordCurrent": password,
		"password":        newPassword,
		"passwordConfirm": newPassword,
	})
	require.NoError(t, err)
	env, err = ParseEnvelope(resp)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, "password change failed: %s", env.Message)
	require.NotEmpty(t, env.Token)
	newToken := env.Token

	resp, err = ts.RequestWithAuth("GET", "/api/v1/users/me", token, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "stale token must be rejected")

	resp, err = ts.RequestWithAuth("GET", "/api/v1/users/me", newToken, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestPasswordResetFlow exercises forgotPassword and resetPassword.
func TestPasswordResetFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	testDB, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer testDB.Teardown(ctx)

	ts := NewTestServer(testDB.DB)
	defer ts.Close()

	email, password := TestAccount("reset")
	_, err = SeedUser(ctx, ts.UserRepo, email, password, true)
	require.NoError(t, err)

	resp, err := ts.Request("POST", "/api/v1/users/forgotPassword", map[string]string{
		"email": email,
	}, nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reset := LastMessageOfKind(ts.Mailer, services.MessagePasswordReset)
	require.NotNil(t, reset, "no reset email captured")
	rawToken := ExtractTokenFromURL(reset.URL)
	require.NotEmpty(t, rawToken)

	newPassword := "FreshPassword789!"
	resp, err = ts.Request("PATCH", "/api/v1/users/resetPassword/"+rawToken, map[string]string{
		"password":        newPassword,
		"passwordConfirm": newPassword,
	}, nil)
	require.NoError(t, err)
	env, err := ParseEnvelope(resp)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, "reset failed: %s", env.Message)
	assert.NotEmpty(t, env.Token, "reset logs the user in")

	// The redeemed token cannot be used again.
	resp, err = ts.Request("PATCH", "/api/v1/users/resetPassword/"+rawToken, map[string]string{
		"password":        "AnotherPass000!",
		"passwordConfirm": "AnotherPass000!",
	}, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Old password no longer works; the new one does.
	resp, err = ts.Request("POST", "/api/v1/users/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = ts.Request("POST", "/api/v1/users/login", map[string]string{
		"email":    email,
		"password": newPassword,
	}, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
