package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tourbook/tourbook/internal/auth"
	"github.com/tourbook/tourbook/internal/config"
	"github.com/tourbook/tourbook/internal/database"
	"github.com/tourbook/tourbook/internal/handlers"
	middlewareCustom "github.com/tourbook/tourbook/internal/middleware"
	"github.com/tourbook/tourbook/internal/repositories"
	"github.com/tourbook/tourbook/internal/routes"
	"github.com/tourbook/tourbook/internal/services"
	pkghttp "github.com/tourbook/tourbook/pkg/http"
)

const testBaseURL = "http://localhost:3000"

// TestServer wraps httptest.Server with database and all dependencies
type TestServer struct {
	Server   *httptest.Server
	DB       *database.DB
	Mailer   *services.MockMailer
	UserRepo *repositories.UserRepository
	Config   *config.Config
}

// NewTestServer initializes a complete HTTP server with real database + mocked email
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:        "test-secret-32-characters-long-for-testing",
			TokenExpiry:      time.Hour,
			CookieExpiryDays: 1,
			CleanupInterval:  time.Hour,
		},
		Email: config.EmailConfig{
			FromAddress: "noreply@test.local",
			BaseURL:     testBaseURL,
			SendTimeout: 5 * time.Second,
		},
		Server: config.ServerConfig{
			Port: "0",
			Env:  "test",
		},
	}

	userRepo := repositories.NewUserRepository(db)
	mailer := &services.MockMailer{}

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)

	authService := services.NewAuthService(userRepo, tokenManager, mailer, cfg.Email.BaseURL, logger)
	userService := services.NewUserService(userRepo, logger)

	authHandler := handlers.NewAuthHandler(authService, cfg.Auth.CookieExpiryDays)
	userHandler := handlers.NewUserHandler(userService)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(r, authHandler, userHandler, tokenManager, userRepo)

	server := httptest.NewServer(r)

	return &TestServer{
		Server:   server,
		DB:       db,
		Mailer:   mailer,
		UserRepo: userRepo,
		Config:   cfg,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	url := ts.Server.URL + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with bearer token
func (ts *TestServer) RequestWithAuth(method, path, token string, body interface{}) (*http.Response, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + token,
	}
	return ts.Request(method, path, body, headers)
}

// ParseEnvelope parses a response body into the standard envelope
func ParseEnvelope(resp *http.Response) (pkghttp.Envelope, error) {
	defer resp.Body.Close()
	var env pkghttp.Envelope
	err := json.NewDecoder(resp.Body).Decode(&env)
	return env, err
}
