package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func runSecurityHeaders(env string, modify func(*http.Request)) *httptest.ResponseRecorder {
	handler := SecurityHeaders(SecurityHeadersConfig{Env: env})

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	if modify != nil {
		modify(req)
	}
	w := httptest.NewRecorder()

	handler(testHandler).ServeHTTP(w, req)
	return w
}

func TestSecurityHeaders_BaselineHeaders(t *testing.T) {
	w := runSecurityHeaders("development", nil)

	tests := []struct {
		header   string
		expected string
	}{
		{"X-Frame-Options", "DENY"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"Cross-Origin-Opener-Policy", "same-origin"},
	}

	for _, tt := range tests {
		if got := w.Header().Get(tt.header); got != tt.expected {
			t.Errorf("Header %s: got %q, want %q", tt.header, got, tt.expected)
		}
	}

	if csp := w.Header().Get("Content-Security-Policy"); csp == "" {
		t.Error("Content-Security-Policy header missing")
	}
}

func TestSecurityHeaders_HSTSOnlyOnForwardedTLSInProduction(t *testing.T) {
	w := runSecurityHeaders("production", nil)
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be set on plain HTTP")
	}

	w = runSecurityHeaders("production", func(r *http.Request) {
		r.Header.Set("X-Forwarded-Proto", "https")
	})
	if w.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS missing on forwarded TLS in production")
	}

	w = runSecurityHeaders("development", func(r *http.Request) {
		r.Header.Set("X-Forwarded-Proto", "https")
	})
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be set in development")
	}
}
