package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv() {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("EMAIL_FROM", "noreply@tourbook.test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv()
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"TokenExpiry", cfg.Auth.TokenExpiry, 90 * 24 * time.Hour},
		{"CleanupInterval", cfg.Auth.CleanupInterval, 1 * time.Hour},
		{"EmailSendTimeout", cfg.Email.SendTimeout, 15 * time.Second},
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	if cfg.Auth.CookieExpiryDays != 90 {
		t.Errorf("CookieExpiryDays: got %d, want 90", cfg.Auth.CookieExpiryDays)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv()
	os.Setenv("JWT_EXPIRES_IN", "720h")
	os.Setenv("JWT_COOKIE_EXPIRES_IN", "30")
	os.Setenv("EMAIL_SEND_TIMEOUT", "5s")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.TokenExpiry != 720*time.Hour {
		t.Errorf("TokenExpiry: got %v, want 720h", cfg.Auth.TokenExpiry)
	}
	if cfg.Auth.CookieExpiryDays != 30 {
		t.Errorf("CookieExpiryDays: got %d, want 30", cfg.Auth.CookieExpiryDays)
	}
	if cfg.Email.SendTimeout != 5*time.Second {
		t.Errorf("SendTimeout: got %v, want 5s", cfg.Email.SendTimeout)
	}
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	setRequiredEnv()
	os.Setenv("JWT_EXPIRES_IN", "not-a-duration")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.TokenExpiry != 90*24*time.Hour {
		t.Errorf("TokenExpiry with invalid value: got %v, want %v", cfg.Auth.TokenExpiry, 90*24*time.Hour)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("EMAIL_FROM", "noreply@tourbook.test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() without JWT_SECRET should fail")
	}
}

func TestLoad_WeakJWTSecretRejected(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "short")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("EMAIL_FROM", "noreply@tourbook.test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() with short JWT_SECRET should fail")
	}
}

func TestValidateJWTSecret_ProductionRequiresLongerSecret(t *testing.T) {
	secret := "exactly-sixteen!" // 16 chars: fine for dev, too short for prod

	if err := validateJWTSecret(secret, "development"); err != nil {
		t.Errorf("development: got %v, want nil", err)
	}
	if err := validateJWTSecret(secret, "production"); err == nil {
		t.Error("production: want error for 16-char secret")
	}
}
