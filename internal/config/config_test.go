package config

import (
	"os"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	os.Setenv("DATABASE_URL", "postgres://localhost:5432/swasthya_test")
	os.Setenv("ACCESS_TOKEN_SECRET", "access-secret-for-tests-0123456789ab")
	os.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret-for-tests-0123456789a")
	t.Cleanup(func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("ACCESS_TOKEN_SECRET")
		os.Unsetenv("REFRESH_TOKEN_SECRET")
		os.Unsetenv("ENV")
		os.Unsetenv("ACCESS_TOKEN_TTL")
		os.Unsetenv("REFRESH_TOKEN_TTL")
	})
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if !cfg.IsDev() {
		t.Error("expected default env to be development")
	}
	if cfg.AccessTokenTTL != "720h" {
		t.Errorf("expected default access TTL 720h, got %s", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != "2160h" {
		t.Errorf("expected default refresh TTL 2160h, got %s", cfg.RefreshTokenTTL)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
}

func TestValidate_SecretsRequired(t *testing.T) {
	setBaseEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.AccessSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing access secret")
	}

	cfg.AccessSecret = "same"
	cfg.RefreshSecret = "same"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for identical secrets")
	}
}

func TestValidate_ProductionSecretLength(t *testing.T) {
	setBaseEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Env = "production"
	cfg.AccessSecret = "short"
	cfg.RefreshSecret = "also-short"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for short secrets in production")
	}
}

func TestValidate_TTLParsing(t *testing.T) {
	setBaseEnv(t)
	os.Setenv("ACCESS_TOKEN_TTL", "15m")
	os.Setenv("REFRESH_TOKEN_TTL", "48h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}

	ttl, err := cfg.AccessTTL()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl != 15*time.Minute {
		t.Errorf("expected 15m, got %v", ttl)
	}

	cfg.AccessTokenTTL = "not-a-duration"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid TTL")
	}
}

func TestValidate_TLSFilesRequired(t *testing.T) {
	setBaseEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.TLSEnabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when TLS enabled without cert/key files")
	}
}
