package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.Addr)
	}
	if cfg.DatabaseDriver != "pgx" {
		t.Fatalf("unexpected driver: %s", cfg.DatabaseDriver)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected token ttl: %v", cfg.TokenTTL)
	}
}

func TestLoadEnvOverlay(t *testing.T) {
	t.Setenv("STOREOPS_ADDR", ":9090")
	t.Setenv("STOREOPS_DB_DRIVER", "sqlite3")
	t.Setenv("STOREOPS_DB_DSN", "file:ops.db")
	t.Setenv("STOREOPS_AUTH_SECRET", "s3cret")
	t.Setenv("STOREOPS_TOKEN_TTL", "1h")
	t.Setenv("STOREOPS_CORS_ORIGINS", "http://localhost:3000, https://ops.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("unexpected addr: %s", cfg.Addr)
	}
	if cfg.DatabaseDriver != "sqlite3" || cfg.DatabaseDSN != "file:ops.db" {
		t.Fatalf("unexpected database settings: %s %s", cfg.DatabaseDriver, cfg.DatabaseDSN)
	}
	if cfg.TokenTTL != time.Hour {
		t.Fatalf("unexpected token ttl: %v", cfg.TokenTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://ops.example.com" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsMissingSecret(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing auth secret")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("STOREOPS_TOKEN_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed duration")
	}
}
