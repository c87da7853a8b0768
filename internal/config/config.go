// Package config builds the runtime configuration for the storeops server.
// All process-wide settings (bind address, database DSN, signing secret) are
// resolved once at startup and passed by value into the components that need
// them; nothing reads the environment after this point.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "STOREOPS_"

// Config holds runtime settings for the storeops API server.
type Config struct {
	// Addr is the HTTP bind address.
	Addr string
	// DatabaseDriver selects the SQL driver: "pgx" or "sqlite3".
	DatabaseDriver string
	// DatabaseDSN is the database connection string. Empty selects the
	// in-memory store (development and tests only).
	DatabaseDSN string
	// AuthSecret signs identity tokens (HS256).
	AuthSecret string
	// TokenTTL is the identity token lifetime.
	TokenTTL time.Duration
	// RateBurst and RatePerSec configure the per-IP request limiter.
	RateBurst  int
	RatePerSec int
	// MaxBodyBytes limits request body size.
	MaxBodyBytes int64
	// CORSOrigins lists allowed cross-origin hosts.
	CORSOrigins []string
}

// LoadDefaults populates Config with development defaults. The auth secret
// has no default: serving without one is refused by Validate.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.DatabaseDriver = "pgx"
	c.TokenTTL = 24 * time.Hour
	c.RateBurst = 20
	c.RatePerSec = 10
	c.MaxBodyBytes = 1 << 20
}

// Load builds a Config by applying defaults and then overlaying values from
// STOREOPS_* environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := getenv("ADDR"); v != "" {
		c.Addr = v
	}
	if v := getenv("DB_DRIVER"); v != "" {
		c.DatabaseDriver = v
	}
	if v := getenv("DB_DSN"); v != "" {
		c.DatabaseDSN = v
	}
	if v := getenv("AUTH_SECRET"); v != "" {
		c.AuthSecret = v
	}
	if v := getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %sTOKEN_TTL: %w", envPrefix, err)
		}
		c.TokenTTL = d
	}
	if v := getenv("RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %sRATE_BURST: %w", envPrefix, err)
		}
		c.RateBurst = n
	}
	if v := getenv("RATE_PER_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %sRATE_PER_SEC: %w", envPrefix, err)
		}
		c.RatePerSec = n
	}
	if v := getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse %sMAX_BODY_BYTES: %w", envPrefix, err)
		}
		c.MaxBodyBytes = n
	}
	if v := getenv("CORS_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				c.CORSOrigins = append(c.CORSOrigins, origin)
			}
		}
	}
	return nil
}

// Validate checks settings required for serving traffic.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AuthSecret) == "" {
		return errors.New("auth secret is not configured")
	}
	switch c.DatabaseDriver {
	case "pgx", "sqlite3":
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if c.TokenTTL <= 0 {
		return errors.New("token ttl must be greater than zero")
	}
	return nil
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}
