// Package config loads service configuration from the environment with
// development-safe defaults. A .env file in the working directory is
// honored when present.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the service needs at startup. It is built once
// by Load and treated as immutable afterwards.
type Config struct {
	Addr        string
	ServiceName string
	Version     string
	LogLevel    string

	Token     TokenConfig
	RateLimit RateLimitConfig
	Orders    OrdersConfig
	Audit     AuditConfig

	DatabaseURL  string
	RedisURL     string
	OTLPEndpoint string
}

// TokenConfig controls token issuance and verification.
type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Leeway     time.Duration
}

// RateLimitConfig controls the sliding-window request limiter.
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
}

// OrdersConfig controls order workflow policy.
type OrdersConfig struct {
	RestockOnCancel bool
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// Load reads configuration from the environment. Values absent from the
// environment fall back to defaults suitable for local development; the
// token secret has no default and must be validated before use.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Addr:        getenv("ADDR", ":8080"),
		ServiceName: getenv("OTEL_SERVICE_NAME", "shopcore"),
		Version:     getenv("SERVICE_VERSION", "0.1.0"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		Token: TokenConfig{
			Secret:     getenv("TOKEN_SECRET", ""),
			Issuer:     getenv("TOKEN_ISSUER", "shopcore"),
			AccessTTL:  getenvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTTL: getenvDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
			Leeway:     getenvDuration("TOKEN_LEEWAY", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			MaxRequests: getenvInt("RATE_LIMIT_MAX", 100),
			Window:      getenvDuration("RATE_LIMIT_WINDOW", time.Hour),
		},
		Orders: OrdersConfig{
			RestockOnCancel: getenvBool("RESTOCK_ON_CANCEL", false),
		},
		Audit: AuditConfig{
			Enabled:    getenvBool("AUDIT_ENABLED", true),
			BufferSize: getenvInt("AUDIT_BUFFER_SIZE", 1024),
			DropIfFull: getenvBool("AUDIT_DROP_IF_FULL", true),
		},

		DatabaseURL:  getenv("DATABASE_URL", ""),
		RedisURL:     getenv("REDIS_URL", ""),
		OTLPEndpoint: getenv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("ADDR must not be empty")
	}
	if c.Token.Secret == "" {
		return errors.New("TOKEN_SECRET is required")
	}
	if len(c.Token.Secret) < 32 {
		return errors.New("TOKEN_SECRET must be at least 32 bytes")
	}
	if c.Token.AccessTTL <= 0 {
		return errors.New("ACCESS_TOKEN_TTL must be > 0")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("REFRESH_TOKEN_TTL must be > 0")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("REFRESH_TOKEN_TTL must be >= ACCESS_TOKEN_TTL")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("TOKEN_LEEWAY must be between 0 and 2m")
	}
	if c.RateLimit.MaxRequests <= 0 {
		return errors.New("RATE_LIMIT_MAX must be > 0")
	}
	if c.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT_WINDOW must be > 0")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("AUDIT_BUFFER_SIZE must be > 0 when audit is enabled")
	}
	return nil
}
