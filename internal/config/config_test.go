package config

import (
	"strings"
	"testing"
	"time"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TOKEN_SECRET", strings.Repeat("s", 32))
}

func TestLoadDefaults(t *testing.T) {
	validEnv(t)
	cfg := Load()

	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.Token.AccessTTL != 15*time.Minute {
		t.Fatalf("AccessTTL = %v", cfg.Token.AccessTTL)
	}
	if cfg.Token.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("RefreshTTL = %v", cfg.Token.RefreshTTL)
	}
	if cfg.RateLimit.MaxRequests != 100 || cfg.RateLimit.Window != time.Hour {
		t.Fatalf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Orders.RestockOnCancel {
		t.Fatal("RestockOnCancel should default to false")
	}
	if !cfg.Audit.Enabled || cfg.Audit.BufferSize != 1024 {
		t.Fatalf("Audit = %+v", cfg.Audit)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	validEnv(t)
	t.Setenv("ADDR", ":9000")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("RATE_LIMIT_MAX", "10")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("RESTOCK_ON_CANCEL", "true")
	t.Setenv("DATABASE_URL", "postgres://app@db/shop")

	cfg := Load()
	if cfg.Addr != ":9000" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.Token.AccessTTL != 5*time.Minute {
		t.Fatalf("AccessTTL = %v", cfg.Token.AccessTTL)
	}
	if cfg.RateLimit.MaxRequests != 10 || cfg.RateLimit.Window != 30*time.Second {
		t.Fatalf("RateLimit = %+v", cfg.RateLimit)
	}
	if !cfg.Orders.RestockOnCancel {
		t.Fatal("RestockOnCancel should be true")
	}
	if cfg.DatabaseURL != "postgres://app@db/shop" {
		t.Fatalf("DatabaseURL = %q", cfg.DatabaseURL)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	validEnv(t)
	t.Setenv("RATE_LIMIT_MAX", "lots")
	t.Setenv("ACCESS_TOKEN_TTL", "soon")
	t.Setenv("RESTOCK_ON_CANCEL", "yep")

	cfg := Load()
	if cfg.RateLimit.MaxRequests != 100 {
		t.Fatalf("RateLimit.MaxRequests = %d", cfg.RateLimit.MaxRequests)
	}
	if cfg.Token.AccessTTL != 15*time.Minute {
		t.Fatalf("AccessTTL = %v", cfg.Token.AccessTTL)
	}
	if cfg.Orders.RestockOnCancel {
		t.Fatal("RestockOnCancel should fall back to false")
	}
}

func TestValidate(t *testing.T) {
	validEnv(t)
	base := Load()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.Token.Secret = "" }},
		{"short secret", func(c *Config) { c.Token.Secret = "short" }},
		{"zero access ttl", func(c *Config) { c.Token.AccessTTL = 0 }},
		{"refresh shorter than access", func(c *Config) { c.Token.RefreshTTL = time.Minute }},
		{"negative leeway", func(c *Config) { c.Token.Leeway = -time.Second }},
		{"excessive leeway", func(c *Config) { c.Token.Leeway = 5 * time.Minute }},
		{"zero limit", func(c *Config) { c.RateLimit.MaxRequests = 0 }},
		{"zero window", func(c *Config) { c.RateLimit.Window = 0 }},
		{"audit without buffer", func(c *Config) { c.Audit.BufferSize = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := *base
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate accepted invalid config")
			}
		})
	}
}
