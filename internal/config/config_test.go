package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Env:            EnvDevelopment,
		DatabaseDriver: DriverMemory,
		AuthTransport:  TransportBearer,
		ImageStore:     ImageStoreMemory,
		JWTSecret:      "secret",
		FeedPageSize:   50,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.DatabaseDriver = "sqlite" }, wantErr: "DATABASE_DRIVER"},
		{name: "unknown transport", mutate: func(c *Config) { c.AuthTransport = "both" }, wantErr: "AUTH_TRANSPORT"},
		{name: "unknown image store", mutate: func(c *Config) { c.ImageStore = "cloudinary" }, wantErr: "IMAGE_STORE"},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET is required"},
		{name: "dev secret in production", mutate: func(c *Config) {
			c.Env = EnvProduction
			c.JWTSecret = devSecret
		}, wantErr: "changed in production"},
		{name: "bad page size", mutate: func(c *Config) { c.FeedPageSize = 0 }, wantErr: "FEED_PAGE_SIZE"},
		{name: "page size above feed limit", mutate: func(c *Config) { c.FeedPageSize = MaxFeedPageSize + 50 }, wantErr: "FEED_PAGE_SIZE"},
		{name: "page size at feed limit", mutate: func(c *Config) { c.FeedPageSize = MaxFeedPageSize }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_DRIVER", "MEMORY")
	t.Setenv("AUTH_TRANSPORT", "cookie")
	t.Setenv("IMAGE_STORE", "memory")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("FEED_PAGE_SIZE", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseDriver != DriverMemory {
		t.Errorf("driver = %q, want %q", cfg.DatabaseDriver, DriverMemory)
	}
	if !cfg.UsesCookieAuth() {
		t.Error("expected cookie auth")
	}
	if cfg.JWTSecret != devSecret {
		t.Errorf("expected development secret fallback, got %q", cfg.JWTSecret)
	}
	if cfg.FeedPageSize != 25 {
		t.Errorf("page size = %d, want 25", cfg.FeedPageSize)
	}
}
