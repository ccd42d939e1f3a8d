package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/iho/bobpool/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_BACKEND", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DataBackend != config.BackendMemory {
		t.Fatalf("expected memory backend by default, got %s", cfg.DataBackend)
	}

	if cfg.CacheEnabled() {
		t.Fatalf("expected cache to be disabled without REDIS_URL")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.CacheTTL != 30*time.Second {
		t.Fatalf("expected default cache TTL 30s, got %s", cfg.CacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATA_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("OUTBOX_INTERVAL", "45s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if !cfg.CacheEnabled() || cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.OutboxInterval != 45*time.Second {
		t.Fatalf("expected outbox interval override, got %s", cfg.OutboxInterval)
	}

	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit override, got %v", cfg.RateLimitRPS)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{"memory", config.Config{DataBackend: "memory", OutboxBatchSize: 1}, false},
		{"sqlite", config.Config{DataBackend: "sqlite", SQLitePath: "pool.db", OutboxBatchSize: 1}, false},
		{"sqlite without path", config.Config{DataBackend: "sqlite", OutboxBatchSize: 1}, true},
		{"postgres without url", config.Config{DataBackend: "postgres", OutboxBatchSize: 1}, true},
		{"postgres", config.Config{DataBackend: "postgres", DatabaseURL: "postgres://x", OutboxBatchSize: 1}, false},
		{"unknown backend", config.Config{DataBackend: "bolt", OutboxBatchSize: 1}, true},
		{"zero batch", config.Config{DataBackend: "memory"}, true},
		{"negative burst", config.Config{DataBackend: "memory", OutboxBatchSize: 1, RateLimitBurst: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
