package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	// Storage
	DataBackend      string `env:"DATA_BACKEND"       envDefault:"memory"`
	DatabaseURL      string `env:"DATABASE_URL"`
	DatabaseMaxConns int    `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	DatabaseMinConns int    `env:"DATABASE_MIN_CONNS" envDefault:"2"`
	SQLitePath       string `env:"SQLITE_PATH"        envDefault:"data/bobpool.db"`
	RunMigrations    bool   `env:"RUN_MIGRATIONS"     envDefault:"true"`

	// Redis (empty disables the summary cache and idempotency)
	RedisURL       string        `env:"REDIS_URL"`
	CacheTTL       time.Duration `env:"CACHE_TTL"       envDefault:"30s"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	// Outbox
	AMQPURL         string        `env:"AMQP_URL"`
	AMQPExchange    string        `env:"AMQP_EXCHANGE"     envDefault:"bobpool.events"`
	AMQPRoutingKey  string        `env:"AMQP_ROUTING_KEY"  envDefault:"entries"`
	OutboxInterval  time.Duration `env:"OUTBOX_INTERVAL"   envDefault:"5s"`
	OutboxBatchSize int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`

	// Catalog (empty uses the embedded restaurants)
	CatalogPath string `env:"CATALOG_PATH"`

	// HTTP Server
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	HTTPIdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"60s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RateLimitRPS        float64       `env:"RATE_LIMIT_RPS"        envDefault:"20"`
	RateLimitBurst      int           `env:"RATE_LIMIT_BURST"      envDefault:"40"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// A missing .env is fine; the environment alone is enough.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.DataBackend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown DATA_BACKEND %q", c.DataBackend)
	}

	if c.DataBackend == BackendSQLite && c.SQLitePath == "" {
		return errors.New("SQLITE_PATH is required for the sqlite backend")
	}

	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive, got %d", c.OutboxBatchSize)
	}

	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return errors.New("rate limit settings must not be negative")
	}

	return nil
}

// CacheEnabled reports whether a Redis URL is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}
