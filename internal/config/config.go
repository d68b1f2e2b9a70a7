package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFiles are loaded, in order, when no env file is given explicitly
var DefaultEnvFiles = []string{".env", ".env.local"}

// Config holds all process configuration
type Config struct {
	Credentials Credentials
	Server      ServerConfig
	Logging     LoggingConfig
	Metrics     MetricsConfig
	RateLimit   RateLimitConfig
	Preflight   PreflightConfig
	Explorer    ExplorerConfig
}

// Credentials are the secrets networks and explorers are used with
type Credentials struct {
	// PrivateKey signs for every declared network
	PrivateKey string `env:"PRIVATE_KEY"`
	// BasescanAPIKey authorizes verification requests on Basescan
	BasescanAPIKey string `env:"BASESCAN_API_KEY"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int    `env:"PORT" envDefault:"8080"`
	Host         string `env:"HOST" envDefault:"0.0.0.0"`
	ReadTimeout  int    `env:"SERVER_READ_TIMEOUT" envDefault:"30"`  // seconds
	WriteTimeout int    `env:"SERVER_WRITE_TIMEOUT" envDefault:"60"` // seconds
	IdleTimeout  int    `env:"SERVER_IDLE_TIMEOUT" envDefault:"120"` // seconds
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"` // "text" or "json"
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// RateLimitConfig holds per-client limits for endpoints that reach out to RPC nodes
type RateLimitConfig struct {
	Enabled        bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RequestsPerMin int  `env:"RATE_LIMIT_RPM" envDefault:"30"`
	BurstSize      int  `env:"RATE_LIMIT_BURST" envDefault:"5"`
}

// PreflightConfig bounds the RPC traffic of network checks
type PreflightConfig struct {
	Timeout        time.Duration `env:"PREFLIGHT_TIMEOUT" envDefault:"10s"`
	RequestsPerSec float64       `env:"PREFLIGHT_RPS" envDefault:"5"`
}

// ExplorerConfig holds explorer API client settings
type ExplorerConfig struct {
	Timeout time.Duration `env:"EXPLORER_TIMEOUT" envDefault:"15s"`
}

// Load reads dotenv files into the process environment and then parses the
// environment. Variables already set in the environment win over dotenv
// values, and among the files the last one wins. Missing default env files
// are ignored; an explicitly named file that cannot be read is an error.
func Load(envFiles ...string) (*Config, error) {
	if err := loadDotenv(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// loadDotenv applies the env files in order, later files overriding earlier
// ones, so .env.local takes precedence over .env. Variables present in the
// process environment before loading are never replaced.
func loadDotenv(envFiles []string) error {
	files := envFiles
	if len(files) == 0 {
		for _, f := range DefaultEnvFiles {
			if _, err := os.Stat(f); err == nil {
				files = append(files, f)
			}
		}
	}
	if len(files) == 0 {
		return nil
	}

	values, err := godotenv.Read(files...)
	if err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}

	for key, value := range values {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
	}
	return nil
}
