package config

import (
	"fmt"
	"net"
	"time"

	"github.com/GriffinCanCode/vizy/internal/infrastructure/resilience"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Client    ClientConfig
	Poll      PollConfig
	Job       JobConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port       string `envconfig:"PORT" default:"8000"`
	Host       string `envconfig:"HOST" default:"127.0.0.1"`
	ProjectDir string `envconfig:"VIZY_PROJECT_DIR" default:"."`
}

// ClientConfig holds settings for `vizy submit`.
type ClientConfig struct {
	ServerURL      string        `envconfig:"VIZY_SERVER_URL" default:"http://127.0.0.1:8000"`
	RequestTimeout time.Duration `envconfig:"VIZY_REQUEST_TIMEOUT" default:"30s"`
	CaptureRetries int           `envconfig:"VIZY_CAPTURE_RETRIES" default:"3"`
}

// PollConfig holds the log polling retry policy. A zero MaxAttempts polls
// until the log becomes available.
type PollConfig struct {
	Interval    time.Duration `envconfig:"VIZY_POLL_INTERVAL" default:"500ms"`
	Backoff     float64       `envconfig:"VIZY_POLL_BACKOFF" default:"1"`
	MaxInterval time.Duration `envconfig:"VIZY_POLL_MAX_INTERVAL" default:"0s"`
	MaxAttempts int           `envconfig:"VIZY_POLL_MAX_ATTEMPTS" default:"0"`
}

// Policy converts the poll settings into a retry policy.
func (p PollConfig) Policy() resilience.Policy {
	return resilience.Policy{
		Interval:    p.Interval,
		Multiplier:  p.Backoff,
		MaxInterval: p.MaxInterval,
		MaxAttempts: p.MaxAttempts,
	}
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// JobConfig holds task execution settings.
type JobConfig struct {
	Timeout time.Duration `envconfig:"VIZY_JOB_TIMEOUT" default:"10m"`
	PTY     bool          `envconfig:"VIZY_JOB_PTY" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration for the run endpoint.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"5"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"10"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:       "8000",
			Host:       "127.0.0.1",
			ProjectDir: ".",
		},
		Client: ClientConfig{
			ServerURL:      "http://127.0.0.1:8000",
			RequestTimeout: 30 * time.Second,
			CaptureRetries: 3,
		},
		Poll: PollConfig{
			Interval: 500 * time.Millisecond,
			Backoff:  1,
		},
		Job: JobConfig{
			Timeout: 10 * time.Minute,
			PTY:     true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             10,
			Enabled:           true,
		},
	}
}
