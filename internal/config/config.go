// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"3000"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// Telemetry store (Redis). An empty host disables view telemetry.
	RedisHost              string        `env:"REDIS_HOST"`
	RedisPort              int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword          string        `env:"REDIS_PASSWORD"`
	RedisTLS               bool          `env:"REDIS_TLS" envDefault:"false"`
	RedisTLSSkipVerify     bool          `env:"REDIS_TLS_SKIP_VERIFY" envDefault:"false"`
	TelemetryBackend       string        `env:"TELEMETRY_BACKEND" envDefault:"redis"`
	TelemetryOpTimeout     time.Duration `env:"TELEMETRY_OP_TIMEOUT" envDefault:"250ms"`
	TelemetryMaxReconnects int           `env:"TELEMETRY_MAX_RECONNECTS" envDefault:"10"`

	// Throughput probe
	ProbeBaseURL       string        `env:"PROBE_BASE_URL" envDefault:"https://speed.cloudflare.com"`
	ProbeDownloadBytes int64         `env:"PROBE_DOWNLOAD_BYTES" envDefault:"25000000"`
	ProbeUploadBytes   int64         `env:"PROBE_UPLOAD_BYTES" envDefault:"10000000"`
	ProbeTimeout       time.Duration `env:"PROBE_TIMEOUT" envDefault:"60s"`
	ProbeParallel      bool          `env:"PROBE_PARALLEL" envDefault:"false"`
	SpeedTestRPS       float64       `env:"SPEEDTEST_RPS" envDefault:"0.1"`
	SpeedTestBurst     int           `env:"SPEEDTEST_BURST" envDefault:"1"`

	// Sessions and Google OAuth
	SessionSecret      string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string        `env:"GOOGLE_CALLBACK_URL" envDefault:"http://localhost:3000/auth/google/callback"`

	// Image uploads (gocloud.dev/blob URL)
	UploadBucketURL string `env:"UPLOAD_BUCKET_URL" envDefault:"file:///tmp/hostelreview-uploads?create_dir=true"`
	MaxUploadSize   int64  `env:"MAX_UPLOAD_SIZE" envDefault:"5242880"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB). Uploads use MaxUploadSize.
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// TelemetryEnabled reports whether a telemetry store is configured.
// Without a Redis host the service runs in local mode and nothing trends.
func (c *Config) TelemetryEnabled() bool {
	if c.TelemetryBackend == "memory" {
		return true
	}
	return strings.TrimSpace(c.RedisHost) != ""
}

// RedisAddr returns host:port for the telemetry store.
func (c *Config) RedisAddr() string {
	return net.JoinHostPort(strings.TrimSpace(c.RedisHost), strconv.Itoa(c.RedisPort))
}

// OAuthEnabled reports whether Google sign-in is configured.
func (c *Config) OAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or values are out of range.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.TelemetryBackend {
	case "redis", "memory":
	default:
		return fmt.Errorf("TELEMETRY_BACKEND must be redis or memory, got %q", c.TelemetryBackend)
	}
	if c.ProbeDownloadBytes < 0 || c.ProbeUploadBytes < 0 {
		return fmt.Errorf("probe byte counts must not be negative")
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("PROBE_TIMEOUT must be positive")
	}
	if c.SpeedTestRPS <= 0 || c.SpeedTestBurst < 1 {
		return fmt.Errorf("SPEEDTEST_RPS must be positive and SPEEDTEST_BURST at least 1")
	}
	if len(c.SessionSecret) < 16 {
		return fmt.Errorf("SESSION_SECRET must be at least 16 characters")
	}
	return nil
}
