// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Record ID formats.
const (
	IDFormatULID   = "ulid"
	IDFormatMillis = "millis"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv string `env:"APP_ENV" envDefault:"development" validate:"oneof=development production test"`
	Port   int    `env:"PORT" envDefault:"4000" validate:"min=1,max=65535"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json text"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s" validate:"gt=0"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s" validate:"gt=0"`

	// CORS configuration
	// "*" reflects any request origin; otherwise a comma-separated list
	// (e.g., "https://example.com,https://app.example.com").
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Request body size limit for JSON bodies in bytes (default 2MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"2097152" validate:"gt=0"`

	// Request body size limit for multipart uploads in bytes (default 32MB)
	UploadMaxBytes int64 `env:"UPLOAD_MAX_BYTES" envDefault:"33554432" validate:"gt=0"`

	// Records
	RecordIDFormat string `env:"RECORD_ID_FORMAT" envDefault:"millis" validate:"oneof=ulid millis"`
	SeedFile       string `env:"SEED_FILE"`

	// Metrics
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// Webhooks. Record changes are POSTed to WebhookURL when it is set.
	WebhookURL           string        `env:"WEBHOOK_URL" validate:"omitempty,url"`
	WebhookSecret        string        `env:"WEBHOOK_SECRET" validate:"required_with=WebhookURL,omitempty,min=16"`
	WebhookMaxAttempts   int           `env:"WEBHOOK_MAX_ATTEMPTS" envDefault:"5" validate:"min=1,max=10"`
	WebhookTimeout       time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	WebhookQueueSize     int           `env:"WEBHOOK_QUEUE_SIZE" envDefault:"256" validate:"min=1"`
	WebhookAllowInsecure bool          `env:"WEBHOOK_ALLOW_INSECURE" envDefault:"false"`
}

// WebhooksEnabled reports whether record changes are delivered to a webhook.
func (c *Config) WebhooksEnabled() bool {
	return c.WebhookURL != ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// AllowAnyOrigin reports whether CORS should reflect every origin.
func (c *Config) AllowAnyOrigin() bool {
	return strings.TrimSpace(c.CORSAllowedOrigins) == "*"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
// Returns nil when any origin is allowed.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" || c.AllowAnyOrigin() {
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

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads an optional .env file, parses environment variables and
// validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the current environment without touching .env.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
