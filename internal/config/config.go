// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrDatabaseURLRequired is returned when DATABASE_URL is not set.
	ErrDatabaseURLRequired = errors.New("config: DATABASE_URL is required")
	// ErrJWTSecretRequired is returned when JWT_SECRET is not set.
	ErrJWTSecretRequired = errors.New("config: JWT_SECRET is required")
	// ErrS3BucketRequired is returned when S3_BUCKET is not set.
	ErrS3BucketRequired = errors.New("config: S3_BUCKET is required")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port           int      `env:"PORT, default=8080" json:"port"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=*" json:"allowed_origins"`

	// Database settings
	DatabaseURL string `env:"DATABASE_URL, required" json:"-"` // Masked in JSON

	// Auth settings
	JWTSecret string `env:"JWT_SECRET, required" json:"-"` // Masked in JSON

	// Object store settings
	S3Bucket           string `env:"S3_BUCKET, required" json:"s3_bucket"`
	S3Region           string `env:"S3_REGION, default=eu-west-1" json:"s3_region"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	S3PublicBaseURL    string `env:"S3_PUBLIC_BASE_URL" json:"s3_public_base_url,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Media processing settings
	TempDir                 string `env:"TEMP_DIR, default=/tmp/studio-api" json:"temp_dir"`
	CompressionThresholdMB  int    `env:"COMPRESSION_THRESHOLD_MB, default=50" json:"compression_threshold_mb"`
	CompressionTargetMB     int    `env:"COMPRESSION_TARGET_MB, default=50" json:"compression_target_mb"`
	CompressionQuality      string `env:"COMPRESSION_QUALITY, default=medium" json:"compression_quality"`
	CompressionRemoveAudio  bool   `env:"COMPRESSION_REMOVE_AUDIO, default=false" json:"compression_remove_audio"`
	CompressionMaxWidth     int    `env:"COMPRESSION_MAX_WIDTH, default=1920" json:"compression_max_width"`
	CompressionMaxHeight    int    `env:"COMPRESSION_MAX_HEIGHT, default=1080" json:"compression_max_height"`
	CompressionFPS          int    `env:"COMPRESSION_FPS, default=30" json:"compression_fps"`
	MaxConcurrentTranscodes int    `env:"MAX_CONCURRENT_TRANSCODES, default=2" json:"max_concurrent_transcodes"`

	// Instagram proxy settings
	InstagramAccessToken string `env:"INSTAGRAM_ACCESS_TOKEN" json:"-"` // Masked in JSON
	InstagramBaseURL     string `env:"INSTAGRAM_BASE_URL" json:"instagram_base_url,omitempty"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// InstagramEnabled returns true if the Instagram proxy is configured.
func (c *Config) InstagramEnabled() bool {
	return c.InstagramAccessToken != ""
}

// Load reads configuration from environment variables using go-envconfig.
// A .env file in the working directory is loaded first if present.
// It returns an error if required variables are not set.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		// Map envconfig errors to our domain errors for required fields
		if strings.Contains(err.Error(), "DATABASE_URL") {
			return nil, ErrDatabaseURLRequired
		}
		if strings.Contains(err.Error(), "JWT_SECRET") {
			return nil, ErrJWTSecretRequired
		}
		if strings.Contains(err.Error(), "S3_BUCKET") {
			return nil, ErrS3BucketRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrDatabaseURLRequired
	}
	if c.JWTSecret == "" {
		return ErrJWTSecretRequired
	}
	if c.S3Bucket == "" {
		return ErrS3BucketRequired
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, S3Bucket: %s, S3Region: %s, TempDir: %s, CompressionThresholdMB: %d, CompressionTargetMB: %d, CompressionQuality: %s, MaxConcurrentTranscodes: %d, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.S3Bucket,
		c.S3Region,
		c.TempDir,
		c.CompressionThresholdMB,
		c.CompressionTargetMB,
		c.CompressionQuality,
		c.MaxConcurrentTranscodes,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
