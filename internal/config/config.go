// Package config loads recipebox-server configuration.
//
// Values are resolved in order: built-in defaults, an optional YAML file,
// RECIPEBOX_* environment variables, then command-line flags (applied by the
// caller after Load returns).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/yaroslav/recipebox/internal/logging"
	"github.com/yaroslav/recipebox/internal/storage"
	"github.com/yaroslav/recipebox/pkg/token"
)

// Config is the complete server configuration.
//
// Environment tags carry no envDefault so that an unset variable never
// overwrites a value taken from the YAML file.
type Config struct {
	ListenAddr string `yaml:"listen_addr" env:"RECIPEBOX_LISTEN_ADDR"`
	InstanceID string `yaml:"instance_id" env:"RECIPEBOX_INSTANCE_ID"`

	DBDriver string `yaml:"db_driver" env:"RECIPEBOX_DB_DRIVER"`
	DBDSN    string `yaml:"db_dsn" env:"RECIPEBOX_DB_DSN"`

	SecretKey string        `yaml:"secret_key" env:"RECIPEBOX_SECRET_KEY"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"RECIPEBOX_TOKEN_TTL"`

	MediaRoot      string `yaml:"media_root" env:"RECIPEBOX_MEDIA_ROOT"`
	StaticRoot     string `yaml:"static_root" env:"RECIPEBOX_STATIC_ROOT"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" env:"RECIPEBOX_MAX_UPLOAD_BYTES"`

	LogLevel  string `yaml:"log_level" env:"RECIPEBOX_LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"RECIPEBOX_LOG_FORMAT"`

	CORSOrigins []string `yaml:"cors_origins" env:"RECIPEBOX_CORS_ORIGINS" envSeparator:","`

	RateLimitRPS        float64 `yaml:"rate_limit_rps" env:"RECIPEBOX_RATE_LIMIT_RPS"`
	RateLimitBurst      int     `yaml:"rate_limit_burst" env:"RECIPEBOX_RATE_LIMIT_BURST"`
	LoginFailuresPerMin int     `yaml:"login_failures_per_min" env:"RECIPEBOX_LOGIN_FAILURES_PER_MIN"`
	RegistrationsPerMin int     `yaml:"registrations_per_min" env:"RECIPEBOX_REGISTRATIONS_PER_MIN"`
	ImageUploadsPerMin  int     `yaml:"image_uploads_per_min" env:"RECIPEBOX_IMAGE_UPLOADS_PER_MIN"`

	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout" env:"RECIPEBOX_SHUTDOWN_TIMEOUT"`
	WaitForDBTimeout time.Duration `yaml:"wait_for_db_timeout" env:"RECIPEBOX_WAIT_FOR_DB_TIMEOUT"`
	DBStatsInterval  time.Duration `yaml:"db_stats_interval" env:"RECIPEBOX_DB_STATS_INTERVAL"`
}

// Default returns the built-in defaults matching the container image layout.
func Default() *Config {
	return &Config{
		ListenAddr:          ":8000",
		DBDriver:            storage.DriverSQLite,
		DBDSN:               "/vol/web/recipebox.db",
		TokenTTL:            token.DefaultTTL,
		MediaRoot:           "/vol/web/media",
		StaticRoot:          "/vol/web/static",
		MaxUploadBytes:      10 << 20,
		LogLevel:            "info",
		LogFormat:           string(logging.FormatJSON),
		RateLimitRPS:        100,
		RateLimitBurst:      200,
		LoginFailuresPerMin: 10,
		RegistrationsPerMin: 20,
		ImageUploadsPerMin:  30,
		ShutdownTimeout:     10 * time.Second,
		WaitForDBTimeout:    60 * time.Second,
		DBStatsInterval:     15 * time.Second,
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment. It does not validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		// An empty file decodes to io.EOF; treat it as no overrides.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the values needed by the serve command.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr is required")
	}
	if err := c.ValidateDatabase(); err != nil {
		return err
	}
	if err := token.ValidateSecret(c.SecretKey); err != nil {
		return fmt.Errorf("secret_key: %w", err)
	}
	if c.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}
	if c.MediaRoot == "" || c.StaticRoot == "" {
		return errors.New("media_root and static_root are required")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch logging.Format(c.LogFormat) {
	case logging.FormatJSON, logging.FormatConsole:
	default:
		return fmt.Errorf("log_format must be json or console, got %q", c.LogFormat)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("rate_limit_rps and rate_limit_burst must be positive")
	}
	if c.LoginFailuresPerMin <= 0 {
		return errors.New("login_failures_per_min must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be positive")
	}
	return nil
}

// ValidateDatabase checks only the database settings, for commands that
// need nothing else.
func (c *Config) ValidateDatabase() error {
	switch c.DBDriver {
	case storage.DriverSQLite, storage.DriverPostgres:
	default:
		return fmt.Errorf("db_driver must be %q or %q, got %q", storage.DriverSQLite, storage.DriverPostgres, c.DBDriver)
	}
	if c.DBDSN == "" {
		return errors.New("db_dsn is required")
	}
	return nil
}

// LoggingConfig returns the logger settings.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Format = logging.Format(c.LogFormat)
	return cfg
}
