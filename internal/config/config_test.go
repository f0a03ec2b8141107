package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recipebox.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenAddr != ":8000" {
		t.Errorf("ListenAddr = %q, want :8000", cfg.ListenAddr)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q, want sqlite", cfg.DBDriver)
	}
	if cfg.MediaRoot != "/vol/web/media" || cfg.StaticRoot != "/vol/web/static" {
		t.Errorf("volume roots = %q, %q", cfg.MediaRoot, cfg.StaticRoot)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("TokenTTL = %v, want 30m", cfg.TokenTTL)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
listen_addr: ":9000"
log_level: debug
token_ttl: 5m
cors_origins:
  - https://a.example
`)
	t.Setenv("RECIPEBOX_LOG_LEVEL", "warn")
	t.Setenv("RECIPEBOX_SECRET_KEY", testSecret)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q, want value from file", cfg.ListenAddr)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, env should override file", cfg.LogLevel)
	}
	if cfg.TokenTTL != 5*time.Minute {
		t.Errorf("TokenTTL = %v, want 5m", cfg.TokenTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://a.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.SecretKey != testSecret {
		t.Errorf("SecretKey not loaded from env")
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q, unset keys should keep defaults", cfg.DBDriver)
	}
}

func TestLoad_EnvList(t *testing.T) {
	t.Setenv("RECIPEBOX_CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("CORSOrigins = %v, want 2 entries", cfg.CORSOrigins)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ListenAddr != ":8000" {
		t.Errorf("ListenAddr = %q, want default", cfg.ListenAddr)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		if _, err := Load(writeFile(t, "listen_adr: ':1'\n")); err == nil {
			t.Fatal("expected error for unknown key")
		}
	})

	t.Run("bad env duration", func(t *testing.T) {
		t.Setenv("RECIPEBOX_TOKEN_TTL", "soon")
		_, err := Load("")
		if err == nil || !strings.Contains(err.Error(), "parse env") {
			t.Fatalf("expected parse env error, got %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.SecretKey = testSecret
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("Validate() on valid config error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.SecretKey = "" }},
		{"short secret", func(c *Config) { c.SecretKey = "short" }},
		{"bad driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"empty dsn", func(c *Config) { c.DBDSN = "" }},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }},
		{"no media root", func(c *Config) { c.MediaRoot = "" }},
		{"zero upload limit", func(c *Config) { c.MaxUploadBytes = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"zero rps", func(c *Config) { c.RateLimitRPS = 0 }},
		{"zero login failures", func(c *Config) { c.LoginFailuresPerMin = 0 }},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestValidateDatabase_Postgres(t *testing.T) {
	cfg := Default()
	cfg.DBDriver = "postgres"
	cfg.DBDSN = "postgres://app:secret@db:5432/app"
	if err := cfg.ValidateDatabase(); err != nil {
		t.Fatalf("ValidateDatabase() error = %v", err)
	}
}

func TestLoggingConfig(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "debug"
	cfg.LogFormat = "console"

	lc := cfg.LoggingConfig()
	if lc.Level != "debug" || lc.Format != "console" {
		t.Errorf("LoggingConfig() = %+v", lc)
	}
}
