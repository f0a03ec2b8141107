package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Console(t *testing.T) {
	cfg := Config{
		Level:            "debug",
		Format:           FormatConsole,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to create console logger: %v", err)
	}

	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected debug level to be enabled")
	}

	// Should not panic
	logger.Debug("test debug message")
	logger.Info("test info message")
}

func TestNewLogger_JSON(t *testing.T) {
	logger, err := NewLogger(DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create JSON logger: %v", err)
	}

	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected debug level to be disabled at info")
	}

	logger.Info("test info message")
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "invalid"

	if _, err := NewLogger(cfg); err == nil {
		t.Fatal("Expected error for invalid log level")
	}
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = "xml"

	if _, err := NewLogger(cfg); err == nil {
		t.Fatal("Expected error for invalid log format")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
		hasError bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"DEBUG", zapcore.DebugLevel, false},
		{"invalid", zapcore.DebugLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)

			if tt.hasError {
				if err == nil {
					t.Errorf("Expected error for input %s", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error for input %s: %v", tt.input, err)
			}
			if level != tt.expected {
				t.Errorf("Expected level %v, got %v", tt.expected, level)
			}
		})
	}
}
