package observability

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config LoggingConfig
	}{
		{
			name: "json format",
			config: LoggingConfig{
				Level:  "info",
				Format: "json",
			},
		},
		{
			name: "text format",
			config: LoggingConfig{
				Level:  "debug",
				Format: "text",
			},
		},
		{
			name: "default format",
			config: LoggingConfig{
				Level:  "warn",
				Format: "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.config)
			if logger == nil {
				t.Fatal("NewLogger returned nil")
			}
		})
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level string
	}{
		{"debug"},
		{"info"},
		{"warn"},
		{"warning"},
		{"error"},
		{"invalid"}, // Should default to info
		{""},        // Should default to info
		{"DEBUG"},
		{"Info"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			config := LoggingConfig{
				Level:  tt.level,
				Format: "json",
			}
			logger := NewLogger(config)
			if logger == nil {
				t.Errorf("NewLogger with level %q returned nil", tt.level)
			}
		})
	}
}

func TestLoggerOutput(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("sink reader closed early", "sink", "out-1.log", "written", 4096)

	output := buf.String()
	if !strings.Contains(output, "sink reader closed early") {
		t.Errorf("Log output should contain the message, got: %s", output)
	}
	if !strings.Contains(output, "sink=out-1.log") {
		t.Errorf("Log output should contain 'sink=out-1.log', got: %s", output)
	}
}

func TestLoggerWithAttributes(t *testing.T) {
	var buf bytes.Buffer

	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)

	logger = logger.With("app", "streamtee", "version", "1.0")
	logger.Info("stream drained", "bytes_read", 1048576)

	output := buf.String()
	if !strings.Contains(output, "app=streamtee") {
		t.Errorf("Should contain app attribute, got: %s", output)
	}
	if !strings.Contains(output, "bytes_read=1048576") {
		t.Errorf("Should contain bytes_read, got: %s", output)
	}
}
