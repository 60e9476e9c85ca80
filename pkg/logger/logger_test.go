package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit(t *testing.T) {
	levels := []string{"debug", "info", "warn", "error", "unknown"}
	for _, level := range levels {
		Init(level)
		if Log == nil {
			t.Errorf("Init(%s) should set Log", level)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitWithConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{
			name: "json format stdout",
			config: Config{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
		},
		{
			name: "text format stderr",
			config: Config{
				Level:  "debug",
				Format: "text",
				Output: "stderr",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitWithConfig(tt.config)
			if Log == nil {
				t.Error("Log should not be nil")
			}
		})
	}
}

func TestInitWithConfig_FileOutput(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "nested", "test.log")

	InitWithConfig(Config{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logPath,
		MaxSize:  1,
	})
	t.Cleanup(func() { _ = Close() })

	Log.Info("solve completed", "total_profit", 30.0)

	if err := Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "solve completed") {
		t.Errorf("log file content = %q, want message", string(data))
	}
}

func TestClose_NoFile(t *testing.T) {
	Init("info")
	if err := Close(); err != nil {
		t.Errorf("Close() without file output = %v", err)
	}
}

func TestLoggingFunctions(t *testing.T) {
	Init("debug")

	// These should not panic
	Debug("debug message", "key", "value")
	Info("info message", "key", "value")
	Warn("warn message", "key", "value")
	Error("error message", "key", "value")
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	Log = slog.New(slog.NewJSONHandler(&buf, nil))
	t.Cleanup(func() { Init("info") })

	ctx := ContextWithRequestID(context.Background(), "req-42")
	WithContext(ctx, "key1", "value1").Info("hello")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-42"`) {
		t.Errorf("output %q should contain request_id", out)
	}
	if !strings.Contains(out, `"key1":"value1"`) {
		t.Errorf("output %q should contain key1", out)
	}
}

func TestRequestIDFromContext(t *testing.T) {
	if id := RequestIDFromContext(context.Background()); id != "" {
		t.Errorf("RequestIDFromContext(empty) = %q, want empty", id)
	}

	ctx := ContextWithRequestID(context.Background(), "abc")
	if id := RequestIDFromContext(ctx); id != "abc" {
		t.Errorf("RequestIDFromContext() = %q, want abc", id)
	}
}

func TestWithService(t *testing.T) {
	var buf bytes.Buffer
	Log = slog.New(slog.NewJSONHandler(&buf, nil))
	t.Cleanup(func() { Init("info") })

	Log = WithService("solver-svc")
	ctx := ContextWithRequestID(context.Background(), "req-7")
	WithContext(ctx).Info("solved")

	out := buf.String()
	if !strings.Contains(out, `"service":"solver-svc"`) {
		t.Errorf("output %q should contain service", out)
	}
	if !strings.Contains(out, `"request_id":"req-7"`) {
		t.Errorf("output %q should contain request_id", out)
	}
}
