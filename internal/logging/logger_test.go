package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerWritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.WithSession("s1").WithAgent("a1").Info("agent transition", "op", "accept")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "drover.log"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("log line not valid JSON: %v\n%s", err, data)
	}
	if entry["msg"] != "agent transition" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["session_id"] != "s1" || entry["agent_id"] != "a1" {
		t.Errorf("context attrs missing: %v", entry)
	}
	if entry["op"] != "accept" {
		t.Errorf("per-call attr missing: %v", entry)
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelWarn)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Debug("hidden")
	logger.Info("also hidden")
	logger.Warn("visible")
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "drover.log"))
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Errorf("below-level messages logged:\n%s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn message missing:\n%s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.WithJob("j1").Error("discarded", "k", "v")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() on nop logger error = %v", err)
	}
}

func TestChildLoggerDoesNotMutateParent(t *testing.T) {
	parent := NopLogger()
	child := parent.WithSession("s1")
	if len(parent.attrs) != 0 {
		t.Error("parent attrs mutated by child creation")
	}
	if len(child.attrs) != 1 {
		t.Errorf("child attrs = %v", child.attrs)
	}
}
