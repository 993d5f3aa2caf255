package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Failed to unmarshal log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{"info", InfoLevel},
		{"WARNING", WarnLevel},
		{"warn", WarnLevel},
		{"error", ErrorLevel},
		{"invalid", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFieldConstructors(t *testing.T) {
	if f := Stage("projection"); f.Key != "stage" || f.Value != "projection" {
		t.Errorf("Stage() = %+v", f)
	}
	if f := Nodes(12); f.Key != "nodes" || f.Value != 12 {
		t.Errorf("Nodes() = %+v", f)
	}
	if f := Duration("timeout", 5*time.Second); f.Value != "5s" {
		t.Errorf("Duration() = %+v", f)
	}
	if f := Error(errors.New("boom")); f.Key != "error" || f.Value != "boom" {
		t.Errorf("Error() = %+v", f)
	}
	if f := Error(nil); f.Value != nil {
		t.Errorf("Error(nil) = %+v", f)
	}
}

func TestJSONLogger_BasicLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Info("graph built", Stage("hetero"), Nodes(4), Edges(3))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
	if entry["msg"] != "graph built" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["stage"] != "hetero" {
		t.Errorf("stage = %v", entry["stage"])
	}
	if entry["nodes"] != float64(4) {
		t.Errorf("nodes = %v", entry["nodes"])
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(entries))
	}
	if entries[0]["level"] != "WARN" || entries[1]["level"] != "ERROR" {
		t.Errorf("levels = %v, %v", entries[0]["level"], entries[1]["level"])
	}
}

func TestJSONLogger_WithSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	child := logger.With(RunID("run-1"), Learner("node2vec"))
	child.Info("epoch", Int("epoch", 3))

	logger.SetLevel(ErrorLevel)
	child.Info("suppressed")

	if child.GetLevel() != ErrorLevel {
		t.Errorf("child level = %v, want ERROR", child.GetLevel())
	}

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0]["run_id"] != "run-1" || entries[0]["learner"] != "node2vec" {
		t.Errorf("preset fields missing: %v", entries[0])
	}
	if entries[0]["epoch"] != float64(3) {
		t.Errorf("epoch = %v", entries[0]["epoch"])
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	op := StartTimer(logger, "stage finished", Stage("metrics"))
	if elapsed := op.End(Nodes(10)); elapsed < 0 {
		t.Errorf("elapsed = %v", elapsed)
	}
	op.EndError(errors.New("dimension mismatch"))

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if _, ok := entries[0]["latency"]; !ok {
		t.Error("latency field missing")
	}
	if entries[0]["nodes"] != float64(10) {
		t.Errorf("nodes = %v", entries[0]["nodes"])
	}
	if entries[1]["level"] != "ERROR" || entries[1]["error"] != "dimension mismatch" {
		t.Errorf("error entry = %v", entries[1])
	}
}

func TestSetDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, DebugLevel))
	defer SetDefaultLogger(NewNopLogger())

	DefaultLogger().Info("info msg")
	DefaultLogger().Warn("warn msg")
	DefaultLogger().Error("error msg")

	entries := decodeLines(t, &buf)
	if len(entries) != 3 {
		t.Fatalf("Expected 3 log entries, got %d", len(entries))
	}
	for i, want := range []string{"INFO", "WARN", "ERROR"} {
		if entries[i]["level"] != want {
			t.Errorf("entry %d level = %v, want %v", i, entries[i]["level"], want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("ignored")
	if logger.With(Stage("x")).GetLevel() != InfoLevel {
		t.Error("NopLogger level should be INFO")
	}
}
