package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Debug("dropped")
	l.Info("dropped")
	l.Warnf("warn %d", 1)
	if l.With("k", "v") != nil {
		t.Error("With on nil logger should return nil")
	}
}

func TestRecorderCountsAcrossChildren(t *testing.T) {
	rec := NewRecorder()
	l := NewWithHandler(rec)
	child := l.With("derivative", "CL_alpha")

	l.Warn("one")
	child.Warn("two")
	child.Info("three")

	if got := rec.Count(slog.LevelWarn); got != 2 {
		t.Errorf("expected 2 warnings, got %d", got)
	}
	if got := len(rec.Messages(slog.LevelInfo)); got != 3 {
		t.Errorf("expected 3 messages, got %d", got)
	}

	rec.Reset()
	if rec.Count(slog.LevelWarn) != 0 {
		t.Error("reset did not clear records")
	}
}

func TestNewTextWritesLevelFiltered(t *testing.T) {
	var buf bytes.Buffer
	l := NewText(&buf, "warn")
	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn record missing")
	}
}
