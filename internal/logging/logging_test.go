package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewSelectsHandler(t *testing.T) {
	t.Parallel()

	var jsonBuf bytes.Buffer
	New(&jsonBuf, "json", "info").Info("hello", "key", "value")
	if !strings.HasPrefix(strings.TrimSpace(jsonBuf.String()), "{") {
		t.Fatalf("expected JSON output, got %q", jsonBuf.String())
	}

	var textBuf bytes.Buffer
	New(&textBuf, "text", "info").Info("hello", "key", "value")
	if !strings.Contains(textBuf.String(), "key=value") {
		t.Fatalf("expected text output, got %q", textBuf.String())
	}

	var filtered bytes.Buffer
	New(&filtered, "text", "error").Info("dropped")
	if filtered.Len() != 0 {
		t.Fatalf("expected info record to be filtered, got %q", filtered.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	if FromContext(context.Background()) != nil {
		t.Fatalf("expected no logger on empty context")
	}

	logger := Discard()
	ctx := ContextWithLogger(context.Background(), logger)
	if got := FromContext(ctx); got != logger {
		t.Fatalf("expected logger to round-trip through context")
	}

	if got := ContextWithLogger(ctx, nil); got != ctx {
		t.Fatalf("expected nil logger to leave context unchanged")
	}
}

func TestFromContextOr(t *testing.T) {
	t.Parallel()

	fallback := Discard()
	if got := FromContextOr(context.Background(), fallback); got != fallback {
		t.Fatalf("expected fallback logger")
	}
	attached := Discard()
	ctx := ContextWithLogger(context.Background(), attached)
	if got := FromContextOr(ctx, fallback); got != attached {
		t.Fatalf("expected context logger to win over fallback")
	}
	if FromContextOr(context.Background(), nil) == nil {
		t.Fatalf("expected default logger when nothing is available")
	}
}
