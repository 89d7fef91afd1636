package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

// TestNewConsoleOnly verifies logger construction without a Seq endpoint
func TestNewConsoleOnly(t *testing.T) {
	logger, cleanup := New(Options{Level: slog.LevelDebug})
	defer cleanup()

	if logger == nil {
		t.Fatal("New should return a logger")
	}
	logger.Debug("estimation started", "session", "test")
}

// TestDiscard verifies the discard logger drops records without error
func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger == nil {
		t.Fatal("Discard should return a logger")
	}
	logger.Warn("this should go nowhere")
}

// TestMultiHandlerFanOut verifies records reach every handler
func TestMultiHandlerFanOut(t *testing.T) {
	var first, second bytes.Buffer
	multi := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&first, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&second, &slog.HandlerOptions{Level: slog.LevelInfo}),
	}}

	logger := slog.New(multi)
	logger.Info("cache invalidated", "entries", 12)

	for name, buf := range map[string]*bytes.Buffer{"first": &first, "second": &second} {
		if !strings.Contains(buf.String(), "cache invalidated") {
			t.Errorf("%s handler did not receive the record: %q", name, buf.String())
		}
	}
}

// TestMultiHandlerLevels verifies Enabled honors the most permissive handler
func TestMultiHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	multi := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}}

	if !multi.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be enabled when any handler accepts it")
	}

	withAttrs := multi.WithAttrs([]slog.Attr{slog.String("component", "planner")})
	if withAttrs == nil {
		t.Error("WithAttrs should return a handler")
	}
	if multi.WithGroup("estimation") == nil {
		t.Error("WithGroup should return a handler")
	}
}
