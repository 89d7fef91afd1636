package logging

import (
	"context"
	"log/slog"
	"os"
	"time"

	slogseq "github.com/sokkalf/slog-seq"
)

// Options configures logger construction
type Options struct {
	// Level is the minimum level emitted (default slog.LevelInfo)
	Level slog.Leveler

	// SeqURL, when set, additionally ships records to a Seq server
	SeqURL string
}

// multiHandler forwards log records to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	// Enable if any handler is enabled for this level
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// New builds a logger for the optimizer host process: console output, plus
// Seq when configured. The cleanup function flushes the Seq handler.
func New(opts Options) (*slog.Logger, func()) {
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}

	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	if opts.SeqURL == "" {
		return slog.New(consoleHandler), func() {}
	}

	_, seqHandler := slogseq.NewLogger(
		opts.SeqURL,
		slogseq.WithBatchSize(1),
		slogseq.WithFlushInterval(500*time.Millisecond),
		slogseq.WithHandlerOptions(&slog.HandlerOptions{
			Level: level,
		}),
	)

	// If Seq is not available, use console only
	if seqHandler == nil {
		return slog.New(consoleHandler), func() {}
	}

	multi := &multiHandler{
		handlers: []slog.Handler{consoleHandler, seqHandler},
	}

	return slog.New(multi), func() {
		seqHandler.Close()
	}
}

// Discard returns a logger that drops everything, for library defaults and
// tests
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
