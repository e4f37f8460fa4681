package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// New returns a logger configured with a text handler writing to w.
// A nil writer means STDOUT. Verbose lowers the level to debug.
func New(w io.Writer, verbose bool) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Detail emits a diagnostic at info level only when verbose is set.
// Collection and refresh paths report through here instead of logging
// inline, so a quiet deployment produces no per-tick noise.
func Detail(l *slog.Logger, verbose bool, msg string, args ...any) {
	if !verbose || l == nil {
		return
	}
	l.Info(msg, args...)
}

type ctxKey struct{}

// NewContext returns a copy of ctx with the logger stored.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves a logger from ctx or returns slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
