// Package logging настраивает slog и хранит логгер запроса в контексте.
package logging

import (
	"context"
	"io"
	"log/slog"
)

type ctxKey struct{}

// New создает логгер: "text" - читаемый формат с уровнем debug,
// все остальное - JSON с уровнем info.
func New(w io.Writer, format string) *slog.Logger {
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return slog.New(handler)
}

// Setup создает логгер и делает его логгером по умолчанию.
func Setup(w io.Writer, format string) *slog.Logger {
	l := New(w, format)
	slog.SetDefault(l)
	return l
}

func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok || l == nil {
		return slog.Default()
	}
	return l
}
