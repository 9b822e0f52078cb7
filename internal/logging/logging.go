// Package logging wraps log/slog with attributes carried on the context.
package logging

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
)

type ctxAttrsKey struct{}

var (
	mu   sync.RWMutex
	base = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
)

// SetDefault replaces the process logger.
func SetDefault(l *slog.Logger) {
	if l == nil {
		return
	}
	mu.Lock()
	base = l
	mu.Unlock()
}

func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// New builds the process logger from a format ("text" or "json") and level.
func New(format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// WithAttrs returns a context whose log lines carry attrs. Later keys win.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(attrs) == 0 {
		return ctx
	}
	return context.WithValue(ctx, ctxAttrsKey{}, merge(attrsFrom(ctx), attrs))
}

func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelInfo, msg, attrs)
}

func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelWarn, msg, attrs)
}

func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelError, msg, attrs)
}

// Err logs an error with its unwrap chain.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("err", "")
	}
	chain := make([]string, 0, 4)
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, e.Error())
	}
	return slog.Group("err", slog.String("message", err.Error()), slog.Any("chain", chain))
}

func emit(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	Logger().LogAttrs(ctx, level, msg, merge(attrsFrom(ctx), attrs)...)
}

func attrsFrom(ctx context.Context) []slog.Attr {
	attrs, _ := ctx.Value(ctxAttrsKey{}).([]slog.Attr)
	return attrs
}

func merge(base, extra []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(base)+len(extra))
	index := make(map[string]int, len(base)+len(extra))
	for _, a := range append(append([]slog.Attr{}, base...), extra...) {
		if i, ok := index[a.Key]; ok && a.Key != "" {
			out[i] = a
			continue
		}
		out = append(out, a)
		index[a.Key] = len(out) - 1
	}
	return out
}
