package logging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithAttrsLaterKeysWin(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { SetDefault(prev) })

	ctx := WithAttrs(context.Background(), slog.String("component", "a"), slog.String("station", "s1"))
	ctx = WithAttrs(ctx, slog.String("component", "b"))
	Info(ctx, "hello", slog.Int("n", 1))

	out := buf.String()
	assert.Contains(t, out, "component=b")
	assert.NotContains(t, out, "component=a")
	assert.Contains(t, out, "station=s1")
	assert.Contains(t, out, "n=1")
}

func TestErrIncludesChain(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { SetDefault(prev) })

	root := errors.New("connection refused")
	Error(context.Background(), "failed", Err(fmt.Errorf("insert meal: %w", root)))

	assert.Contains(t, buf.String(), "connection refused")
	assert.Contains(t, buf.String(), "insert meal")
}
