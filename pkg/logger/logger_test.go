package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("invalid"))
}

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})

	log.Info("hidden")
	log.Warn("shown", "file", "Rossi Mario.xlsx")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "shown", record["msg"])
	assert.Equal(t, "Rossi Mario.xlsx", record["file"])
}

func TestWithContextAddsActor(t *testing.T) {
	var buf bytes.Buffer
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })
	Init(Config{Level: "info", Format: "text", Output: &buf})

	ctx := WithActor(context.Background(), "segreteria")
	ctx = context.WithValue(ctx, RequestIDKey, "req-1")
	WithContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), "actor=segreteria")
	assert.Contains(t, buf.String(), "request_id=req-1")
}
