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

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "JSON")
	log.Info("dropped")
	log.Warn("shard skipped", "shard_id", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shard skipped", rec["msg"])
	assert.Equal(t, float64(2), rec["shard_id"])
}

func TestNewTextDefaults(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "verbose", "logfmt")
	log.Debug("hidden")
	log.Info("window found", "size", 3)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "size=3")
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(New(&buf, "info", "text"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := WithRequestID(context.Background(), "req-42")
	assert.Equal(t, "req-42", RequestID(ctx))
	FromContext(ctx).Info("search")
	assert.Contains(t, buf.String(), "request_id=req-42")

	buf.Reset()
	FromContext(context.Background()).Info("search")
	assert.NotContains(t, buf.String(), "request_id")
	assert.Equal(t, "", RequestID(context.Background()))
}
