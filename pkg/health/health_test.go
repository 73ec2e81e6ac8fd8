package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWorstStatus(t *testing.T) {
	c := NewChecker()
	c.Register("shards", ShardsCheck(func() int { return 4 }))
	c.Register("redis", PingCheck(nil))

	report := c.Run(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "4 shards active", report.Components["shards"].Message)
	assert.Equal(t, "not configured", report.Components["redis"].Message)

	c.Register("shards", ShardsCheck(func() int { return 0 }))
	assert.Equal(t, StatusDown, c.Run(context.Background()).Status)
}

func TestPingCheck(t *testing.T) {
	up := PingCheck(func(context.Context) error { return nil })(context.Background())
	assert.Equal(t, StatusUp, up.Status)

	down := PingCheck(func(context.Context) error { return errors.New("connection refused") })(context.Background())
	assert.Equal(t, StatusDegraded, down.Status)
	assert.Equal(t, "connection refused", down.Message)
}

func TestReadyHandler(t *testing.T) {
	c := NewChecker()
	c.Register("redis", PingCheck(nil))

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, StatusDegraded, report.Status)

	c.Register("shards", ShardsCheck(func() int { return 0 }))
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	c.LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
