package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsesPrivateRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	// a second set on another registry must not collide
	New(prometheus.NewRegistry())

	m.EvaluationFailures.WithLabelValues("minwin").Inc()
	m.WindowsExamined.Add(9)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EvaluationFailures.WithLabelValues("minwin")))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.WindowsExamined))
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.DocsIndexedTotal.Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "docs_indexed_total 1")
}

func TestStartServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg).DocsIndexedTotal.Add(3)

	shutdown, err := StartServer(0, reg)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
