package trace

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/cursor"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/window"
)

func newCalls() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "calls"}, []string{"method"})
}

func TestCursorCountsCalls(t *testing.T) {
	calls := newCalls()
	c := Wrap(cursor.NewDocs("fox", map[int][]int{2: {3, 8}}), calls)

	assert.Equal(t, 2, c.SkipDocCandidate(1))
	assert.Equal(t, 2, c.SkipDoc(1))
	assert.Equal(t, 3, c.SkipPos(1))
	assert.Equal(t, 8, c.SkipPos(4))
	assert.Equal(t, "fox", c.FeatureID())

	assert.Equal(t, 1.0, testutil.ToFloat64(calls.WithLabelValues(MethodSkipDoc)))
	assert.Equal(t, 1.0, testutil.ToFloat64(calls.WithLabelValues(MethodSkipDocCandidate)))
	assert.Equal(t, 2.0, testutil.ToFloat64(calls.WithLabelValues(MethodSkipPos)))
}

func TestWindowEngineLookups(t *testing.T) {
	calls := newCalls()
	args := WrapAll([]cursor.Cursor{
		cursor.NewSlice("A", 1, 5, 9, 15),
		cursor.NewSlice("B", 2, 6, 10, 16),
		cursor.NewSlice("C", 5, 11, 18),
	}, calls)

	w := window.New(args, 10, 0, 0)
	n := 0
	for more := w.First(); more; more = w.Next() {
		n++
	}
	assert.Equal(t, 9, n)
	// three primes plus one step per reported window
	assert.Equal(t, 12.0, testutil.ToFloat64(calls.WithLabelValues(MethodSkipPos)))
}
