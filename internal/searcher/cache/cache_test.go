package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/ranker"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStore() *memStore { return &memStore{data: map[string]string{}} }

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (s *memStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = string(value.([]byte))
	return nil
}

func (s *memStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}

func mustParse(t *testing.T, q string) *parser.QueryPlan {
	t.Helper()
	plan, err := parser.Parse(q)
	require.NoError(t, err)
	return plan
}

func TestKey(t *testing.T) {
	opts := executor.Options{Limit: 10, Params: map[string]string{"maxwinsize": "5"}}
	k1 := Key(mustParse(t, "Foxes  dogs"), opts)
	k2 := Key(mustParse(t, "fox dog"), opts)
	assert.Equal(t, k1, k2)
	assert.True(t, strings.HasPrefix(k1, keyPrefix))

	assert.NotEqual(t, k1, Key(mustParse(t, "dog fox"), opts))
	assert.NotEqual(t, k1, Key(mustParse(t, "fox dog"), executor.Options{Limit: 10, Params: map[string]string{"maxwinsize": "6"}}))
	assert.NotEqual(t, k1, Key(mustParse(t, "fox dog"), executor.Options{Limit: 10, Params: map[string]string{"maxwinsize": "5"}, Summaries: true}))
	assert.NotEqual(t, k1, Key(mustParse(t, "WINDOW(5: fox dog)"), opts))

	traced := opts
	traced.Trace = true
	assert.Equal(t, k1, Key(mustParse(t, "fox dog"), traced))
}

func TestGetOrCompute(t *testing.T) {
	c := New(newMemStore(), time.Minute, nil)
	plan := mustParse(t, "fox dog")
	opts := executor.Options{Limit: 5}

	var calls atomic.Int32
	compute := func() (*executor.SearchResult, error) {
		calls.Add(1)
		return &executor.SearchResult{
			Query:     "fox dog",
			TotalHits: 1,
			Results:   []ranker.ScoredDoc{{DocID: "d1", Score: 0.5, Proximity: 0.5}},
		}, nil
	}

	res, hit, err := c.GetOrCompute(context.Background(), plan, opts, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "d1", res.Results[0].DocID)

	res, hit, err = c.GetOrCompute(context.Background(), plan, opts, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 0.5, res.Results[0].Proximity)
	assert.Equal(t, int32(1), calls.Load())

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)

	require.NoError(t, c.Invalidate(context.Background()))
	_, hit, err = c.GetOrCompute(context.Background(), plan, opts, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetOrComputeError(t *testing.T) {
	store := newMemStore()
	c := New(store, time.Minute, nil)
	want := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), mustParse(t, "fox"), executor.Options{}, func() (*executor.SearchResult, error) {
		return nil, want
	})
	assert.ErrorIs(t, err, want)
	assert.Empty(t, store.data)
}
