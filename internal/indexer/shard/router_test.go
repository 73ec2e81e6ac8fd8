package shard

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/config"
)

func newRouter(t *testing.T, dir string, shards int) *Router {
	t.Helper()
	r, err := NewRouter(config.IndexerConfig{
		DataDir:        dir,
		SegmentMaxSize: 1 << 30,
		FlushInterval:  time.Hour,
		NumShards:      shards,
	})
	require.NoError(t, err)
	return r
}

func TestShardForIsStable(t *testing.T) {
	counts := make([]int, 4)
	for i := 0; i < 400; i++ {
		id := fmt.Sprintf("doc-%d", i)
		s := ShardFor(id, 4)
		require.Equal(t, s, ShardFor(id, 4))
		counts[s]++
	}
	for shard, n := range counts {
		assert.Positive(t, n, "shard %d", shard)
	}
}

func TestRouterRoutesAndReloads(t *testing.T) {
	dir := t.TempDir()
	r := newRouter(t, dir, 3)
	defer r.Close()

	assert.Equal(t, 3, r.NumShards())
	assert.Len(t, r.Engines(), 3)

	engine := r.RouteDocument("doc-7")
	assert.Equal(t, r.ShardFor("doc-7"), engine.ShardID())
	_, err := engine.IndexDocument("doc-7", "", "window join")
	require.NoError(t, err)
	require.NoError(t, r.FlushAll())

	searcher := newRouter(t, dir, 3)
	defer searcher.Close()
	assert.Equal(t, 0, searcher.ReloadAll())

	_, err = r.RouteDocument("doc-8").IndexDocument("doc-8", "", "more text")
	require.NoError(t, err)
	require.NoError(t, r.FlushAll())
	assert.Equal(t, 1, searcher.ReloadAll())

	_, err = r.Route(5)
	assert.Error(t, err)
}

func TestNewRouterRejectsZeroShards(t *testing.T) {
	_, err := NewRouter(config.IndexerConfig{DataDir: t.TempDir()})
	assert.Error(t, err)
}
