package handler

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/kafka"
)

// Reloader picks up segments written by the indexer.
type Reloader interface {
	ReloadAll() int
}

// HandleIndexComplete consumes index-complete events: shards reload their
// segments and cached results are dropped. queryCache may be nil.
func HandleIndexComplete(r Reloader, queryCache *cache.QueryCache) kafka.MessageHandler {
	log := slog.Default().With("component", "index-watcher")
	return func(ctx context.Context, key []byte, value []byte) error {
		ev, err := kafka.DecodeJSON[kafka.IndexCompleteEvent](value)
		if err != nil {
			log.Error("dropping malformed index event", "key", string(key), "error", err)
			return nil
		}
		loaded := r.ReloadAll()
		log.Info("index segment announced",
			"shard_id", ev.ShardID,
			"segment", ev.Segment,
			"docs", ev.Docs,
			"segments_loaded", loaded,
		)
		if loaded == 0 || queryCache == nil {
			return nil
		}
		return queryCache.Invalidate(ctx)
	}
}
