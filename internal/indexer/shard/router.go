// Package shard routes documents to index engines. Every shard owns an
// indexer.Engine with its own data directory; a document belongs to the
// shard selected by the xxhash of its id.
package shard

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/config"
)

// Router holds one engine per shard, indexed by shard id.
type Router struct {
	mu      sync.RWMutex
	engines []*indexer.Engine
	logger  *slog.Logger
}

// NewRouter opens baseCfg.NumShards engines under baseCfg.DataDir/shard-<id>.
// Existing segments of every shard are loaded.
func NewRouter(baseCfg config.IndexerConfig) (*Router, error) {
	if baseCfg.NumShards <= 0 {
		return nil, fmt.Errorf("invalid shard count %d", baseCfg.NumShards)
	}
	r := &Router{
		engines: make([]*indexer.Engine, 0, baseCfg.NumShards),
		logger:  slog.Default().With("component", "shard-router"),
	}
	for i := 0; i < baseCfg.NumShards; i++ {
		shardCfg := baseCfg
		shardCfg.DataDir = filepath.Join(baseCfg.DataDir, fmt.Sprintf("shard-%d", i))
		engine, err := indexer.NewEngine(shardCfg, i)
		if err != nil {
			_ = r.closeAll()
			return nil, fmt.Errorf("creating engine for shard %d: %w", i, err)
		}
		r.engines = append(r.engines, engine)
		r.logger.Debug("shard engine opened", "shard_id", i, "data_dir", shardCfg.DataDir)
	}
	r.logger.Info("shard router ready", "num_shards", baseCfg.NumShards, "data_dir", baseCfg.DataDir)
	return r, nil
}

// ShardFor maps a document id onto one of numShards shards.
func ShardFor(docID string, numShards int) int {
	return int(xxhash.Sum64String(docID) % uint64(numShards))
}

func (r *Router) ShardFor(docID string) int {
	return ShardFor(docID, len(r.engines))
}

// Route returns the engine of a shard id.
func (r *Router) Route(shardID int) (*indexer.Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if shardID < 0 || shardID >= len(r.engines) {
		return nil, fmt.Errorf("unknown shard ID %d (valid range: 0-%d)", shardID, len(r.engines)-1)
	}
	return r.engines[shardID], nil
}

// RouteDocument returns the engine that owns docID.
func (r *Router) RouteDocument(docID string) *indexer.Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.engines[ShardFor(docID, len(r.engines))]
}

// Engines returns the engines ordered by shard id.
func (r *Router) Engines() []*indexer.Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*indexer.Engine(nil), r.engines...)
}

func (r *Router) NumShards() int {
	return len(r.engines)
}

// SetFlushHook registers fn on every engine.
func (r *Router) SetFlushHook(fn func(indexer.FlushEvent)) {
	for _, engine := range r.Engines() {
		engine.SetFlushHook(fn)
	}
}

// FlushAll writes the memory index of every shard to a segment. All shards
// are attempted; the returned error joins the failures.
func (r *Router) FlushAll() error {
	var errs []error
	for id, engine := range r.Engines() {
		if err := engine.Flush(); err != nil {
			r.logger.Error("flush failed", "shard_id", id, "error", err)
			errs = append(errs, fmt.Errorf("shard %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// ReloadAll loads segments flushed by another process and returns how many
// were new across all shards.
func (r *Router) ReloadAll() int {
	total := 0
	for _, engine := range r.Engines() {
		total += engine.ReloadSegments()
	}
	return total
}

// Close flushes and closes every engine.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeAll()
}

func (r *Router) closeAll() error {
	var errs []error
	for id, engine := range r.engines {
		if err := engine.Close(); err != nil {
			r.logger.Error("close failed", "shard_id", id, "error", err)
			errs = append(errs, fmt.Errorf("shard %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
