// Package consumer indexes documents from the ingest topic and announces
// flushed segments on the index-complete topic.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/docstore"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/indexer/shard"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/resilience"
)

// StatusUpdater records indexing outcomes. It is implemented by
// docstore.Store.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, rec docstore.Record) error
}

// HandleMessage returns a handler that indexes each document event in the
// shard its id routes to. store and m may be nil.
func HandleMessage(router *shard.Router, store StatusUpdater, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[kafka.DocumentEvent](value)
		if err != nil {
			logger.Error("failed to decode document event",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		if err := validator.ValidateDocument(event); err != nil {
			logger.Warn("dropping invalid document event",
				"key", string(key),
				"error", err,
			)
			return nil
		}

		shardID := router.ShardFor(event.DocumentID)
		engine := router.RouteDocument(event.DocumentID)
		docNo, err := engine.IndexDocument(event.DocumentID, event.Title, event.Body)
		rec := docstore.Record{
			DocumentID: event.DocumentID,
			Title:      event.Title,
			ShardID:    shardID,
			Status:     docstore.StatusIndexed,
		}
		if err != nil {
			rec.Status = docstore.StatusFailed
			updateStatus(ctx, store, rec, logger)
			return fmt.Errorf("indexing document %s in shard %d: %w", event.DocumentID, shardID, err)
		}
		updateStatus(ctx, store, rec, logger)
		if m != nil {
			m.DocsIndexedTotal.Inc()
			m.ShardDocCount.WithLabelValues(strconv.Itoa(shardID)).Set(float64(engine.Stats().TotalDocs))
		}

		logger.Debug("document indexed",
			"doc_id", event.DocumentID,
			"doc_no", docNo,
			"shard_id", shardID,
		)
		return nil
	}
}

func updateStatus(ctx context.Context, store StatusUpdater, rec docstore.Record, logger *slog.Logger) {
	if store == nil {
		return
	}
	if err := store.UpdateStatus(ctx, rec); err != nil {
		logger.Error("failed to update document status",
			"doc_id", rec.DocumentID,
			"status", rec.Status,
			"error", err,
		)
	}
}

// PublishFlushes returns a flush hook that announces every new segment,
// retrying failed publishes with backoff, and counts flushes.
func PublishFlushes(ctx context.Context, publisher kafka.Publisher, retry resilience.RetryConfig, m *metrics.Metrics) func(indexer.FlushEvent) {
	logger := slog.Default().With("component", "flush-publisher")
	return func(ev indexer.FlushEvent) {
		if m != nil {
			m.IndexFlushesTotal.WithLabelValues("success").Inc()
		}
		event := kafka.Event{
			Key: strconv.Itoa(ev.ShardID),
			Value: kafka.IndexCompleteEvent{
				ShardID:   ev.ShardID,
				Segment:   ev.Segment,
				Docs:      ev.Docs,
				FlushedAt: time.Now().UTC(),
			},
		}
		err := resilience.Retry(ctx, "publish index-complete", retry, func() error {
			return publisher.Publish(ctx, event)
		})
		if err != nil {
			logger.Error("failed to publish index-complete event",
				"shard_id", ev.ShardID,
				"segment", ev.Segment,
				"error", err,
			)
		}
	}
}
