package kafka

import (
	"context"
	"time"
)

// DocumentEvent is the payload of the document ingest topic.
type DocumentEvent struct {
	DocumentID string    `json:"document_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	IngestedAt time.Time `json:"ingested_at"`
}

// IndexCompleteEvent announces a segment flushed by the indexer. Searchers
// reload their shards and drop cached results when they receive it.
type IndexCompleteEvent struct {
	ShardID   int       `json:"shard_id"`
	Segment   string    `json:"segment"`
	Docs      int       `json:"docs"`
	FlushedAt time.Time `json:"flushed_at"`
}

// Publisher is implemented by Producer.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
