package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/config"
)

func TestDecodeJSON(t *testing.T) {
	ev, err := DecodeJSON[DocumentEvent]([]byte(`{"document_id":"d1","title":"t","body":"b"}`))
	require.NoError(t, err)
	assert.Equal(t, "d1", ev.DocumentID)
	assert.Equal(t, "b", ev.Body)

	_, err = DecodeJSON[IndexCompleteEvent]([]byte(`{"shard_id":`))
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	msgs, err := encode([]Event{
		{Key: "3", Value: IndexCompleteEvent{ShardID: 3, Segment: "seg_000001.pseg", Docs: 2}},
		{Key: "doc-1", Value: DocumentEvent{DocumentID: "doc-1", Body: "quick fox"}},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, []byte("3"), msgs[0].Key)

	ev, err := DecodeJSON[IndexCompleteEvent](msgs[0].Value)
	require.NoError(t, err)
	assert.Equal(t, 3, ev.ShardID)
	assert.Equal(t, "seg_000001.pseg", ev.Segment)

	doc, err := DecodeJSON[DocumentEvent](msgs[1].Value)
	require.NoError(t, err)
	assert.Equal(t, "quick fox", doc.Body)

	_, err = encode([]Event{{Key: "bad", Value: make(chan int)}})
	assert.ErrorContains(t, err, `marshaling event "bad"`)
}

func TestPublishBatchEmpty(t *testing.T) {
	p := NewProducer(config.KafkaConfig{Brokers: []string{"localhost:9092"}}, "document-ingest")
	defer p.Close()
	assert.Equal(t, "document-ingest", p.Topic())
	assert.NoError(t, p.PublishBatch(context.Background(), nil))
}
