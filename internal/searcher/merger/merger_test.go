package merger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/ranker"
)

func TestMerge(t *testing.T) {
	shards := [][]ranker.ScoredDoc{
		{{DocID: "a", Score: 3}, {DocID: "d", Score: 1}},
		{{DocID: "b", Score: 2}, {DocID: "c", Score: 2}},
		nil,
	}
	got := Merge(shards, 3)
	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
}

func TestMergeDefaultLimit(t *testing.T) {
	var docs []ranker.ScoredDoc
	for i := 0; i < 15; i++ {
		docs = append(docs, ranker.ScoredDoc{DocID: string(rune('a' + i)), Score: float64(i)})
	}
	got := Merge([][]ranker.ScoredDoc{docs}, 0)
	assert.Len(t, got, 10)
	assert.Equal(t, "o", got[0].DocID)
}

func ids(docs []ranker.ScoredDoc) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.DocID
	}
	return out
}
