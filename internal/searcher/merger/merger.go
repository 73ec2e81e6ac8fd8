// Package merger combines ranked results from several shards.
package merger

import (
	"container/heap"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/ranker"
)

// Merge keeps the limit best documents of the per-shard results, ordered
// like ranker.Sort. A non-positive limit keeps 10.
func Merge(shardResults [][]ranker.ScoredDoc, limit int) []ranker.ScoredDoc {
	if limit <= 0 {
		limit = 10
	}
	// the worst kept document sits at the root
	h := make(worstFirst, 0, limit+1)
	for _, results := range shardResults {
		for _, doc := range results {
			if len(h) == limit && !ranker.Before(doc, h[0]) {
				continue
			}
			heap.Push(&h, doc)
			if len(h) > limit {
				heap.Pop(&h)
			}
		}
	}
	out := make([]ranker.ScoredDoc, len(h))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(ranker.ScoredDoc)
	}
	return out
}

type worstFirst []ranker.ScoredDoc

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return ranker.Before(h[j], h[i]) }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x any)        { *h = append(*h, x.(ranker.ScoredDoc)) }

func (h *worstFirst) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
