package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/registry"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/summarizer"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/metrics"
)

func newEngine(t *testing.T, shardID int) *indexer.Engine {
	t.Helper()
	e, err := indexer.NewEngine(config.IndexerConfig{
		DataDir:        t.TempDir(),
		SegmentMaxSize: 1 << 30,
		FlushInterval:  time.Hour,
	}, shardID)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func index3(t *testing.T, engines ...*indexer.Engine) {
	t.Helper()
	pick := func(i int) *indexer.Engine { return engines[i%len(engines)] }
	_, err := pick(0).IndexDocument("z-close", "", "fox dog bird cat")
	require.NoError(t, err)
	_, err = pick(1).IndexDocument("a-far", "", "fox bird cat dog")
	require.NoError(t, err)
	_, err = pick(2).IndexDocument("m-plain", "", "fox eats dog")
	require.NoError(t, err)
}

func run(t *testing.T, ex *Executor, query string, opts Options) *SearchResult {
	t.Helper()
	plan, err := parser.Parse(query)
	require.NoError(t, err)
	res, err := ex.Execute(context.Background(), plan, opts)
	require.NoError(t, err)
	return res
}

func ids(docs []ranker.ScoredDoc) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.DocID
	}
	return out
}

func TestExecuteProximityBoost(t *testing.T) {
	e := newEngine(t, 0)
	index3(t, e)
	ex := New([]Shard{e}, registry.Default(), nil)

	res := run(t, ex, "fox dog", Options{Limit: 10, Boost: 1})
	assert.Equal(t, 3, res.TotalHits)
	require.Len(t, res.Results, 3)

	byID := map[string]ranker.ScoredDoc{}
	for _, d := range res.Results {
		byID[d.DocID] = d
	}
	assert.Equal(t, 0.5, byID["z-close"].Proximity)
	assert.Equal(t, 0.25, byID["a-far"].Proximity)
	assert.InDelta(t, 1.0/3, byID["m-plain"].Proximity, 1e-9)
	assert.Equal(t, byID["z-close"].BM25, byID["a-far"].BM25)
	assert.Greater(t, byID["z-close"].Score, byID["a-far"].Score)
	assert.Equal(t, map[string]int{"fox": 3, "dog": 3}, res.TermStats)

	// without the boost equal BM25 scores fall back to document id order
	plain := run(t, ex, "fox dog", Options{Limit: 10})
	pos := map[string]int{}
	for i, id := range ids(plain.Results) {
		pos[id] = i
	}
	assert.Less(t, pos["a-far"], pos["z-close"])
}

func TestExecuteWindowMaxSize(t *testing.T) {
	e := newEngine(t, 0)
	index3(t, e)
	ex := New([]Shard{e}, registry.Default(), nil)

	res := run(t, ex, "fox dog", Options{Limit: 10, Params: map[string]string{"maxwinsize": "2"}})
	byID := map[string]ranker.ScoredDoc{}
	for _, d := range res.Results {
		byID[d.DocID] = d
	}
	assert.Equal(t, 0.5, byID["z-close"].Proximity)
	assert.Equal(t, 0.0, byID["a-far"].Proximity)
	assert.Equal(t, 0.0, byID["m-plain"].Proximity)
}

func TestExecuteWindowQuery(t *testing.T) {
	e := newEngine(t, 0)
	index3(t, e)
	ex := New([]Shard{e}, registry.Default(), nil)

	res := run(t, ex, "WINDOW(2: fox dog)", Options{Limit: 10})
	assert.Equal(t, []string{"m-plain", "z-close"}, sortedIDs(res.Results))

	res = run(t, ex, "WINDOW(1: fox dog)", Options{Limit: 10})
	assert.Equal(t, []string{"z-close"}, ids(res.Results))
	assert.Equal(t, 1.0, res.Results[0].Proximity)

	res = run(t, ex, "WINDOW(1,1: fox dog)", Options{Limit: 10})
	assert.Equal(t, 3, res.TotalHits)
}

func TestExecuteBooleanOperators(t *testing.T) {
	e := newEngine(t, 0)
	index3(t, e)
	ex := New([]Shard{e}, registry.Default(), nil)

	res := run(t, ex, "fox dog NOT bird", Options{Limit: 10})
	assert.Equal(t, []string{"m-plain"}, ids(res.Results))

	res = run(t, ex, "eats OR cat", Options{Limit: 10})
	assert.Equal(t, 3, res.TotalHits)

	res = run(t, ex, "eats cat", Options{Limit: 10})
	assert.Equal(t, 0, res.TotalHits)
	assert.Empty(t, res.Results)
}

func TestExecuteLimit(t *testing.T) {
	e := newEngine(t, 0)
	index3(t, e)
	ex := New([]Shard{e}, registry.Default(), nil)

	res := run(t, ex, "fox dog", Options{Limit: 1, Boost: 1})
	assert.Equal(t, 3, res.TotalHits)
	assert.Len(t, res.Results, 1)
}

func TestExecuteSummaries(t *testing.T) {
	e := newEngine(t, 0)
	index3(t, e)
	ex := New([]Shard{e}, registry.Default(), nil)

	res := run(t, ex, "fox dog", Options{Limit: 10, Summaries: true})
	got := map[string][]summarizer.Element{}
	for _, d := range res.Results {
		got[d.DocID] = d.Summary
	}
	assert.Equal(t, []summarizer.Element{{Name: "minwin", Text: "fox dog"}}, got["z-close"])
	assert.Equal(t, []summarizer.Element{{Name: "minwin", Text: "fox bird cat dog"}}, got["a-far"])
	assert.Equal(t, []summarizer.Element{{Name: "minwin", Text: "fox eats dog"}}, got["m-plain"])

	res = run(t, ex, "fox dog", Options{Limit: 10, Summaries: true, Params: map[string]string{"type": "stem"}})
	for _, d := range res.Results {
		if d.DocID == "m-plain" {
			assert.Equal(t, "fox eat dog", d.Summary[0].Text)
		}
	}
}

func TestExecuteSkipsSupersededDocuments(t *testing.T) {
	e := newEngine(t, 0)
	index3(t, e)
	_, err := e.IndexDocument("a-far", "", "nothing relevant")
	require.NoError(t, err)
	ex := New([]Shard{e}, registry.Default(), nil)

	res := run(t, ex, "fox dog", Options{Limit: 10})
	assert.Equal(t, []string{"m-plain", "z-close"}, sortedIDs(res.Results))
}

func TestExecuteAcrossShards(t *testing.T) {
	e0, e1 := newEngine(t, 0), newEngine(t, 1)
	index3(t, e0, e1)
	ex := New([]Shard{e0, e1}, registry.Default(), nil)

	res := run(t, ex, "fox dog", Options{Limit: 10, Boost: 1})
	assert.Equal(t, 3, res.TotalHits)
	assert.Equal(t, "z-close", res.Results[0].DocID)

	shards := map[string]int{}
	for _, d := range res.Results {
		shards[d.DocID] = d.ShardID
	}
	assert.Equal(t, map[string]int{"z-close": 0, "a-far": 1, "m-plain": 0}, shards)
}

type failingShard struct {
	*indexer.Engine
}

func (failingShard) Cursor(string) (*index.Cursor, error) {
	return nil, errors.New("segment unreadable")
}

func TestExecuteShardFailures(t *testing.T) {
	e0, e1 := newEngine(t, 0), newEngine(t, 1)
	index3(t, e0, e1)

	ex := New([]Shard{e0, failingShard{e1}}, registry.Default(), nil)
	res := run(t, ex, "fox dog", Options{Limit: 10})
	assert.Equal(t, []string{"m-plain", "z-close"}, sortedIDs(res.Results))

	ex = New([]Shard{failingShard{e0}, failingShard{e1}}, registry.Default(), nil)
	plan, err := parser.Parse("fox dog")
	require.NoError(t, err)
	_, err = ex.Execute(context.Background(), plan, Options{})
	assert.ErrorIs(t, err, apperrors.ErrShardUnavailable)
}

func TestExecuteCancelled(t *testing.T) {
	e := newEngine(t, 0)
	index3(t, e)
	ex := New([]Shard{e}, registry.Default(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	plan, err := parser.Parse("fox dog")
	require.NoError(t, err)
	_, err = ex.Execute(ctx, plan, Options{})
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
}

func TestExecuteParameterErrors(t *testing.T) {
	e := newEngine(t, 0)
	index3(t, e)
	ex := New([]Shard{e}, registry.Default(), nil)
	plan, err := parser.Parse("fox dog")
	require.NoError(t, err)

	_, err = ex.Execute(context.Background(), plan, Options{Params: map[string]string{"maxwinsize": "0"}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidParameter)

	_, err = ex.Execute(context.Background(), plan, Options{Params: map[string]string{"window": "3"}})
	assert.ErrorIs(t, err, apperrors.ErrUnknownParameter)

	_, err = ex.Execute(context.Background(), plan, Options{Summaries: true, Params: map[string]string{"type": "phonetic"}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidParameter)
}

func TestExecuteEmptyPlan(t *testing.T) {
	e := newEngine(t, 0)
	ex := New([]Shard{e}, registry.Default(), nil)
	res := run(t, ex, "the", Options{})
	assert.Equal(t, 0, res.TotalHits)
	assert.Empty(t, res.Results)
}

type titles map[string]string

func (ts titles) Titles(_ context.Context, ids []string) (map[string]string, error) {
	out := map[string]string{}
	for _, id := range ids {
		if t, ok := ts[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func TestExecuteTitlesAndTrace(t *testing.T) {
	e := newEngine(t, 0)
	index3(t, e)
	m := metrics.New(prometheus.NewRegistry())
	ex := New([]Shard{e}, registry.Default(), m)
	ex.SetTitleSource(titles{"z-close": "Close Encounters"})

	res := run(t, ex, "fox dog", Options{Limit: 10, Boost: 1, Trace: true})
	assert.Equal(t, "Close Encounters", res.Results[0].Title)
	assert.Empty(t, res.Results[1].Title)
	assert.Greater(t, testutil.ToFloat64(m.CursorCalls.WithLabelValues("skipdoc")), 0.0)
	assert.Greater(t, testutil.ToFloat64(m.WindowsExamined), 0.0)
}

func sortedIDs(docs []ranker.ScoredDoc) []string {
	out := ids(docs)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
