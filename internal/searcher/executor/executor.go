// Package executor evaluates query plans against index shards. Documents
// are matched through cursors, ranked with BM25 plus the minimal window
// proximity weight and, on request, summarised with their tightest window.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/cursor"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/registry"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/summarizer"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/weighting"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/metrics"
)

// Shard is the read side of an index engine.
type Shard interface {
	ShardID() int
	Cursor(term string) (*index.Cursor, error)
	Forward(indexType string) (cursor.ForwardCursor, error)
	DocID(docNo int) string
	DocLength(docNo int) int
	DocFreq(term string) int
	Stats() indexer.Stats
	Superseded() *roaring.Bitmap
}

// TitleSource resolves display titles of documents.
type TitleSource interface {
	Titles(ctx context.Context, docIDs []string) (map[string]string, error)
}

type SearchResult struct {
	Query              string             `json:"query"`
	TotalHits          int                `json:"total_hits"`
	Results            []ranker.ScoredDoc `json:"results"`
	TermStats          map[string]int     `json:"term_stats"`
	EvaluationFailures int                `json:"evaluation_failures,omitempty"`
}

// Options control one execution. Params carries the proximity parameters
// (maxwinsize, cardinality and the summarizer's type); missing ones take
// their defaults.
type Options struct {
	Limit     int
	Params    map[string]string
	Boost     float64
	Summaries bool
	Trace     bool
}

type Executor struct {
	shards          []Shard
	registry        *registry.Registry
	metrics         *metrics.Metrics
	titles          TitleSource
	timeoutPerShard time.Duration
	logger          *slog.Logger
}

// New creates an executor over shards. m may be nil.
func New(shards []Shard, reg *registry.Registry, m *metrics.Metrics) *Executor {
	return &Executor{
		shards:   shards,
		registry: reg,
		metrics:  m,
		logger:   slog.Default().With("component", "query-executor"),
	}
}

func (e *Executor) SetTitleSource(ts TitleSource) { e.titles = ts }

func (e *Executor) SetTimeoutPerShard(d time.Duration) { e.timeoutPerShard = d }

// functions are the proximity functions configured for one query.
type functions struct {
	weighting  *weighting.MinWin
	summarizer *summarizer.MinWin
}

func (e *Executor) functions(opts Options) (functions, error) {
	weightParams := make(map[string]string, len(opts.Params))
	for k, v := range opts.Params {
		if k == "type" || k == "forwardIndexType" {
			continue
		}
		weightParams[k] = v
	}
	wf, err := e.registry.Weighting(weighting.Name, weightParams)
	if err != nil {
		return functions{}, err
	}
	fns := functions{weighting: wf}
	if opts.Summaries {
		sf, err := e.registry.Summarizer(summarizer.Name, opts.Params)
		if err != nil {
			return functions{}, err
		}
		fns.summarizer = sf
	}
	return fns, nil
}

// Execute runs plan on every shard and merges the results. Parameter
// errors are returned before any shard is touched.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, opts Options) (*SearchResult, error) {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}
	fns, err := e.functions(opts)
	if err != nil {
		return nil, err
	}
	if fns.summarizer != nil && len(e.shards) > 0 {
		// reports an unknown forward index type up front
		if _, err := e.shards[0].Forward(fns.summarizer.Config().ForwardIndexType); err != nil {
			return nil, fmt.Errorf("%s summarizer: %w", summarizer.Name, err)
		}
	}
	if len(plan.Features) == 0 || len(e.shards) == 0 {
		return &SearchResult{
			Query:     plan.RawQuery,
			Results:   []ranker.ScoredDoc{},
			TermStats: map[string]int{},
		}, nil
	}

	terms := plan.Terms()
	termStats := make(map[string]int, len(terms))
	var params ranker.RankParams
	var totalLength float64
	for _, s := range e.shards {
		st := s.Stats()
		params.TotalDocs += st.TotalDocs
		totalLength += st.AvgDocLength * float64(st.TotalDocs)
		for _, t := range terms {
			termStats[t] += s.DocFreq(t)
		}
	}
	if params.TotalDocs > 0 {
		params.AvgDocLength = totalLength / float64(params.TotalDocs)
	}
	scorer := ranker.NewScorer(params, termStats)

	result, err := e.fanOut(ctx, plan, opts, fns, scorer)
	if err != nil {
		return nil, err
	}
	result.TermStats = termStats
	e.addTitles(ctx, result.Results)

	e.logger.Info("query executed",
		"query", plan.RawQuery,
		"plan", plan.Canonical(),
		"hits", result.TotalHits,
		"results", len(result.Results),
		"evaluation_failures", result.EvaluationFailures,
	)
	return result, nil
}

func (e *Executor) addTitles(ctx context.Context, docs []ranker.ScoredDoc) {
	if e.titles == nil || len(docs) == 0 {
		return
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.DocID
	}
	titles, err := e.titles.Titles(ctx, ids)
	if err != nil {
		e.logger.Warn("resolving titles failed", "error", err)
		return
	}
	for i := range docs {
		docs[i].Title = titles[docs[i].DocID]
	}
}
