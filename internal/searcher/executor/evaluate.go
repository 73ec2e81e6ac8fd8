package executor

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/cursor"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/joinop"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/summarizer"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/trace"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/weighting"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/errors"
)

const ctxCheckInterval = 256

type shardResult struct {
	docs     []ranker.ScoredDoc
	hits     int
	failures int
}

// evaluate scores the documents of one shard and keeps its best opts.Limit.
// A document whose weight cannot be computed is left out and counted as a
// failure; the remaining documents are still evaluated.
func (e *Executor) evaluate(
	ctx context.Context,
	s Shard,
	plan *parser.QueryPlan,
	opts Options,
	fns functions,
	scorer *ranker.Scorer,
) (shardResult, error) {
	if err := ctx.Err(); err != nil {
		return shardResult{}, fmt.Errorf("shard %d: %w: %v", s.ShardID(), apperrors.ErrTimeout, err)
	}
	features := make([]cursor.Cursor, 0, len(plan.Features))
	for _, n := range plan.Features {
		c, err := e.featureCursor(s, n)
		if err != nil {
			return shardResult{}, err
		}
		features = append(features, c)
	}
	if opts.Trace && e.metrics != nil {
		features = trace.WrapAll(features, e.metrics.CursorCalls)
	}

	termCursors := make(map[string]*index.Cursor)
	for _, t := range plan.Terms() {
		c, err := s.Cursor(t)
		if err != nil {
			return shardResult{}, err
		}
		termCursors[t] = c
	}

	excluded := s.Superseded()
	for _, t := range plan.ExcludeTerms {
		c, err := s.Cursor(t)
		if err != nil {
			return shardResult{}, err
		}
		for d := c.SkipDoc(1); d != cursor.None; d = c.SkipDoc(d + 1) {
			excluded.Add(uint32(d))
		}
	}

	wctx := fns.weighting.NewContext()
	for _, f := range features {
		if err := wctx.AddFeature(weighting.FeatureMatch, f); err != nil {
			return shardResult{}, err
		}
	}

	k := len(features)
	if plan.Type == parser.QueryOR {
		k = 1
	}

	var res shardResult
	docs := make([]ranker.ScoredDoc, 0)
	visited := 0
	for docNo, _ := cursor.SkipDocAtLeast(features, 1, k); docNo != cursor.None; docNo, _ = cursor.SkipDocAtLeast(features, docNo+1, k) {
		visited++
		if visited%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return shardResult{}, fmt.Errorf("shard %d: %w: %v", s.ShardID(), apperrors.ErrTimeout, err)
			}
		}
		if excluded.Contains(uint32(docNo)) {
			continue
		}
		proximity, err := wctx.Call(docNo)
		if err != nil {
			res.failures++
			e.evaluationFailed(s, docNo, "weighting:"+weighting.Name, err)
			continue
		}
		res.hits++

		freqs := make(map[string]int, len(termCursors))
		for t, c := range termCursors {
			if c.SkipDoc(docNo) == docNo {
				freqs[t] = c.Frequency()
			}
		}
		bm25 := scorer.BM25(freqs, s.DocLength(docNo))
		docs = append(docs, ranker.ScoredDoc{
			DocID:     s.DocID(docNo),
			DocNo:     docNo,
			ShardID:   s.ShardID(),
			BM25:      bm25,
			Proximity: proximity,
			Score:     ranker.Combine(bm25, proximity, opts.Boost),
		})
	}
	if e.metrics != nil {
		e.metrics.WindowsExamined.Add(float64(wctx.Examined()))
	}
	res.docs = ranker.Top(docs, opts.Limit)

	if fns.summarizer != nil {
		failures, err := e.summarize(s, features, fns.summarizer, res.docs)
		if err != nil {
			return shardResult{}, err
		}
		res.failures += failures
	}
	return res, nil
}

// featureCursor opens the cursor of a term, or joins the cursors of a
// window's items.
func (e *Executor) featureCursor(s Shard, n parser.Node) (cursor.Cursor, error) {
	if n.Window == nil {
		c, err := s.Cursor(n.Term)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	op, err := e.registry.JoinOperator(joinop.Name, n.Window.Params())
	if err != nil {
		return nil, err
	}
	subs := make([]cursor.Cursor, 0, len(n.Window.Items))
	for _, item := range n.Window.Items {
		c, err := e.featureCursor(s, item)
		if err != nil {
			return nil, err
		}
		subs = append(subs, c)
	}
	w, err := op.Join(subs)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// summarize attaches summaries to docs in place and returns how many could
// not be computed.
func (e *Executor) summarize(s Shard, features []cursor.Cursor, sf *summarizer.MinWin, docs []ranker.ScoredDoc) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	sctx, err := sf.NewContext(s)
	if err != nil {
		return 0, err
	}
	for _, f := range features {
		if err := sctx.AddFeature(summarizer.FeatureMatch, f); err != nil {
			return 0, err
		}
	}
	failures := 0
	for i := range docs {
		elems, err := sctx.Summary(docs[i].DocNo)
		if err != nil {
			failures++
			e.evaluationFailed(s, docs[i].DocNo, "summarizer:"+summarizer.Name, err)
			continue
		}
		docs[i].Summary = elems
	}
	return failures, nil
}

func (e *Executor) evaluationFailed(s Shard, docNo int, function string, err error) {
	e.logger.Warn("proximity evaluation failed",
		"doc_id", s.DocID(docNo),
		"shard_id", s.ShardID(),
		"function", function,
		"error", err,
	)
	if e.metrics != nil {
		e.metrics.EvaluationFailures.WithLabelValues(function).Inc()
	}
}
