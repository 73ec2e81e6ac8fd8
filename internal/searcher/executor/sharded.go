package executor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/errors"
)

// fanOut evaluates the plan on all shards concurrently. A failing shard is
// logged and skipped; the query fails only when every shard does.
func (e *Executor) fanOut(
	ctx context.Context,
	plan *parser.QueryPlan,
	opts Options,
	fns functions,
	scorer *ranker.Scorer,
) (*SearchResult, error) {
	results := make([]shardResult, len(e.shards))
	errs := make([]error, len(e.shards))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range e.shards {
		g.Go(func() error {
			sctx := gctx
			if e.timeoutPerShard > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(gctx, e.timeoutPerShard)
				defer cancel()
			}
			r, err := e.evaluate(sctx, s, plan, opts, fns, scorer)
			if err != nil {
				e.logger.Error("shard evaluation failed", "shard_id", s.ShardID(), "error", err)
				errs[i] = err
				return nil
			}
			results[i] = r
			return nil
		})
	}
	_ = g.Wait()

	var (
		failed   int
		lastErr  error
		perShard = make([][]ranker.ScoredDoc, 0, len(e.shards))
		merged   = &SearchResult{Query: plan.RawQuery}
	)
	for i, r := range results {
		if errs[i] != nil {
			failed++
			lastErr = errs[i]
			continue
		}
		perShard = append(perShard, r.docs)
		merged.TotalHits += r.hits
		merged.EvaluationFailures += r.failures
	}
	if failed == len(e.shards) {
		if apperrors.Is(lastErr, apperrors.ErrTimeout) {
			return nil, lastErr
		}
		return nil, fmt.Errorf("all %d shards failed: %w: %v", failed, apperrors.ErrShardUnavailable, lastErr)
	}
	merged.Results = merger.Merge(perShard, opts.Limit)
	return merged, nil
}
