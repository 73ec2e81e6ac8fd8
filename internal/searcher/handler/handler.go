// Package handler serves the search HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/registry"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/metrics"
)

type SearchExecutor interface {
	Execute(ctx context.Context, plan *parser.QueryPlan, opts executor.Options) (*executor.SearchResult, error)
}

// Settings are the request defaults taken from the service configuration.
type Settings struct {
	DefaultLimit int
	MaxResults   int
	Proximity    config.ProximityConfig
}

type Handler struct {
	executor SearchExecutor
	cache    *cache.QueryCache
	registry *registry.Registry
	settings Settings
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates the handler. queryCache and m may be nil.
func New(exec SearchExecutor, queryCache *cache.QueryCache, reg *registry.Registry, settings Settings, m *metrics.Metrics) *Handler {
	return &Handler{
		executor: exec,
		cache:    queryCache,
		registry: reg,
		settings: settings,
		metrics:  m,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// Search handles GET /api/v1/search. Besides q and limit it accepts the
// proximity parameters maxwinsize, cardinality and type, plus boost and
// summary.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)
	q := r.URL.Query()

	query := q.Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	opts, err := h.options(q)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	plan, err := parser.Parse(query)
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	if len(plan.Features) == 0 {
		h.observe("zero_result", "none", start, 0)
		h.writeJSON(w, http.StatusOK, &executor.SearchResult{
			Query:     query,
			Results:   []ranker.ScoredDoc{},
			TermStats: map[string]int{},
		})
		return
	}

	var result *executor.SearchResult
	cacheHit := false
	compute := func() (*executor.SearchResult, error) {
		return h.executor.Execute(ctx, plan, opts)
	}
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, plan, opts, compute)
	} else {
		result, err = compute()
	}
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		log.Error("search execution failed", "query", query, "status", status, "error", err)
		h.observe("error", cacheStatus(h.cache != nil, false), start, 0)
		if status >= http.StatusInternalServerError {
			h.writeError(w, status, "search failed")
			return
		}
		h.writeError(w, status, err.Error())
		return
	}

	resultType := "miss"
	if cacheHit {
		resultType = "hit"
	}
	if result.TotalHits == 0 {
		resultType = "zero_result"
	}
	h.observe(resultType, cacheStatus(h.cache != nil, cacheHit), start, len(result.Results))
	log.Info("search completed",
		"query", query,
		"plan", plan.Canonical(),
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, result)
}

// options merges request parameters over the configured defaults.
// Proximity parameters are validated later, by the functions that take them.
func (h *Handler) options(q url.Values) (executor.Options, error) {
	prox := h.settings.Proximity
	opts := executor.Options{
		Limit:     h.settings.DefaultLimit,
		Boost:     prox.Boost,
		Summaries: prox.Summaries,
		Trace:     prox.Trace,
		Params: map[string]string{
			"maxwinsize":  strconv.Itoa(prox.MaxWindowSize),
			"cardinality": strconv.Itoa(prox.MinCardinality),
		},
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return opts, fmt.Errorf("limit must be a positive integer")
		}
		if h.settings.MaxResults > 0 && n > h.settings.MaxResults {
			n = h.settings.MaxResults
		}
		opts.Limit = n
	}
	if s := q.Get("boost"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 {
			return opts, fmt.Errorf("boost must be a non-negative number")
		}
		opts.Boost = f
	}
	if s := q.Get("summary"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return opts, fmt.Errorf("summary must be a boolean")
		}
		opts.Summaries = b
	}
	for _, key := range []string{"maxwinsize", "cardinality"} {
		if s := q.Get(key); s != "" {
			opts.Params[key] = s
		}
	}
	if opts.Summaries {
		opts.Params["type"] = prox.ForwardIndexType
		if s := q.Get("type"); s != "" {
			opts.Params["type"] = s
		}
		if opts.Params["type"] == "" {
			delete(opts.Params, "type")
		}
	}
	return opts, nil
}

func (h *Handler) observe(resultType, cacheStatus string, start time.Time, results int) {
	if h.metrics == nil {
		return
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	h.metrics.SearchResultsCount.Observe(float64(results))
}

func cacheStatus(enabled, hit bool) string {
	switch {
	case !enabled:
		return "disabled"
	case hit:
		return "hit"
	default:
		return "miss"
	}
}

// Functions lists the proximity functions and their parameters.
func (h *Handler) Functions(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.registry.Describe())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// Routes registers the API on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/functions", h.Functions)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
