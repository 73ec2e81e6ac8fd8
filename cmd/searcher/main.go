package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/docstore"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/indexer/shard"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/proximity/registry"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/proximity-search/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "num_shards", cfg.Indexer.NumShards)
	router, err := shard.NewRouter(cfg.Indexer)
	if err != nil {
		slog.Error("failed to create shard router", "error", err)
		os.Exit(1)
	}
	defer router.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ActiveShards.Set(float64(router.NumShards()))
	if cfg.Metrics.Enabled {
		shutdown, err := metrics.StartServer(cfg.Metrics.Port, reg)
		if err != nil {
			slog.Error("failed to start metrics server", "error", err)
			os.Exit(1)
		}
		defer shutdown(context.Background())
	}

	var queryCache *cache.QueryCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	switch {
	case errors.Is(err, pkgredis.ErrNotConfigured):
		slog.Info("redis not configured, search caching disabled")
	case err != nil:
		slog.Warn("redis unavailable, search caching disabled", "error", err)
	default:
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
		slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	shards := make([]executor.Shard, 0, router.NumShards())
	for _, engine := range router.Engines() {
		shards = append(shards, engine)
	}
	functions := registry.Default()
	exec := executor.New(shards, functions, m)
	exec.SetTimeoutPerShard(cfg.Search.TimeoutPerShard)

	var db *postgres.Client
	if cfg.Postgres.Enabled {
		db, err = postgres.New(cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, result titles disabled", "error", err)
		} else {
			defer db.Close()
			breaker := resilience.NewCircuitBreaker("docstore-titles", resilience.CircuitBreakerConfig{
				FailureThreshold: 5,
				ResetTimeout:     30 * time.Second,
				OnStateChange: func(name string, to resilience.State) {
					m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				},
			})
			exec.SetTitleSource(docstore.NewGuardedTitles(docstore.New(db), breaker))
		}
	}

	// every searcher needs every index-complete event, so each host gets
	// its own consumer group
	hostname, _ := os.Hostname()
	watchCfg := cfg.Kafka
	watchCfg.ConsumerGroup = fmt.Sprintf("%s-searcher-%s", cfg.Kafka.ConsumerGroup, hostname)
	watcher := kafka.NewConsumer(watchCfg, cfg.Kafka.Topics.IndexComplete, handler.HandleIndexComplete(router, queryCache))
	go func() {
		if err := watcher.Start(ctx); err != nil {
			slog.Error("index watcher error", "error", err)
		}
	}()

	checker := health.NewChecker()
	checker.Register("index_engine", health.ShardsCheck(router.NumShards))
	if redisClient != nil {
		checker.Register("redis", health.PingCheck(redisClient.Ping))
	} else {
		checker.Register("redis", health.PingCheck(nil))
	}
	if db != nil {
		checker.Register("postgres", health.PingCheck(db.Ping))
	}

	h := handler.New(exec, queryCache, functions, handler.Settings{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxResults:   cfg.Search.MaxResults,
		Proximity:    cfg.Proximity,
	}, m)

	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.RequestTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
