package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/quangdng/fxrates-data/internal/config"
	"github.com/quangdng/fxrates-data/internal/database"
	"github.com/quangdng/fxrates-data/internal/ingest"
	"github.com/quangdng/fxrates-data/internal/jobs"
	"github.com/quangdng/fxrates-data/internal/normalize"
	"github.com/quangdng/fxrates-data/internal/queue"
	"github.com/quangdng/fxrates-data/internal/refdata"
	"github.com/quangdng/fxrates-data/internal/scheduler"
	"github.com/quangdng/fxrates-data/internal/snapshot"
	"github.com/quangdng/fxrates-data/internal/source"
	"github.com/quangdng/fxrates-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/ingestor.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting ingestor",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"sources", len(cfg.Sources),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}

	logger.Info("database connected")

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	queueClient := queue.NewClient(rdb, cfg.Queue.MaxAttempts, logger)
	if err := queueClient.Ping(ctx); err != nil {
		logger.Error("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
		os.Exit(1)
	}

	logger.Info("redis connected", "addr", cfg.Redis.Addr)

	// Snapshot archive
	store, err := snapshot.NewStore(cfg.Snapshots.Dir)
	if err != nil {
		logger.Error("failed to open snapshot dir", "dir", cfg.Snapshots.Dir, "error", err)
		os.Exit(1)
	}

	// Ingestion engine
	resolver := refdata.NewResolver()
	engine := ingest.NewEngine(pool, resolver, cfg.Ingest.ChunkSize, logger)

	// Wire sources into the pipeline
	spread := decimal.New(int64(cfg.Ingest.SpreadBps), -4)
	specs, entries, err := buildSources(cfg.Sources, spread, logger)
	if err != nil {
		logger.Error("failed to wire sources", "error", err)
		os.Exit(1)
	}

	pipeline := jobs.NewPipeline(specs, store, engine, queueClient, logger)

	// One worker per queue: concurrency 1 within each queue.
	workerCfg := queue.WorkerConfig{
		PollInterval:   cfg.Queue.PollInterval,
		LeaseDuration:  cfg.Queue.LeaseDuration,
		RetryBaseDelay: cfg.Queue.RetryBaseDelay,
		ResultTTL:      cfg.Queue.ResultTTL,
	}

	var workers []*queue.Worker
	for _, name := range queueNames(specs) {
		w := queue.NewWorker(workerCfg, queueClient, name, logger)
		pipeline.Register(w)
		if err := w.Start(ctx); err != nil {
			logger.Error("failed to start worker", "queue", name, "error", err)
			os.Exit(1)
		}
		workers = append(workers, w)
		logger.Info("worker started", "queue", name)
	}

	// Recurring crawl schedules
	sched := scheduler.New(entries, queueClient, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// Health endpoint
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(cfg, pool, queueClient, specs, logger),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("ingestor running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d%s", cfg.Health.Port, cfg.Health.Path),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	sched.Stop(shutdownCtx)
	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	healthServer.Shutdown(shutdownCtx)

	logger.Info("ingestor stopped")
}

// buildSources turns source configs into pipeline specs and schedule
// entries.
func buildSources(srcs []config.SourceConfig, spread decimal.Decimal, logger *slog.Logger) ([]jobs.SourceSpec, []scheduler.Entry, error) {
	specs := make([]jobs.SourceSpec, 0, len(srcs))
	entries := make([]scheduler.Entry, 0, len(srcs))

	for _, s := range srcs {
		n, err := normalize.ForFormat(normalize.Format(s.Format), normalize.Options{Spread: spread})
		if err != nil {
			return nil, nil, fmt.Errorf("source %s: %w", s.Name, err)
		}

		fetcher := source.NewHTTPFetcher(s.URL,
			source.WithTimeout(s.Timeout),
			source.WithRetries(s.MaxRetries, time.Second),
			source.WithLogger(logger),
		)

		specs = append(specs, jobs.SourceSpec{
			Name:        s.Name,
			Queue:       s.Queue,
			Priority:    s.Priority,
			ChainImport: s.ChainImport,
			Fetcher:     fetcher,
			Normalizer:  n,
		})
		entries = append(entries, scheduler.Entry{
			Source:   s.Name,
			Queue:    s.Queue,
			Interval: s.Interval,
		})
	}

	return specs, entries, nil
}

// queueNames returns the distinct queue names in spec order.
func queueNames(specs []jobs.SourceSpec) []string {
	seen := make(map[string]bool, len(specs))
	var names []string
	for _, s := range specs {
		if !seen[s.Queue] {
			seen[s.Queue] = true
			names = append(names, s.Queue)
		}
	}
	return names
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(cfg *config.IngestorConfig, pool *pgxpool.Pool, client *queue.Client, specs []jobs.SourceSpec, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(cfg.Health.Path, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		// Check database
		if err := pool.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}

		// Check Redis and report per-queue depth
		if err := client.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Components["redis"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			depths := make(map[string]int64)
			for _, name := range queueNames(specs) {
				depth, err := client.Depth(ctx, name)
				if err != nil {
					logger.Warn("queue depth failed", "queue", name, "error", err)
					continue
				}
				depths[name] = depth
			}
			health.Components["queues"] = depths
		}

		// Set response
		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
