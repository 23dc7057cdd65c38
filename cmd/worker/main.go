package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brojonat/crypt/service/cache"
	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/config"
	"github.com/brojonat/crypt/service/db"
	"github.com/brojonat/crypt/service/metrics"
	natspkg "github.com/brojonat/crypt/service/nats"
	"github.com/brojonat/crypt/service/solana"
	"github.com/brojonat/crypt/service/temporal"
)

func main() {
	_ = godotenv.Load()

	// Load and validate configuration from environment
	cfg := config.MustLoad()

	// Setup structured logging
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting temporal worker",
		"temporal_host", cfg.TemporalHost,
		"namespace", cfg.TemporalNamespace,
		"task_queue", cfg.TemporalTaskQueue,
		"log_level", cfg.LogLevel,
	)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// Verify database connection
	if err := dbPool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Initialize Prometheus metrics collector
	metricsCollector := metrics.NewMetrics(nil) // nil uses default registry

	store := db.NewStore(dbPool, metricsCollector)

	// Start metrics HTTP server
	metricsAddr := getEnv("METRICS_ADDR", ":9091")
	metricsServer := &http.Server{
		Addr:    metricsAddr,
		Handler: promhttp.Handler(),
	}

	go func() {
		logger.Info("starting metrics HTTP server", "addr", metricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", "error", err)
		}
	}()

	// Scanner used by the scan workflow
	provider, closeProvider := newHistoryProvider(ctx, cfg, metricsCollector, logger)
	defer closeProvider()
	scanner := cards.NewScanner(provider, nil, nil, cfg.HistoryLimit, metricsCollector, logger)

	// Memo recorder used by the mint workflow. Without an authority key every
	// mint fails with a clear reason instead of the worker refusing to start.
	var authority solanago.PrivateKey
	if cfg.MintAuthorityKey != "" {
		authority, err = solanago.PrivateKeyFromBase58(cfg.MintAuthorityKey)
		if err != nil {
			logger.Error("invalid MINT_AUTHORITY_KEY", "error", err)
			os.Exit(1)
		}
		logger.Info("loaded mint authority", "pubkey", authority.PublicKey().String())
	} else {
		logger.Warn("MINT_AUTHORITY_KEY not set, mints will fail")
	}
	recorder := solana.NewMemoRecorder(solana.NewRPCClient(cfg.SolanaMintRPCURL), authority, cfg.MintCluster, metricsCollector, logger)

	// Initialize NATS publisher
	natsPublisher, err := natspkg.NewPublisher(cfg.NATSURL, metricsCollector, logger)
	if err != nil {
		logger.Error("failed to create NATS publisher", "error", err)
		os.Exit(1)
	}
	defer natsPublisher.Close()
	logger.Info("connected to NATS", "url", cfg.NATSURL)

	// Initialize Temporal worker
	workerConfig := temporal.WorkerConfig{
		TemporalHost:      cfg.TemporalHost,
		TemporalNamespace: cfg.TemporalNamespace,
		TaskQueue:         cfg.TemporalTaskQueue,
		Scanner:           scanner,
		Recorder:          recorder,
		Store:             store,
		Publisher:         natsPublisher,
		Metrics:           metricsCollector,
		Logger:            logger,
	}

	worker, err := temporal.NewWorker(workerConfig)
	if err != nil {
		logger.Error("failed to create temporal worker", "error", err)
		os.Exit(1)
	}

	logger.Info("temporal worker initialized, all dependencies ready",
		"mint_rpc", cfg.SolanaMintRPCURL,
		"mint_cluster", cfg.MintCluster,
		"temporal_host", cfg.TemporalHost,
		"task_queue", cfg.TemporalTaskQueue,
	)

	// Start worker in background
	workerErrors := make(chan error, 1)
	go func() {
		workerErrors <- worker.Start()
	}()

	// Wait for shutdown signal or worker error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-workerErrors:
		logger.Error("temporal worker error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
		worker.Stop()
		logger.Info("shutdown complete")
	}
}

// newHistoryProvider picks Helius when a key is configured and plain RPC
// otherwise, behind the Redis cache when it is enabled and reachable.
func newHistoryProvider(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (cards.HistoryProvider, func()) {
	var provider cards.HistoryProvider = solana.NewClient(solana.NewRPCClient(cfg.SolanaRPCURL), m, logger)
	if cfg.HeliusAPIKey != "" {
		provider = solana.NewHeliusClient(cfg.HeliusBaseURL, cfg.HeliusAPIKey, cfg.UpstreamTimeout, m, logger)
	}
	if !cfg.ScanCacheEnabled {
		return provider, func() {}
	}
	redisClient, err := cache.Open(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("scan cache unavailable, continuing without it", "error", err)
		return provider, func() {}
	}
	return cache.NewCachedProvider(provider, cache.NewHistoryCache(redisClient, cfg.ScanCacheTTL), m, logger),
		func() { redisClient.Close() }
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// getEnv returns the value of an environment variable or a default if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
