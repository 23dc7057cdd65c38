package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/brojonat/crypt/service/audius"
	"github.com/brojonat/crypt/service/cache"
	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/config"
	"github.com/brojonat/crypt/service/db"
	"github.com/brojonat/crypt/service/metrics"
	natspkg "github.com/brojonat/crypt/service/nats"
	"github.com/brojonat/crypt/service/server"
	"github.com/brojonat/crypt/service/solana"
	"github.com/brojonat/crypt/service/tapestry"
	"github.com/brojonat/crypt/service/temporal"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	// Load and validate configuration from environment
	// This fails fast if any required config is missing or invalid
	cfg := config.MustLoad()

	// Setup structured logging
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting server",
		"addr", cfg.ServerAddr,
		"log_level", cfg.LogLevel,
	)

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsCollector := metrics.NewMetrics(nil) // nil uses default registry

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

	store := db.NewStore(dbPool, metricsCollector)
	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	deps := server.Dependencies{
		Ledger:    store,
		RenderFPS: cfg.RenderFPS,
	}

	// History provider, optionally behind the Redis cache
	provider, closeProvider := newHistoryProvider(ctx, cfg, metricsCollector, logger)
	defer closeProvider()
	deps.Scanner = cards.NewScanner(provider, nil, nil, cfg.HistoryLimit, metricsCollector, logger)

	// Decoration collaborators
	deps.Soundtracks = audius.NewClient(cfg.AudiusBaseURL, cfg.AudiusAppName, cfg.UpstreamTimeout, metricsCollector, logger)
	identities := tapestry.NewClient(cfg.TapestryBaseURL, cfg.TapestryAPIKey, cfg.UpstreamTimeout, metricsCollector, logger)
	if identities.Enabled() {
		deps.Identities = identities
	} else {
		logger.Warn("TAPESTRY_API_KEY not set, identity lookups disabled")
	}

	// Readiness checks read balances on the mint cluster. The authority key
	// is only needed by the worker.
	mintRPC := solana.NewRPCClient(cfg.SolanaMintRPCURL)
	deps.Readiness = solana.NewMemoRecorder(mintRPC, nil, cfg.MintCluster, metricsCollector, logger)

	// NATS publisher for like and burn events
	natsPublisher, err := natspkg.NewPublisher(cfg.NATSURL, metricsCollector, logger)
	if err != nil {
		logger.Warn("failed to connect NATS publisher, card events disabled", "error", err)
	} else {
		defer natsPublisher.Close()
		deps.Publisher = natsPublisher
	}

	// SSE publisher for the event stream
	ssePublisher, err := server.NewSSEPublisher(cfg.NATSURL, logger)
	if err != nil {
		logger.Warn("failed to create SSE publisher, event stream disabled", "error", err)
	} else {
		deps.Events = ssePublisher
	}

	// Temporal client for mint and scan workflows
	temporalClient, err := temporal.NewClient(cfg.TemporalHost, cfg.TemporalNamespace, cfg.TemporalTaskQueue, logger)
	if err != nil {
		logger.Warn("failed to connect to temporal, workflow endpoints disabled", "error", err)
	} else {
		defer temporalClient.Close()
		deps.Workflows = temporalClient
	}

	httpServer := server.New(cfg.ServerAddr, deps, metricsCollector, logger)
	if err := httpServer.WithTemplates(); err != nil {
		logger.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	logger.Info("server initialized, all dependencies ready",
		"helius", cfg.HeliusAPIKey != "",
		"scan_cache", cfg.ScanCacheEnabled,
		"nats_url", cfg.NATSURL,
		"temporal_host", cfg.TemporalHost,
	)

	// Start HTTP server in background
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			os.Exit(1)
		}

		logger.Info("server shutdown complete")
	}
}

// newHistoryProvider picks Helius when a key is configured and plain RPC
// otherwise, then puts the Redis cache in front when enabled. A cache that
// cannot be reached is skipped.
func newHistoryProvider(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (cards.HistoryProvider, func()) {
	var provider cards.HistoryProvider
	if cfg.HeliusAPIKey != "" {
		provider = solana.NewHeliusClient(cfg.HeliusBaseURL, cfg.HeliusAPIKey, cfg.UpstreamTimeout, m, logger)
		logger.Info("using helius history provider", "url", cfg.HeliusBaseURL)
	} else {
		provider = solana.NewClient(solana.NewRPCClient(cfg.SolanaRPCURL), m, logger)
		logger.Info("using solana RPC history provider", "url", cfg.SolanaRPCURL)
	}

	if !cfg.ScanCacheEnabled {
		return provider, func() {}
	}
	redisClient, err := cache.Open(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("scan cache unavailable, continuing without it", "error", err)
		return provider, func() {}
	}
	logger.Info("scan cache enabled", "ttl", cfg.ScanCacheTTL)
	cached := cache.NewCachedProvider(provider, cache.NewHistoryCache(redisClient, cfg.ScanCacheTTL), m, logger)
	return cached, func() { redisClient.Close() }
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
