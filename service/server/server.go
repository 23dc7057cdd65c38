package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/db"
	"github.com/brojonat/crypt/service/metrics"
	natspkg "github.com/brojonat/crypt/service/nats"
	"github.com/brojonat/crypt/service/playback"
	"github.com/brojonat/crypt/service/solana"
	"github.com/brojonat/crypt/service/tapestry"
	"github.com/brojonat/crypt/service/temporal"
)

// CardScanner turns a wallet's history into cards.
type CardScanner interface {
	Scan(ctx context.Context, wallet string) []cards.Card
}

// Ledger is the card ledger surface the handlers need.
type Ledger interface {
	GetCard(ctx context.Context, signature string) (*db.MintedCard, error)
	ListCardsByOwner(ctx context.Context, owner string, limit, offset int32) ([]*db.MintedCard, error)
	ToggleLike(ctx context.Context, signature, wallet string) (db.LikeResult, error)
	MarkBurned(ctx context.Context, signature string) error
	Stats(ctx context.Context) (db.Stats, error)
}

// Soundtracks looks up music for cards.
type Soundtracks interface {
	ForCardType(ctx context.Context, t cards.CardType) *cards.Soundtrack
	Trending(ctx context.Context, limit int) []cards.Soundtrack
}

// Identities resolves a wallet's social profile. A nil identity means none
// was found.
type Identities interface {
	ResolveIdentity(ctx context.Context, wallet string) *tapestry.Identity
}

// ReadinessChecker reports whether a wallet can pay for a mint.
type ReadinessChecker interface {
	CheckWalletReady(ctx context.Context, wallet string) solana.WalletReadiness
}

// EventPublisher publishes card events.
type EventPublisher interface {
	PublishCardEvent(ctx context.Context, event *natspkg.CardEvent) error
}

// Dependencies are the collaborators behind the HTTP API. Scanner is
// required. Routes backed by a nil dependency are not registered.
type Dependencies struct {
	Scanner     CardScanner
	Ledger      Ledger
	Soundtracks Soundtracks
	Identities  Identities
	Readiness   ReadinessChecker
	Publisher   EventPublisher
	Workflows   temporal.Starter
	Events      *SSEPublisher
	Playback    *playback.Session
	RenderFPS   int
}

// Server represents the HTTP server for the card service.
type Server struct {
	addr     string
	deps     Dependencies
	renderer *TemplateRenderer
	metrics  *metrics.Metrics
	logger   *slog.Logger
	server   *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The metrics is optional - if nil, the metrics endpoint won't be available.
func New(addr string, deps Dependencies, m *metrics.Metrics, logger *slog.Logger) *Server {
	if deps.Playback == nil {
		deps.Playback = playback.NewSession(m, logger)
	}
	return &Server{
		addr:    addr,
		deps:    deps,
		metrics: m,
		logger:  logger,
	}
}

// WithTemplates adds template rendering support to the server using embedded files
func (s *Server) WithTemplates() error {
	renderer, err := NewTemplateRenderer(s.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize templates: %w", err)
	}
	s.renderer = renderer
	s.logger.Info("HTML templates loaded from embedded files")
	return nil
}

// Handler builds the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	route := func(pattern, name string, h http.Handler) {
		mux.Handle(pattern, metrics.HTTPMetricsMiddleware(s.metrics, name)(h))
	}
	d := s.deps

	// Scanning and skulls
	route("GET /api/v1/wallets/{address}/cards", "scan", handleScanWallet(d.Scanner, d.Identities, d.Soundtracks, s.logger))
	route("GET /api/v1/skulls/{seed}", "skull", handleGetSkull(s.metrics, s.logger))
	route("GET /api/v1/skulls/{seed}/stream", "skull_stream", handleSkullStream(d.Playback, d.Soundtracks, d.RenderFPS, s.metrics, s.logger))

	if d.Identities != nil {
		route("GET /api/v1/wallets/{address}/identity", "identity", handleGetIdentity(d.Identities, s.logger))
	}
	if d.Soundtracks != nil {
		route("GET /api/v1/soundtracks/trending", "trending", handleTrending(d.Soundtracks, s.logger))
		route("GET /api/v1/soundtracks/{type}", "soundtrack", handleGetSoundtrack(d.Soundtracks, s.logger))
	}
	if d.Readiness != nil {
		route("GET /api/v1/wallets/{address}/ready", "ready", handleWalletReady(d.Readiness, s.logger))
	}

	// Ledger
	if d.Ledger != nil {
		route("GET /api/v1/wallets/{address}/minted", "minted", handleListMinted(d.Ledger, s.logger))
		route("POST /api/v1/cards/{signature}/like", "like", handleToggleLike(d.Ledger, d.Publisher, s.logger))
		route("POST /api/v1/cards/{signature}/burn", "burn", handleBurnCard(d.Ledger, d.Publisher, s.logger))
		route("GET /api/v1/stats", "stats", handleStats(d.Ledger, s.logger))
	} else {
		s.logger.Warn("card ledger not configured, ledger endpoints disabled")
	}

	// Workflows
	if d.Workflows != nil {
		route("POST /api/v1/cards/mint", "mint", handleMintCard(d.Workflows, s.logger))
		route("POST /api/v1/wallets/{address}/scans", "start_scan", handleStartScan(d.Workflows, s.logger))
		route("GET /api/v1/workflows/{workflow_id}", "workflow", handleGetWorkflow(d.Workflows, s.logger))
	} else {
		s.logger.Warn("temporal client not configured, workflow endpoints disabled")
	}

	// SSE streaming endpoint (if SSE publisher is configured)
	if d.Events != nil {
		route("GET /api/v1/events", "events", handleStreamEvents(d.Events, s.metrics, s.logger))
		s.logger.Info("SSE streaming endpoint enabled")
	} else {
		s.logger.Warn("SSE publisher not configured, streaming endpoint disabled")
	}

	// HTML pages (if template renderer is configured)
	if s.renderer != nil {
		mux.HandleFunc("GET /{$}", handleEventsPage(s.renderer))
		s.logger.Info("HTML page endpoints enabled")
	}

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return corsMiddleware(mux)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	// Close SSE publisher first (disconnects all clients)
	if s.deps.Events != nil {
		s.deps.Events.Close()
	}

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
