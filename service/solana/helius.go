package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/metrics"
)

// DefaultHeliusBaseURL is the enhanced transactions API root.
const DefaultHeliusBaseURL = "https://api.helius.xyz/v0"

// heliusMaxLimit is the largest page the enhanced API serves.
const heliusMaxLimit = 100

// HeliusClient fetches parsed wallet history from the Helius enhanced
// transactions API. Its response entries already have the RawTransaction
// shape.
type HeliusClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewHeliusClient creates a client. An empty baseURL selects the public API.
func NewHeliusClient(baseURL, apiKey string, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *HeliusClient {
	if baseURL == "" {
		baseURL = DefaultHeliusBaseURL
	}
	return &HeliusClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: m,
		logger:  logger,
	}
}

// GetHistory returns up to limit parsed transactions for address, newest
// first.
func (h *HeliusClient) GetHistory(ctx context.Context, address string, limit int) (txs []cards.RawTransaction, err error) {
	if h.metrics != nil {
		defer func() { h.metrics.RecordUpstreamCall("helius", err) }()
	}
	if limit <= 0 || limit > heliusMaxLimit {
		limit = heliusMaxLimit
	}

	q := url.Values{}
	q.Set("api-key", h.apiKey)
	q.Set("limit", strconv.Itoa(limit))
	u := fmt.Sprintf("%s/addresses/%s/transactions?%s", h.baseURL, url.PathEscape(address), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("helius returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(&txs); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}

	h.logger.DebugContext(ctx, "fetched enhanced history",
		"wallet", address,
		"count", len(txs),
	)
	return txs, nil
}
