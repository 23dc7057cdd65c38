// Package cache keeps recently fetched wallet histories in Redis so repeat
// scans of the same wallet skip the history provider.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/metrics"
)

// ErrMiss is returned when no entry exists for a key.
var ErrMiss = errors.New("cache miss")

const keyPrefix = "crypt:history"

// Open parses a redis:// URL and verifies the server answers.
func Open(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// HistoryCache stores wallet histories as JSON strings with a TTL.
type HistoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewHistoryCache creates a cache whose entries live for ttl.
func NewHistoryCache(client *redis.Client, ttl time.Duration) *HistoryCache {
	return &HistoryCache{client: client, ttl: ttl}
}

func historyKey(wallet string, limit int) string {
	return fmt.Sprintf("%s:%s:%d", keyPrefix, wallet, limit)
}

// Get returns the cached history for wallet at limit, or ErrMiss.
func (c *HistoryCache) Get(ctx context.Context, wallet string, limit int) ([]cards.RawTransaction, error) {
	key := historyKey(wallet, limit)
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET %s: %w", key, err)
	}
	var txs []cards.RawTransaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	return txs, nil
}

// Put stores txs for wallet at limit.
func (c *HistoryCache) Put(ctx context.Context, wallet string, limit int, txs []cards.RawTransaction) error {
	if txs == nil {
		txs = []cards.RawTransaction{}
	}
	data, err := json.Marshal(txs)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	key := historyKey(wallet, limit)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

// Invalidate drops every cached history for wallet.
func (c *HistoryCache) Invalidate(ctx context.Context, wallet string) error {
	pattern := fmt.Sprintf("%s:%s:*", keyPrefix, wallet)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis DEL %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis SCAN %s: %w", pattern, err)
	}
	return nil
}

// Store is the cache surface CachedProvider needs.
type Store interface {
	Get(ctx context.Context, wallet string, limit int) ([]cards.RawTransaction, error)
	Put(ctx context.Context, wallet string, limit int, txs []cards.RawTransaction) error
}

// CachedProvider serves histories from a Store and falls through to the
// wrapped provider on a miss. Cache failures are logged and bypassed.
// Provider errors are never cached.
type CachedProvider struct {
	next    cards.HistoryProvider
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewCachedProvider wraps next with store.
func NewCachedProvider(next cards.HistoryProvider, store Store, m *metrics.Metrics, logger *slog.Logger) *CachedProvider {
	return &CachedProvider{next: next, store: store, metrics: m, logger: logger}
}

// GetHistory implements cards.HistoryProvider.
func (p *CachedProvider) GetHistory(ctx context.Context, address string, limit int) ([]cards.RawTransaction, error) {
	txs, err := p.store.Get(ctx, address, limit)
	switch {
	case err == nil:
		p.record("hit")
		return txs, nil
	case errors.Is(err, ErrMiss):
		p.record("miss")
	default:
		p.record("error")
		p.logger.WarnContext(ctx, "history cache read failed, bypassing",
			"wallet", address,
			"error", err,
		)
	}

	txs, err = p.next.GetHistory(ctx, address, limit)
	if err != nil {
		return nil, err
	}
	if err := p.store.Put(ctx, address, limit, txs); err != nil {
		p.logger.WarnContext(ctx, "history cache write failed",
			"wallet", address,
			"error", err,
		)
	}
	return txs, nil
}

func (p *CachedProvider) record(result string) {
	if p.metrics != nil {
		p.metrics.RecordCacheLookup(result)
	}
}
