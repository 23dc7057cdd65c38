package cards

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/brojonat/crypt/service/metrics"
)

// Selection limits for a scan.
const (
	DefaultHistoryLimit = 100
	MaxPerType          = 2
	MaxCards            = 8
	RelaxBelow          = 5
	RelaxedMaxCards     = 6
)

// HistoryProvider fetches a wallet's parsed transaction history, newest
// first.
type HistoryProvider interface {
	GetHistory(ctx context.Context, address string, limit int) ([]RawTransaction, error)
}

// Scored pairs a transaction with its score.
type Scored struct {
	Tx RawTransaction
	ScoreResult
}

// Rank scores every transaction and orders them by descending score. Ties
// keep provider order.
func Rank(txs []RawTransaction, wallet string, scorer *Scorer) []Scored {
	if scorer == nil {
		scorer = defaultScorer
	}
	scored := make([]Scored, len(txs))
	for i, tx := range txs {
		scored[i] = Scored{Tx: tx, ScoreResult: scorer.Score(tx, wallet)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// diversityKey is the bucket a transaction counts against for the per-type
// cap. Unrecognised labels each get their own bucket; an empty type counts as
// UNKNOWN.
func diversityKey(tx RawTransaction) string {
	if tx.Type == "" {
		return "UNKNOWN"
	}
	return tx.Type
}

// Select picks the story-worthy subset of a ranked list. The first pass
// admits positive scores with at most MaxPerType per transaction type, up to
// MaxCards. When that yields fewer than RelaxBelow, a second pass ignores the
// type cap and tops the selection up to RelaxedMaxCards. relaxed reports
// whether the second pass ran.
func Select(ranked []Scored) (selected []Scored, relaxed bool) {
	counts := make(map[string]int)
	taken := make(map[string]bool)

	identity := func(i int) string {
		if sig := ranked[i].Tx.Signature; sig != "" {
			return "sig:" + sig
		}
		return "pos:" + strconv.Itoa(i)
	}

	for i, s := range ranked {
		if s.Score <= 0 {
			continue
		}
		key := diversityKey(s.Tx)
		counts[key]++
		if counts[key] > MaxPerType {
			continue
		}
		selected = append(selected, s)
		taken[identity(i)] = true
		if len(selected) >= MaxCards {
			break
		}
	}

	if len(selected) >= RelaxBelow {
		return selected, false
	}

	for i, s := range ranked {
		if len(selected) >= RelaxedMaxCards {
			break
		}
		if s.Score <= 0 || taken[identity(i)] {
			continue
		}
		selected = append(selected, s)
		taken[identity(i)] = true
	}
	return selected, true
}

// Scanner runs the wallet pipeline: fetch, rank, select, build, decorate.
type Scanner struct {
	provider  HistoryProvider
	builder   *Builder
	decorator *Decorator
	limit     int
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewScanner wires a scanner. A nil builder or decorator gets the defaults;
// limit <= 0 means DefaultHistoryLimit. If metrics is nil, no metrics are
// recorded.
func NewScanner(provider HistoryProvider, builder *Builder, decorator *Decorator, limit int, m *metrics.Metrics, logger *slog.Logger) *Scanner {
	if builder == nil {
		builder = NewBuilder()
	}
	if decorator == nil {
		decorator = NewDecorator(nil)
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Scanner{
		provider:  provider,
		builder:   builder,
		decorator: decorator,
		limit:     limit,
		logger:    logger,
		metrics:   m,
	}
}

// Fetch pulls the raw history for wallet. A provider failure is logged and
// reported as an empty history; it never reaches the caller.
func (s *Scanner) Fetch(ctx context.Context, wallet string) []RawTransaction {
	start := time.Now()
	txs, err := s.provider.GetHistory(ctx, wallet, s.limit)
	if s.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		s.metrics.RecordHistoryFetch(status, time.Since(start).Seconds())
	}
	if err != nil {
		s.logger.WarnContext(ctx, "history provider failed, treating as empty",
			"wallet", wallet,
			"error", err,
		)
		return nil
	}
	return txs
}

// Compose turns a fetched history into the final card list. It performs no
// I/O.
func (s *Scanner) Compose(ctx context.Context, wallet string, txs []RawTransaction) []Card {
	if len(txs) == 0 {
		if s.metrics != nil {
			s.metrics.RecordScan(0, false)
		}
		return []Card{}
	}

	ranked := Rank(txs, wallet, s.builder.Scorer())
	if s.metrics != nil {
		for _, r := range ranked {
			s.metrics.ObserveScore(r.Score)
		}
	}

	selected, relaxed := Select(ranked)
	out := make([]Card, len(selected))
	for i, sel := range selected {
		out[i] = s.builder.Build(sel.Tx, wallet, i)
	}
	s.decorator.Decorate(out)

	s.logger.InfoContext(ctx, "scanned wallet",
		"wallet", wallet,
		"transactions", len(txs),
		"cards", len(out),
		"relaxed", relaxed,
	)
	if s.metrics != nil {
		s.metrics.RecordScan(len(out), relaxed)
	}
	return out
}

// Scan runs the full pipeline for wallet. It never fails: an unavailable
// provider or an uninteresting history both produce an empty slice.
func (s *Scanner) Scan(ctx context.Context, wallet string) []Card {
	return s.Compose(ctx, wallet, s.Fetch(ctx, wallet))
}

// FilterByRarity keeps the cards at or above floor, preserving order.
func FilterByRarity(cs []Card, floor Rarity) []Card {
	out := make([]Card, 0, len(cs))
	for _, c := range cs {
		if c.Rarity >= floor {
			out = append(out, c)
		}
	}
	return out
}
