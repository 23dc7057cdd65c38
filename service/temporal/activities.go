package temporal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/temporal"

	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/db"
	"github.com/brojonat/crypt/service/metrics"
	natspkg "github.com/brojonat/crypt/service/nats"
)

// FetchHistoryInput contains parameters for the FetchHistory activity.
type FetchHistoryInput struct {
	Wallet string `json:"wallet"`
}

// FetchHistoryResult contains the raw history of a wallet.
type FetchHistoryResult struct {
	Transactions []cards.RawTransaction `json:"transactions"`
}

// ComposeCardsInput contains parameters for the ComposeCards activity.
type ComposeCardsInput struct {
	Wallet       string                 `json:"wallet"`
	Transactions []cards.RawTransaction `json:"transactions"`
	MinRarity    cards.Rarity           `json:"min_rarity"`
}

// ComposeCardsResult contains the cards built from a history.
type ComposeCardsResult struct {
	Cards []cards.Card `json:"cards"`
}

// RecordMintMemoInput contains parameters for the RecordMintMemo activity.
type RecordMintMemoInput struct {
	Card   cards.Card `json:"card"`
	Wallet string     `json:"wallet"`
}

// PersistMintInput contains parameters for the PersistMint activity.
type PersistMintInput struct {
	Card          cards.Card `json:"card"`
	Wallet        string     `json:"wallet"`
	MintSignature string     `json:"mint_signature"`
	MintedAt      time.Time  `json:"minted_at"`
}

// PublishMintedInput contains parameters for the PublishMinted activity.
type PublishMintedInput struct {
	Minted   *db.MintedCard `json:"minted"`
	Explorer string         `json:"explorer"`
}

// PublishScannedInput contains parameters for the PublishScanned activity.
type PublishScannedInput struct {
	Wallet    string `json:"wallet"`
	CardCount int    `json:"card_count"`
}

// ScannerInterface is the part of the card scanner the activities drive.
type ScannerInterface interface {
	Fetch(ctx context.Context, wallet string) []cards.RawTransaction
	Compose(ctx context.Context, wallet string, txs []cards.RawTransaction) []cards.Card
}

// RecorderInterface writes mint memos on chain.
type RecorderInterface interface {
	Record(ctx context.Context, card cards.Card, wallet string) cards.MintResult
}

// StoreInterface defines the ledger operations needed by activities.
type StoreInterface interface {
	RecordMint(ctx context.Context, params db.RecordMintParams) (*db.MintedCard, error)
}

// PublisherInterface defines the NATS publishing operations needed by activities.
type PublisherInterface interface {
	PublishCardEvent(ctx context.Context, event *natspkg.CardEvent) error
}

// Activities holds the dependencies needed by Temporal activities.
type Activities struct {
	scanner   ScannerInterface
	recorder  RecorderInterface
	store     StoreInterface
	publisher PublisherInterface
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewActivities creates a new Activities instance with explicit dependencies.
// If metrics is nil, no metrics will be recorded.
func NewActivities(
	scanner ScannerInterface,
	recorder RecorderInterface,
	store StoreInterface,
	publisher PublisherInterface,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Activities {
	if logger == nil {
		logger = slog.Default()
	}
	return &Activities{
		scanner:   scanner,
		recorder:  recorder,
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

func (a *Activities) observe(activity string, start time.Time, err error) {
	if a.metrics != nil {
		a.metrics.RecordActivityDuration(activity, time.Since(start).Seconds(), err)
	}
}

// FetchHistory pulls a wallet's raw history. Provider outages come back as an
// empty history, so only a malformed address fails the activity.
func (a *Activities) FetchHistory(ctx context.Context, input FetchHistoryInput) (result *FetchHistoryResult, err error) {
	defer func(start time.Time) { a.observe("FetchHistory", start, err) }(time.Now())

	if err := cards.ValidateAddress(input.Wallet); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidAddress", err)
	}

	txs := a.scanner.Fetch(ctx, input.Wallet)
	a.logger.DebugContext(ctx, "fetched history",
		"wallet", input.Wallet,
		"count", len(txs),
	)
	return &FetchHistoryResult{Transactions: txs}, nil
}

// ComposeCards ranks, selects, builds and decorates cards from a history.
// Decoration draws random engagement counts, which is why it runs here and not
// in the workflow.
func (a *Activities) ComposeCards(ctx context.Context, input ComposeCardsInput) (result *ComposeCardsResult, err error) {
	defer func(start time.Time) { a.observe("ComposeCards", start, err) }(time.Now())

	cs := a.scanner.Compose(ctx, input.Wallet, input.Transactions)
	if input.MinRarity > cards.Common {
		cs = cards.FilterByRarity(cs, input.MinRarity)
	}
	return &ComposeCardsResult{Cards: cs}, nil
}

// RecordMintMemo writes the mint memo on chain. A failed mint is returned in
// the result, not as an error, so the workflow can report it.
func (a *Activities) RecordMintMemo(ctx context.Context, input RecordMintMemoInput) (result *cards.MintResult, err error) {
	defer func(start time.Time) { a.observe("RecordMintMemo", start, err) }(time.Now())

	res := a.recorder.Record(ctx, input.Card, input.Wallet)
	return &res, nil
}

// PersistMint records a minted card in the ledger.
func (a *Activities) PersistMint(ctx context.Context, input PersistMintInput) (result *db.MintedCard, err error) {
	defer func(start time.Time) { a.observe("PersistMint", start, err) }(time.Now())

	mc, err := a.store.RecordMint(ctx, db.RecordMintParams{
		Card:          input.Card,
		Owner:         input.Wallet,
		MintSignature: input.MintSignature,
		MintedAt:      input.MintedAt,
	})
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to record mint",
			"wallet", input.Wallet,
			"mint_signature", input.MintSignature,
			"error", err,
		)
		return nil, fmt.Errorf("failed to record mint: %w", err)
	}
	return mc, nil
}

// PublishMinted announces a minted card on the event bus.
func (a *Activities) PublishMinted(ctx context.Context, input PublishMintedInput) (err error) {
	defer func(start time.Time) { a.observe("PublishMinted", start, err) }(time.Now())

	if input.Minted == nil {
		return temporal.NewNonRetryableApplicationError("minted card is required", "InvalidInput", nil)
	}
	event := natspkg.FromMintedCard(input.Minted, input.Explorer)
	if err := a.publisher.PublishCardEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish mint event: %w", err)
	}
	return nil
}

// PublishScanned announces a completed scan on the event bus.
func (a *Activities) PublishScanned(ctx context.Context, input PublishScannedInput) (err error) {
	defer func(start time.Time) { a.observe("PublishScanned", start, err) }(time.Now())

	if err := a.publisher.PublishCardEvent(ctx, natspkg.NewScannedEvent(input.Wallet, input.CardCount)); err != nil {
		return fmt.Errorf("failed to publish scan event: %w", err)
	}
	return nil
}
