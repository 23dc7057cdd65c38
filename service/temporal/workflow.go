package temporal

import (
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/db"
)

var a *Activities // for type-safe activity invocation

// Workflow statuses reported in results.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// MintCardInput contains the card to mint and the wallet minting it.
type MintCardInput struct {
	Card   cards.Card `json:"card"`
	Wallet string     `json:"wallet"`
}

// MintCardResult contains the outcome of a mint.
type MintCardResult struct {
	Signature     string    `json:"signature"`
	Wallet        string    `json:"wallet"`
	MintSignature string    `json:"mint_signature,omitempty"`
	Explorer      string    `json:"explorer,omitempty"`
	Solscan       string    `json:"solscan,omitempty"`
	MintedAt      time.Time `json:"minted_at"`
	Status        string    `json:"status"`
	Error         *string   `json:"error,omitempty"`
}

// ScanWalletInput contains the wallet to scan.
type ScanWalletInput struct {
	Wallet    string       `json:"wallet"`
	MinRarity cards.Rarity `json:"min_rarity"`
}

// ScanWalletResult contains the cards dealt for a wallet.
type ScanWalletResult struct {
	Wallet    string       `json:"wallet"`
	Cards     []cards.Card `json:"cards"`
	CardCount int          `json:"card_count"`
	ScannedAt time.Time    `json:"scanned_at"`
}

func defaultActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: 60 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	}
}

// MintCardWorkflow records a card on chain and in the ledger.
//
// The workflow performs these steps:
// 1. Write the mint memo on chain (RecordMintMemo activity, never retried)
// 2. Record the minted card in the ledger (PersistMint activity)
// 3. Announce the mint on the event bus (PublishMinted activity, best effort)
func MintCardWorkflow(ctx workflow.Context, input MintCardInput) (*MintCardResult, error) {
	logger := workflow.GetLogger(ctx)
	signature := input.Card.SourceSignature()
	logger.Info("MintCardWorkflow started", "wallet", input.Wallet, "signature", signature)

	result := &MintCardResult{
		Signature: signature,
		Wallet:    input.Wallet,
	}
	fail := func(err error) (*MintCardResult, error) {
		msg := err.Error()
		result.Status = StatusFailed
		result.Error = &msg
		return result, err
	}

	if signature == "" {
		return fail(errors.New("card has no transaction signature"))
	}
	if err := cards.ValidateAddress(input.Wallet); err != nil {
		return fail(err)
	}

	// A retried memo could land twice on chain.
	memoOptions := defaultActivityOptions()
	memoOptions.RetryPolicy.MaximumAttempts = 1
	memoCtx := workflow.WithActivityOptions(ctx, memoOptions)

	var mint *cards.MintResult
	if err := workflow.ExecuteActivity(memoCtx, a.RecordMintMemo, RecordMintMemoInput{
		Card:   input.Card,
		Wallet: input.Wallet,
	}).Get(ctx, &mint); err != nil {
		logger.Error("failed to record mint memo", "wallet", input.Wallet, "error", err)
		return fail(fmt.Errorf("failed to record mint memo: %w", err))
	}
	if !mint.Success {
		logger.Warn("mint rejected", "wallet", input.Wallet, "error", mint.Error)
		return fail(fmt.Errorf("mint failed: %s", mint.Error))
	}
	result.MintSignature = mint.Signature
	result.Explorer = mint.Explorer
	result.Solscan = mint.Solscan
	result.MintedAt = workflow.Now(ctx).UTC()

	ctx = workflow.WithActivityOptions(ctx, defaultActivityOptions())

	var minted *db.MintedCard
	if err := workflow.ExecuteActivity(ctx, a.PersistMint, PersistMintInput{
		Card:          input.Card,
		Wallet:        input.Wallet,
		MintSignature: mint.Signature,
		MintedAt:      result.MintedAt,
	}).Get(ctx, &minted); err != nil {
		logger.Error("minted on chain but failed to record in ledger",
			"wallet", input.Wallet,
			"mint_signature", mint.Signature,
			"error", err,
		)
		return fail(fmt.Errorf("failed to record mint: %w", err))
	}

	if err := workflow.ExecuteActivity(ctx, a.PublishMinted, PublishMintedInput{
		Minted:   minted,
		Explorer: mint.Explorer,
	}).Get(ctx, nil); err != nil {
		logger.Warn("failed to publish mint event", "wallet", input.Wallet, "error", err)
	}

	result.Status = StatusCompleted
	logger.Info("MintCardWorkflow completed",
		"wallet", input.Wallet,
		"signature", signature,
		"mint_signature", result.MintSignature,
	)
	return result, nil
}

// ScanWalletWorkflow deals the cards for a wallet and announces the scan.
func ScanWalletWorkflow(ctx workflow.Context, input ScanWalletInput) (*ScanWalletResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("ScanWalletWorkflow started", "wallet", input.Wallet)

	ctx = workflow.WithActivityOptions(ctx, defaultActivityOptions())
	result := &ScanWalletResult{
		Wallet:    input.Wallet,
		Cards:     []cards.Card{},
		ScannedAt: workflow.Now(ctx).UTC(),
	}

	var history *FetchHistoryResult
	if err := workflow.ExecuteActivity(ctx, a.FetchHistory, FetchHistoryInput{Wallet: input.Wallet}).Get(ctx, &history); err != nil {
		return result, fmt.Errorf("failed to fetch history: %w", err)
	}

	if len(history.Transactions) > 0 {
		var composed *ComposeCardsResult
		if err := workflow.ExecuteActivity(ctx, a.ComposeCards, ComposeCardsInput{
			Wallet:       input.Wallet,
			Transactions: history.Transactions,
			MinRarity:    input.MinRarity,
		}).Get(ctx, &composed); err != nil {
			return result, fmt.Errorf("failed to compose cards: %w", err)
		}
		if composed.Cards != nil {
			result.Cards = composed.Cards
		}
	}
	result.CardCount = len(result.Cards)

	if err := workflow.ExecuteActivity(ctx, a.PublishScanned, PublishScannedInput{
		Wallet:    input.Wallet,
		CardCount: result.CardCount,
	}).Get(ctx, nil); err != nil {
		logger.Warn("failed to publish scan event", "wallet", input.Wallet, "error", err)
	}

	logger.Info("ScanWalletWorkflow completed",
		"wallet", input.Wallet,
		"transactions", len(history.Transactions),
		"cards", result.CardCount,
	)
	return result, nil
}
