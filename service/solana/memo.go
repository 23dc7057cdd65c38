package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/metrics"
)

// Balance thresholds in lamports.
const (
	// MinReadyLamports is the balance above which a wallet can pay for a memo.
	MinReadyLamports = 5000
	// airdropBelowLamports triggers a devnet airdrop before minting.
	airdropBelowLamports = 10000
	airdropLamports      = 100_000_000
)

// Devnet is the cluster name memo mints target by default.
const Devnet = "devnet"

// MemoRecorder writes minted cards on chain as SPL memo transactions paid
// for by a mint authority key.
type MemoRecorder struct {
	rpc       ChainWriter
	authority solana.PrivateKey
	cluster   string
	now       func() time.Time
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewMemoRecorder creates a recorder. cluster names the network in explorer
// links and enables airdrops when it is devnet.
func NewMemoRecorder(rpc ChainWriter, authority solana.PrivateKey, cluster string, m *metrics.Metrics, logger *slog.Logger) *MemoRecorder {
	if cluster == "" {
		cluster = Devnet
	}
	return &MemoRecorder{
		rpc:       rpc,
		authority: authority,
		cluster:   cluster,
		now:       time.Now,
		metrics:   m,
		logger:    logger,
	}
}

// ExplorerURL links a signature on the Solana explorer.
func ExplorerURL(sig, cluster string) string {
	return fmt.Sprintf("https://explorer.solana.com/tx/%s?cluster=%s", sig, cluster)
}

// SolscanURL links a signature on Solscan.
func SolscanURL(sig, cluster string) string {
	return fmt.Sprintf("https://solscan.io/tx/%s?cluster=%s", sig, cluster)
}

// BuildMemoTransaction assembles the unsigned memo transaction for memo.
func BuildMemoTransaction(memo cards.MintMemo, payer solana.PublicKey, blockhash solana.Hash) (*solana.Transaction, error) {
	data, err := json.Marshal(memo)
	if err != nil {
		return nil, fmt.Errorf("failed to encode memo: %w", err)
	}
	instruction := solana.NewInstruction(
		MemoProgramIDSPL,
		solana.AccountMetaSlice{solana.NewAccountMeta(payer, true, true)},
		data,
	)
	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}
	return tx, nil
}

// Record submits the mint memo for card on behalf of wallet. It never returns
// an error; failures are reported in the result.
func (r *MemoRecorder) Record(ctx context.Context, card cards.Card, wallet string) cards.MintResult {
	sig, err := r.record(ctx, card, wallet)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordMint("error")
		}
		r.logger.ErrorContext(ctx, "mint failed",
			"card_id", card.ID,
			"wallet", wallet,
			"error", err,
		)
		return cards.MintResult{Success: false, Error: err.Error()}
	}

	if r.metrics != nil {
		r.metrics.RecordMint("success")
	}
	s := sig.String()
	r.logger.InfoContext(ctx, "minted on-chain",
		"card_id", card.ID,
		"wallet", wallet,
		"signature", s,
	)
	return cards.MintResult{
		Success:   true,
		Signature: s,
		Explorer:  ExplorerURL(s, r.cluster),
		Solscan:   SolscanURL(s, r.cluster),
	}
}

func (r *MemoRecorder) record(ctx context.Context, card cards.Card, wallet string) (solana.Signature, error) {
	if r.authority == nil {
		return solana.Signature{}, fmt.Errorf("mint authority not configured")
	}
	payer := r.authority.PublicKey()

	balance, err := r.rpc.GetBalance(ctx, payer)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get balance: %w", err)
	}
	if balance < airdropBelowLamports && r.cluster == Devnet {
		if _, err := r.rpc.RequestAirdrop(ctx, payer, airdropLamports); err != nil {
			r.logger.WarnContext(ctx, "airdrop failed, proceeding anyway", "error", err)
		}
	}

	blockhash, err := r.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get blockhash: %w", err)
	}

	memo := cards.NewMintMemo(card, wallet, r.now().UnixMilli())
	tx, err := BuildMemoTransaction(memo, payer, blockhash)
	if err != nil {
		return solana.Signature{}, err
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer) {
			return &r.authority
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := r.rpc.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// CheckWalletReady reports whether wallet holds enough SOL to pay for a memo.
func (r *MemoRecorder) CheckWalletReady(ctx context.Context, wallet string) WalletReadiness {
	pub, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return WalletReadiness{Reason: "invalid wallet address"}
	}
	balance, err := r.rpc.GetBalance(ctx, pub)
	if err != nil {
		return WalletReadiness{Reason: err.Error()}
	}
	return WalletReadiness{
		Ready:   balance > MinReadyLamports,
		Balance: float64(balance) / 1e9,
		Address: pub.String(),
		Network: r.cluster,
	}
}
