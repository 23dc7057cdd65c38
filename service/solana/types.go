package solana

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// RPC is the full set of chain operations the service uses.
type RPC interface {
	RPCClient
	ChainWriter
}

// ChainWriter is the subset of RPC calls needed to submit memo mints.
type ChainWriter interface {
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error)
}

// WalletReadiness reports whether a wallet can pay for a mint.
type WalletReadiness struct {
	Ready   bool    `json:"ready"`
	Balance float64 `json:"balance"`
	Address string  `json:"address,omitempty"`
	Network string  `json:"network,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}
