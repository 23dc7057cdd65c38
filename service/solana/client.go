package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/metrics"
)

// RPCClient is an interface for the Solana RPC reads we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetSignaturesForAddress(
		ctx context.Context,
		address solana.PublicKey,
		opts *rpc.GetSignaturesForAddressOpts,
	) ([]*rpc.TransactionSignature, error)

	GetTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetTransactionOpts,
	) (*rpc.GetTransactionResult, error)
}

// ErrMemoNotFound is returned when a transaction carries no CRYPT memo.
var ErrMemoNotFound = errors.New("no CRYPT memo in transaction")

// Client reconstructs wallet history from plain RPC calls. It is the
// fallback history provider when no enhanced API key is configured.
type Client struct {
	rpc      RPCClient
	logger   *slog.Logger
	metrics  *metrics.Metrics
	interval time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRequestInterval spaces GetTransaction calls to stay under public RPC
// rate limits.
func WithRequestInterval(d time.Duration) ClientOption {
	return func(c *Client) { c.interval = d }
}

// NewClient creates a new Solana client.
// If metrics is nil, no metrics will be recorded.
func NewClient(rpcClient RPCClient, m *metrics.Metrics, logger *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		rpc:     rpcClient,
		logger:  logger,
		metrics: m,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func getTransactionOpts() *rpc.GetTransactionOpts {
	return &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &[]uint64{0}[0],
	}
}

// GetHistory returns up to limit of the wallet's most recent transactions,
// newest first. Failed transactions are skipped. A transaction whose details
// cannot be fetched is kept as metadata only.
func (c *Client) GetHistory(ctx context.Context, address string, limit int) ([]cards.RawTransaction, error) {
	wallet, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet address: %w", err)
	}

	sigs, err := c.rpc.GetSignaturesForAddress(ctx, wallet, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentConfirmed,
	})
	if c.metrics != nil {
		c.metrics.RecordUpstreamCall("solana_rpc", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signatures: %w", err)
	}

	c.logger.DebugContext(ctx, "fetched transaction signatures",
		"wallet", address,
		"count", len(sigs),
	)

	out := make([]cards.RawTransaction, 0, len(sigs))
	for i, sig := range sigs {
		if sig.Err != nil {
			continue
		}
		if i > 0 && c.interval > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.interval):
			}
		}

		result, err := c.fetchTransaction(ctx, sig.Signature)
		if err != nil {
			c.logger.WarnContext(ctx, "failed to get transaction details, using metadata only",
				"signature", sig.Signature.String(),
				"error", err,
			)
			out = append(out, signatureToRaw(sig))
			continue
		}

		raw, err := parseTransactionFromResult(sig, result)
		if err != nil {
			c.logger.WarnContext(ctx, "failed to parse transaction, using metadata only",
				"signature", sig.Signature.String(),
				"error", err,
			)
		}
		out = append(out, raw)
	}

	c.logger.InfoContext(ctx, "fetched and parsed transactions",
		"wallet", address,
		"count", len(out),
	)
	return out, nil
}

// fetchTransaction asks for a versioned transaction and falls back to the
// legacy encoding when the node cannot serve one.
func (c *Client) fetchTransaction(ctx context.Context, sig solana.Signature) (*rpc.GetTransactionResult, error) {
	result, err := c.rpc.GetTransaction(ctx, sig, getTransactionOpts())
	if c.metrics != nil {
		c.metrics.RecordUpstreamCall("solana_rpc", err)
	}
	if err == nil || !strings.Contains(err.Error(), "expects '\"' or 'n', but found '{'") {
		return result, err
	}

	c.logger.WarnContext(ctx, "could not parse as versioned tx, retrying as legacy",
		"signature", sig.String(),
	)
	result, err = c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding: solana.EncodingBase64,
	})
	if c.metrics != nil {
		c.metrics.RecordUpstreamCall("solana_rpc", err)
	}
	return result, err
}

// FetchMintMemo reads back the CRYPT memo written by a mint transaction.
func (c *Client) FetchMintMemo(ctx context.Context, signature string) (cards.MintMemo, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return cards.MintMemo{}, fmt.Errorf("invalid signature: %w", err)
	}
	result, err := c.fetchTransaction(ctx, sig)
	if err != nil {
		return cards.MintMemo{}, fmt.Errorf("failed to get transaction: %w", err)
	}
	if result == nil || result.Transaction == nil {
		return cards.MintMemo{}, ErrMemoNotFound
	}
	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return cards.MintMemo{}, fmt.Errorf("failed to decode transaction: %w", err)
	}

	keys := tx.Message.AccountKeys
	for _, instruction := range tx.Message.Instructions {
		if int(instruction.ProgramIDIndex) >= len(keys) {
			continue
		}
		programID := keys[instruction.ProgramIDIndex]
		if !programID.Equals(MemoProgramIDSPL) && !programID.Equals(MemoProgramIDLegacy) {
			continue
		}
		var memo cards.MintMemo
		if err := json.Unmarshal([]byte(parseMemo(instruction.Data)), &memo); err != nil {
			continue
		}
		if memo.Protocol == cards.CollectionSymbol {
			return memo, nil
		}
	}
	return cards.MintMemo{}, ErrMemoNotFound
}
