package solana

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/metrics"
)

// mockRPCClient implements RPCClient for testing.
// It's behavior-focused: we set what it should return, not verify call sequences.
type mockRPCClient struct {
	signatures   []*rpc.TransactionSignature
	transactions map[string]*rpc.GetTransactionResult
	txErrs       map[string]error
	err          error

	// versionedErr is returned for versioned fetches only.
	versionedErr error
	txCalls      int
}

func (m *mockRPCClient) GetSignaturesForAddress(
	ctx context.Context,
	address solana.PublicKey,
	opts *rpc.GetSignaturesForAddressOpts,
) ([]*rpc.TransactionSignature, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.signatures, nil
}

func (m *mockRPCClient) GetTransaction(
	ctx context.Context,
	signature solana.Signature,
	opts *rpc.GetTransactionOpts,
) (*rpc.GetTransactionResult, error) {
	m.txCalls++
	if m.err != nil {
		return nil, m.err
	}
	if m.versionedErr != nil && opts.MaxSupportedTransactionVersion != nil {
		return nil, m.versionedErr
	}
	if err := m.txErrs[signature.String()]; err != nil {
		return nil, err
	}
	if m.transactions == nil {
		return nil, nil
	}
	return m.transactions[signature.String()], nil
}

func newTestClient(mock *mockRPCClient) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(mock, nil, logger)
}

func solTransferResult(t *testing.T, from, to solana.PublicKey, lamports uint64) *rpc.GetTransactionResult {
	t.Helper()
	tx := &solana.Transaction{
		Message: solana.Message{
			AccountKeys: []solana.PublicKey{from, to, SystemProgramID},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 2, Accounts: []uint16{0, 1}, Data: systemTransferData(lamports)},
			},
		},
	}
	return resultFor(t, tx, nil)
}

func TestGetHistory_ParsesTransactions(t *testing.T) {
	ctx := context.Background()

	mock := &mockRPCClient{
		signatures: []*rpc.TransactionSignature{
			sigAt(testSig1, 300),
			sigAt(testSig2, 200),
		},
		transactions: map[string]*rpc.GetTransactionResult{
			testSig1.String(): solTransferResult(t, otherKey, walletKey, 2_000_000_000),
			testSig2.String(): solTransferResult(t, walletKey, otherKey, 500_000_000),
		},
	}
	client := newTestClient(mock)

	txs, err := client.GetHistory(ctx, walletKey.String(), 50)

	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, testSig1.String(), txs[0].Signature)
	assert.Equal(t, int64(300), txs[0].Timestamp)
	assert.InDelta(t, 2.0, cards.NetSOL(txs[0], walletKey.String()), 1e-9)
	assert.Equal(t, testSig2.String(), txs[1].Signature)
	assert.InDelta(t, -0.5, cards.NetSOL(txs[1], walletKey.String()), 1e-9)
}

func TestGetHistory_SkipsFailedTransactions(t *testing.T) {
	ctx := context.Background()

	failed := sigAt(testSig2, 200)
	failed.Err = map[string]any{"InstructionError": []any{0, "Custom"}}

	mock := &mockRPCClient{
		signatures: []*rpc.TransactionSignature{sigAt(testSig1, 300), failed, sigAt(testSig3, 100)},
		transactions: map[string]*rpc.GetTransactionResult{
			testSig1.String(): solTransferResult(t, otherKey, walletKey, 1),
			testSig2.String(): solTransferResult(t, otherKey, walletKey, 1),
			testSig3.String(): solTransferResult(t, otherKey, walletKey, 1),
		},
	}
	client := newTestClient(mock)

	txs, err := client.GetHistory(ctx, walletKey.String(), 50)

	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, testSig1.String(), txs[0].Signature)
	assert.Equal(t, testSig3.String(), txs[1].Signature)
	assert.Equal(t, 2, mock.txCalls)
}

func TestGetHistory_KeepsMetadataWhenFetchFails(t *testing.T) {
	ctx := context.Background()

	mock := &mockRPCClient{
		signatures: []*rpc.TransactionSignature{sigAt(testSig1, 300), sigAt(testSig2, 200)},
		transactions: map[string]*rpc.GetTransactionResult{
			testSig1.String(): solTransferResult(t, otherKey, walletKey, 1_000_000_000),
		},
		txErrs: map[string]error{
			testSig2.String(): errors.New("429 Too Many Requests"),
		},
	}
	client := newTestClient(mock)

	txs, err := client.GetHistory(ctx, walletKey.String(), 50)

	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "TRANSFER", txs[0].Type)
	assert.Equal(t, cards.RawTransaction{Type: "UNKNOWN", Signature: testSig2.String(), Timestamp: 200}, txs[1])
}

func TestGetHistory_InvalidAddress(t *testing.T) {
	client := newTestClient(&mockRPCClient{})

	_, err := client.GetHistory(context.Background(), "not-a-wallet", 50)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid wallet address")
}

func TestGetHistory_SignatureError(t *testing.T) {
	client := newTestClient(&mockRPCClient{err: errors.New("connection refused")})

	_, err := client.GetHistory(context.Background(), walletKey.String(), 50)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get signatures")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGetHistory_RecordsUpstreamCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	mock := &mockRPCClient{
		signatures: []*rpc.TransactionSignature{sigAt(testSig1, 1)},
		transactions: map[string]*rpc.GetTransactionResult{
			testSig1.String(): solTransferResult(t, otherKey, walletKey, 1),
		},
	}
	client := NewClient(mock, m, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := client.GetHistory(context.Background(), walletKey.String(), 10)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != "crypt_upstream_calls_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, total)
}

func TestGetHistory_RespectsContextBetweenRequests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	mock := &mockRPCClient{
		signatures: []*rpc.TransactionSignature{sigAt(testSig1, 2), sigAt(testSig2, 1)},
	}
	client := NewClient(mock, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), WithRequestInterval(time.Hour))

	done := make(chan error, 1)
	go func() {
		_, err := client.GetHistory(ctx, walletKey.String(), 10)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("GetHistory did not return after cancellation")
	}
}

func TestFetchTransaction_LegacyFallback(t *testing.T) {
	mock := &mockRPCClient{
		versionedErr: errors.New(`decode: expects '"' or 'n', but found '{'`),
		transactions: map[string]*rpc.GetTransactionResult{
			testSig1.String(): solTransferResult(t, otherKey, walletKey, 1),
		},
	}
	client := newTestClient(mock)

	result, err := client.fetchTransaction(context.Background(), testSig1)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 2, mock.txCalls)
}

func TestFetchTransaction_OtherErrorsAreNotRetried(t *testing.T) {
	mock := &mockRPCClient{versionedErr: errors.New("node is behind")}
	client := newTestClient(mock)

	_, err := client.fetchTransaction(context.Background(), testSig1)

	require.Error(t, err)
	assert.Equal(t, 1, mock.txCalls)
}

func memoResult(t *testing.T, payload []byte) *rpc.GetTransactionResult {
	t.Helper()
	tx := &solana.Transaction{
		Message: solana.Message{
			AccountKeys: []solana.PublicKey{walletKey, MemoProgramIDSPL},
			Instructions: []solana.CompiledInstruction{
				{ProgramIDIndex: 1, Accounts: []uint16{0}, Data: payload},
			},
		},
	}
	return resultFor(t, tx, nil)
}

func TestFetchMintMemo(t *testing.T) {
	card := cards.Card{
		ID:       3,
		FullTx:   testSig2.String(),
		Rarity:   cards.Legendary,
		Type:     cards.CardBigMove,
		Title:    "WHALE ALERT",
		Platform: "JUPITER",
		PnL:      "+12.5 SOL",
	}
	memo := cards.NewMintMemo(card, walletKey.String(), 1735128000000)
	payload, err := json.Marshal(memo)
	require.NoError(t, err)

	mock := &mockRPCClient{
		transactions: map[string]*rpc.GetTransactionResult{
			testSig1.String(): memoResult(t, payload),
		},
	}
	client := newTestClient(mock)

	got, err := client.FetchMintMemo(context.Background(), testSig1.String())

	require.NoError(t, err)
	assert.Equal(t, memo, got)
	assert.Equal(t, "CRYPT", got.Protocol)
	assert.Equal(t, testSig2.String(), got.TxHash)
}

func TestFetchMintMemo_NotFound(t *testing.T) {
	tests := []struct {
		name   string
		result *rpc.GetTransactionResult
	}{
		{name: "missing transaction", result: nil},
		{name: "plain memo", result: memoResult(t, []byte("gm"))},
		{name: "other protocol", result: memoResult(t, []byte(`{"protocol":"OTHER","version":1}`))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockRPCClient{
				transactions: map[string]*rpc.GetTransactionResult{testSig1.String(): tt.result},
			}

			_, err := newTestClient(mock).FetchMintMemo(context.Background(), testSig1.String())

			assert.ErrorIs(t, err, ErrMemoNotFound)
		})
	}
}

func TestFetchMintMemo_InvalidSignature(t *testing.T) {
	_, err := newTestClient(&mockRPCClient{}).FetchMintMemo(context.Background(), "bogus")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMemoNotFound)
}
