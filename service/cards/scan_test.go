package cards

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brojonat/crypt/service/metrics"
)

type stubProvider struct {
	txs      []RawTransaction
	err      error
	calls    int
	lastAddr string
	lastN    int
}

func (p *stubProvider) GetHistory(_ context.Context, address string, limit int) ([]RawTransaction, error) {
	p.calls++
	p.lastAddr = address
	p.lastN = limit
	return p.txs, p.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScanner(p HistoryProvider, m *metrics.Metrics) *Scanner {
	return NewScanner(p, newTestBuilder(), NewDecorator(fixedPicker(0)), 0, m, discardLogger())
}

func transfer(sig string, amount float64) RawTransaction {
	return RawTransaction{Type: "TRANSFER", Signature: sig, NativeTransfers: []NativeTransfer{sent(amount)}}
}

func TestScan_EmptyHistory(t *testing.T) {
	p := &stubProvider{}

	got := newTestScanner(p, nil).Scan(context.Background(), testWallet)

	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, testWallet, p.lastAddr)
	assert.Equal(t, DefaultHistoryLimit, p.lastN)
}

func TestScan_ProviderFailureIsEmpty(t *testing.T) {
	p := &stubProvider{err: errors.New("upstream 503")}

	got := newTestScanner(p, nil).Scan(context.Background(), testWallet)

	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestScan_NothingPositive(t *testing.T) {
	p := &stubProvider{txs: []RawTransaction{
		transfer("a", 0.001),
		{Type: "UNKNOWN", Signature: "b"},
		{Signature: "c"},
	}}

	got := newTestScanner(p, nil).Scan(context.Background(), testWallet)

	assert.Empty(t, got)
}

func TestScan_DiversityCap(t *testing.T) {
	p := &stubProvider{txs: []RawTransaction{
		transfer("t1", 600),
		transfer("t2", 550),
		transfer("t3", 520),
		transfer("t4", 510),
		{Type: "NFT_SALE", Signature: "s1", NativeTransfers: []NativeTransfer{received(60)}},
		{Type: "TOKEN_MINT", Signature: "m1"},
		{Type: "SWAP", Signature: "w1", NativeTransfers: []NativeTransfer{sent(200)}},
		{Type: "STAKE_SOL", Signature: "k1", NativeTransfers: []NativeTransfer{sent(150)}},
		{Type: "BURN", Signature: "b1"},
	}}

	got := newTestScanner(p, nil).Scan(context.Background(), testWallet)

	require.Len(t, got, 7)
	transfers := 0
	for i, c := range got {
		assert.Equal(t, i+1, c.ID)
		if c.Title[:4] == "SENT" {
			transfers++
		}
	}
	assert.Equal(t, MaxPerType, transfers)
	assert.Equal(t, "s1", got[0].FullTx)
	assert.Equal(t, "w1", got[1].FullTx)
	assert.Equal(t, "t1", got[2].FullTx)
	assert.Equal(t, "t2", got[3].FullTx)
}

func TestScan_OrderedByScore(t *testing.T) {
	p := &stubProvider{txs: []RawTransaction{
		transfer("low", 6),
		{Type: "NFT_SALE", Signature: "high", NativeTransfers: []NativeTransfer{received(60)}},
		{Type: "TOKEN_MINT", Signature: "mid"},
	}}
	ranked := Rank(p.txs, testWallet, nil)

	require.Len(t, ranked, 3)
	assert.Equal(t, "high", ranked[0].Tx.Signature)
	assert.Equal(t, "mid", ranked[1].Tx.Signature)
	assert.Equal(t, "low", ranked[2].Tx.Signature)
}

func TestRank_StableOnTies(t *testing.T) {
	txs := []RawTransaction{transfer("first", 6), transfer("second", 7), transfer("third", 8)}

	ranked := Rank(txs, testWallet, nil)

	for i, want := range []string{"first", "second", "third"} {
		assert.Equal(t, want, ranked[i].Tx.Signature)
	}
}

func TestScan_CapsAtMaxCards(t *testing.T) {
	var txs []RawTransaction
	types := []string{"TRANSFER", "SOL_TRANSFER", "SWAP", "NFT_SALE", "STAKE_SOL", "UNSTAKE_SOL"}
	for i := 0; i < 3; i++ {
		for _, typ := range types {
			txs = append(txs, RawTransaction{
				Type:            typ,
				Signature:       fmt.Sprintf("%s-%d", typ, i),
				NativeTransfers: []NativeTransfer{sent(150)},
			})
		}
	}

	got := newTestScanner(&stubProvider{txs: txs}, nil).Scan(context.Background(), testWallet)

	assert.Len(t, got, MaxCards)
}

func TestSelect_RelaxesWhenTooFew(t *testing.T) {
	txs := []RawTransaction{
		transfer("t1", 600),
		transfer("t2", 550),
		transfer("t3", 520),
		transfer("t4", 510),
		transfer("t5", 505),
		transfer("t6", 502),
		transfer("t7", 501),
		transfer("dust", 0.001),
	}

	selected, relaxed := Select(Rank(txs, testWallet, nil))

	assert.True(t, relaxed)
	require.Len(t, selected, RelaxedMaxCards)
	seen := make(map[string]bool)
	for _, s := range selected {
		assert.Positive(t, s.Score)
		assert.False(t, seen[s.Tx.Signature], "duplicate %s", s.Tx.Signature)
		seen[s.Tx.Signature] = true
	}
	assert.Equal(t, "t1", selected[0].Tx.Signature)
	assert.Equal(t, "t2", selected[1].Tx.Signature)
	assert.Equal(t, "t3", selected[2].Tx.Signature)
}

func TestSelect_RelaxationNeverAddsNonPositive(t *testing.T) {
	txs := []RawTransaction{
		transfer("t1", 600),
		transfer("t2", 550),
		transfer("t3", 520),
		transfer("meh", 1),
	}

	selected, relaxed := Select(Rank(txs, testWallet, nil))

	assert.True(t, relaxed)
	assert.Len(t, selected, 3)
}

func TestSelect_RelaxationWithoutSignatures(t *testing.T) {
	txs := []RawTransaction{
		transfer("", 600),
		transfer("", 550),
		transfer("", 520),
	}

	selected, relaxed := Select(Rank(txs, testWallet, nil))

	assert.True(t, relaxed)
	assert.Len(t, selected, 3)
}

func TestSelect_NoRelaxationWhenEnough(t *testing.T) {
	txs := []RawTransaction{
		transfer("t1", 600),
		{Type: "NFT_SALE", Signature: "s1", NativeTransfers: []NativeTransfer{received(60)}},
		{Type: "TOKEN_MINT", Signature: "m1"},
		{Type: "BURN", Signature: "b1"},
		{Type: "SWAP", Signature: "w1", NativeTransfers: []NativeTransfer{sent(3)}},
	}

	selected, relaxed := Select(Rank(txs, testWallet, nil))

	assert.False(t, relaxed)
	assert.Len(t, selected, 5)
}

func TestScan_EmptyTypeSharesUnknownBucket(t *testing.T) {
	heavy := func(sig, typ string) RawTransaction {
		return RawTransaction{Type: typ, Signature: sig, NativeTransfers: []NativeTransfer{sent(1)}}
	}
	ranked := []Scored{
		{Tx: heavy("a", ""), ScoreResult: ScoreResult{Score: 10}},
		{Tx: heavy("b", "UNKNOWN"), ScoreResult: ScoreResult{Score: 9}},
		{Tx: heavy("c", ""), ScoreResult: ScoreResult{Score: 8}},
		{Tx: heavy("d", "X1"), ScoreResult: ScoreResult{Score: 7}},
		{Tx: heavy("e", "X2"), ScoreResult: ScoreResult{Score: 6}},
		{Tx: heavy("f", "X3"), ScoreResult: ScoreResult{Score: 5}},
		{Tx: heavy("g", "X4"), ScoreResult: ScoreResult{Score: 4}},
	}

	selected, relaxed := Select(ranked)

	assert.False(t, relaxed)
	var sigs []string
	for _, s := range selected {
		sigs = append(sigs, s.Tx.Signature)
	}
	assert.Equal(t, []string{"a", "b", "d", "e", "f", "g"}, sigs)
}

func TestScan_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	p := &stubProvider{txs: []RawTransaction{transfer("t1", 600)}}

	got := newTestScanner(p, m).Scan(context.Background(), testWallet)

	require.Len(t, got, 1)
	count, err := testutil.GatherAndCount(reg, "crypt_scans_total", "crypt_history_fetch_duration_seconds", "crypt_transaction_score")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestFilterByRarity(t *testing.T) {
	cs := []Card{{ID: 1, Rarity: Common}, {ID: 2, Rarity: Legendary}, {ID: 3, Rarity: Rare}}

	assert.Len(t, FilterByRarity(cs, Common), 3)
	got := FilterByRarity(cs, Rare)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].ID)
	assert.Equal(t, 3, got[1].ID)
	assert.Empty(t, FilterByRarity(nil, Legendary))
}
