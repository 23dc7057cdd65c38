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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brojonat/crypt/service/cards"
)

type fakeChain struct {
	balance      uint64
	balanceErr   error
	blockhashErr error
	sendErr      error

	airdrops []uint64
	sent     []*solana.Transaction
}

func (f *fakeChain) GetBalance(ctx context.Context, pub solana.PublicKey) (uint64, error) {
	return f.balance, f.balanceErr
}

func (f *fakeChain) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	if f.blockhashErr != nil {
		return solana.Hash{}, f.blockhashErr
	}
	return solana.Hash{1, 2, 3}, nil
}

func (f *fakeChain) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	f.sent = append(f.sent, tx)
	return tx.Signatures[0], nil
}

func (f *fakeChain) RequestAirdrop(ctx context.Context, pub solana.PublicKey, lamports uint64) (solana.Signature, error) {
	f.airdrops = append(f.airdrops, lamports)
	return solana.Signature{}, nil
}

func newTestRecorder(chain *fakeChain, cluster string) *MemoRecorder {
	r := NewMemoRecorder(chain, solana.NewWallet().PrivateKey, cluster, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.now = func() time.Time { return time.UnixMilli(1735128000000) }
	return r
}

var mintCard = cards.Card{
	ID:       7,
	Type:     cards.CardRug,
	Rarity:   cards.Rare,
	Title:    "RUGGED",
	Platform: "PUMP_FUN",
	PnL:      "-3.2 SOL",
	Tx:       "5j7s6N...Dia7",
	FullTx:   testSig1.String(),
}

func TestMemoRecorder_Record(t *testing.T) {
	chain := &fakeChain{balance: 1_000_000}
	r := newTestRecorder(chain, Devnet)

	result := r.Record(context.Background(), mintCard, walletKey.String())

	require.True(t, result.Success, result.Error)
	require.Len(t, chain.sent, 1)
	tx := chain.sent[0]
	assert.Equal(t, tx.Signatures[0].String(), result.Signature)
	assert.Equal(t, "https://explorer.solana.com/tx/"+result.Signature+"?cluster=devnet", result.Explorer)
	assert.Equal(t, "https://solscan.io/tx/"+result.Signature+"?cluster=devnet", result.Solscan)
	assert.Empty(t, chain.airdrops)

	require.NoError(t, tx.VerifySignatures())
	require.Len(t, tx.Message.Instructions, 1)
	instruction := tx.Message.Instructions[0]
	assert.Equal(t, MemoProgramIDSPL, tx.Message.AccountKeys[instruction.ProgramIDIndex])
	assert.Equal(t, r.authority.PublicKey(), tx.Message.AccountKeys[0])

	var memo cards.MintMemo
	require.NoError(t, json.Unmarshal(instruction.Data, &memo))
	assert.Equal(t, cards.NewMintMemo(mintCard, walletKey.String(), 1735128000000), memo)
	assert.Equal(t, "MINT_CARD", memo.Action)
	assert.Equal(t, walletKey.String(), memo.MintedBy)
	assert.Equal(t, testSig1.String(), memo.TxHash)
}

func TestMemoRecorder_Airdrop(t *testing.T) {
	tests := []struct {
		name     string
		balance  uint64
		cluster  string
		airdrops int
	}{
		{name: "low devnet balance", balance: 9_999, cluster: Devnet, airdrops: 1},
		{name: "funded devnet", balance: 10_000, cluster: Devnet, airdrops: 0},
		{name: "low mainnet balance", balance: 0, cluster: "mainnet-beta", airdrops: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain := &fakeChain{balance: tt.balance}
			r := newTestRecorder(chain, tt.cluster)

			r.Record(context.Background(), mintCard, walletKey.String())

			assert.Len(t, chain.airdrops, tt.airdrops)
			if tt.airdrops > 0 {
				assert.Equal(t, uint64(100_000_000), chain.airdrops[0])
			}
		})
	}
}

func TestMemoRecorder_Failures(t *testing.T) {
	tests := []struct {
		name    string
		chain   *fakeChain
		wantErr string
	}{
		{name: "balance", chain: &fakeChain{balanceErr: errors.New("rpc down")}, wantErr: "failed to get balance: rpc down"},
		{name: "blockhash", chain: &fakeChain{balance: 1e9, blockhashErr: errors.New("timeout")}, wantErr: "failed to get blockhash: timeout"},
		{name: "send", chain: &fakeChain{balance: 1e9, sendErr: errors.New("insufficient funds")}, wantErr: "failed to send transaction: insufficient funds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRecorder(tt.chain, Devnet)

			result := r.Record(context.Background(), mintCard, walletKey.String())

			assert.False(t, result.Success)
			assert.Equal(t, tt.wantErr, result.Error)
			assert.Empty(t, result.Signature)
			assert.Empty(t, result.Explorer)
		})
	}
}

func TestMemoRecorder_NoAuthority(t *testing.T) {
	chain := &fakeChain{balance: 1e9}
	r := NewMemoRecorder(chain, nil, "", nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	result := r.Record(context.Background(), mintCard, walletKey.String())

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "mint authority not configured")
	assert.Empty(t, chain.sent)
}

func TestCheckWalletReady(t *testing.T) {
	tests := []struct {
		name   string
		wallet string
		chain  *fakeChain
		want   WalletReadiness
	}{
		{
			name:   "funded",
			wallet: walletKey.String(),
			chain:  &fakeChain{balance: 250_000_000},
			want:   WalletReadiness{Ready: true, Balance: 0.25, Address: walletKey.String(), Network: Devnet},
		},
		{
			name:   "at threshold",
			wallet: walletKey.String(),
			chain:  &fakeChain{balance: MinReadyLamports},
			want:   WalletReadiness{Ready: false, Balance: 0.000005, Address: walletKey.String(), Network: Devnet},
		},
		{
			name:   "invalid address",
			wallet: "nope",
			chain:  &fakeChain{},
			want:   WalletReadiness{Reason: "invalid wallet address"},
		},
		{
			name:   "rpc error",
			wallet: walletKey.String(),
			chain:  &fakeChain{balanceErr: errors.New("rate limited")},
			want:   WalletReadiness{Reason: "rate limited"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRecorder(tt.chain, "")

			assert.Equal(t, tt.want, r.CheckWalletReady(context.Background(), tt.wallet))
		})
	}
}

func TestBuildMemoTransaction(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	memo := cards.NewMintMemo(mintCard, walletKey.String(), 1)

	tx, err := BuildMemoTransaction(memo, payer, solana.Hash{9})

	require.NoError(t, err)
	assert.Equal(t, solana.Hash{9}, tx.Message.RecentBlockhash)
	assert.Equal(t, payer, tx.Message.AccountKeys[0])
	assert.Empty(t, tx.Signatures)

	want, err := json.Marshal(memo)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(tx.Message.Instructions[0].Data))
}
