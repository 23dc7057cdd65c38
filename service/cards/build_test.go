package cards

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPicker int

func (p fixedPicker) IntN(n int) int { return int(p) % n }

var testNow = time.Date(2024, time.December, 25, 12, 0, 0, 0, time.UTC)

func newTestBuilder() *Builder {
	return NewBuilder(
		WithNarrator(NewNarrator(fixedPicker(0))),
		WithClock(func() time.Time { return testNow }),
	)
}

func TestBuild_WhaleMemecoinSwap(t *testing.T) {
	tx := RawTransaction{
		Type:            "SWAP",
		Source:          "JUPITER",
		Signature:       "5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tp",
		Timestamp:       testNow.Add(-2 * time.Hour).Unix(),
		NativeTransfers: []NativeTransfer{sent(420)},
		TokenTransfers: []TokenTransfer{
			{FromUserAccount: otherWallet, ToUserAccount: testWallet, Mint: bonkMint, TokenAmount: 1_500_000},
		},
	}

	card := newTestBuilder().Build(tx, testWallet, 0)

	assert.Equal(t, 1, card.ID)
	assert.Equal(t, CardSwap, card.Type)
	assert.Equal(t, Legendary, card.Rarity)
	assert.Equal(t, TokenFlow{Symbol: "SOL", Amount: "420.00", Icon: "◎"}, card.In)
	assert.Equal(t, TokenFlow{Symbol: "BONK", Amount: "1.5M", Icon: "$"}, card.Out)
	assert.Equal(t, "420.00 SOL → BONK", card.Title)
	assert.Equal(t, "SWAPPED", card.PnL)
	assert.False(t, card.Up)
	assert.Equal(t, "~420.00 SOL", card.USD)
	assert.Equal(t, "JUPITER", card.Platform)
	assert.Equal(t, "5j7s6...P4tp", card.Tx)
	assert.Equal(t, tx.Signature, card.FullTx)
	assert.Equal(t, "2h", card.Ago)
	assert.Equal(t, "XII.25.2024", card.Date)
	assert.Equal(t, User{Name: "7xKXtg2C.sol", Addr: "7xKX...gAsU"}, card.User)
	assert.True(t, card.Tags.Has("whale"))
	assert.True(t, card.Tags.Has("memecoin"))
	assert.Equal(t,
		"420.00 SOL into BONK. In one click. No slippage prayer, no second guess. When you're this deep, hesitation is the only real risk.",
		card.Narration)
}

func TestBuild_MassiveTransferSent(t *testing.T) {
	tx := RawTransaction{
		Type:            "TRANSFER",
		Signature:       "sigB",
		NativeTransfers: []NativeTransfer{sent(10000)},
	}

	card := newTestBuilder().Build(tx, testWallet, 3)

	assert.Equal(t, 4, card.ID)
	assert.True(t, card.Tags.Has("massive"))
	assert.Equal(t, CardBigMove, card.Type)
	assert.Equal(t, "SENT", card.PnL)
	assert.False(t, card.Up)
	assert.Equal(t, "SENT 10.0K SOL", card.Title)
	assert.Equal(t, TokenFlow{Symbol: "SENT", Amount: "10.0K", Icon: "↗"}, card.Out)
	assert.Equal(t, Legendary, card.Rarity)
	assert.Equal(t, "TRANSFER", card.Platform)
}

func TestBuild_WhaleNFTSale(t *testing.T) {
	tx := RawTransaction{
		Type:            "NFT_SALE",
		Source:          "MAGIC_EDEN",
		NativeTransfers: []NativeTransfer{received(60)},
	}

	card := newTestBuilder().Build(tx, testWallet, 0)

	assert.Equal(t, Tags{"whale_sale", "profit"}, card.Tags)
	assert.Equal(t, Legendary, card.Rarity)
	assert.Equal(t, CardSwap, card.Type)
	assert.Equal(t, "+60.00", card.PnL)
	assert.True(t, card.Up)
	assert.True(t, card.NFT)
	assert.Equal(t, TokenFlow{Symbol: "NFT", Amount: "SOLD", Icon: "†"}, card.In)
	assert.Equal(t, "NFT SOLD FOR 60.00 SOL", card.Title)
}

func TestBuild_Titles(t *testing.T) {
	tests := []struct {
		name  string
		tx    RawTransaction
		title string
		pnl   string
		typ   CardType
	}{
		{
			name:  "free mint",
			tx:    RawTransaction{Type: "NFT_MINT"},
			title: "FREE MINT",
			pnl:   "MINTED",
			typ:   CardMint,
		},
		{
			name:  "paid mint",
			tx:    RawTransaction{Type: "COMPRESSED_NFT_MINT", NativeTransfers: []NativeTransfer{sent(3)}},
			title: "MINTED NFT FOR 3.00 SOL",
			pnl:   "MINTED",
			typ:   CardMint,
		},
		{
			name:  "received",
			tx:    RawTransaction{Type: "SOL_TRANSFER", NativeTransfers: []NativeTransfer{received(25)}},
			title: "RECEIVED 25.00 SOL",
			pnl:   "RECEIVED",
			typ:   CardBigMove,
		},
		{
			name:  "stake",
			tx:    RawTransaction{Type: "STAKE_SOL", NativeTransfers: []NativeTransfer{sent(40)}},
			title: "STAKED 40.00 SOL",
			pnl:   "LOCKED",
			typ:   CardDiamondHands,
		},
		{
			name:  "unstake",
			tx:    RawTransaction{Type: "UNSTAKE_SOL", NativeTransfers: []NativeTransfer{received(40)}},
			title: "UNSTAKED 40.00 SOL",
			pnl:   "FREED",
			typ:   CardDiamondHands,
		},
		{
			name:  "token launch",
			tx:    RawTransaction{Type: "TOKEN_MINT"},
			title: "LAUNCHED A TOKEN",
			pnl:   "CREATED",
			typ:   CardMint,
		},
		{
			name:  "burn",
			tx:    RawTransaction{Type: "BURN"},
			title: "BURNED",
			pnl:   "ASH",
			typ:   CardRug,
		},
		{
			name:  "unlisted type with source",
			tx:    RawTransaction{Type: "ADD_LIQUIDITY", Source: "RAYDIUM", NativeTransfers: []NativeTransfer{sent(2)}},
			title: "ADD_LIQUIDITY via RAYDIUM",
			pnl:   "2.00 SOL",
			typ:   CardSwap,
		},
		{
			name:  "empty type and source",
			tx:    RawTransaction{},
			title: "TX via SOLANA",
			pnl:   "TX",
			typ:   CardSwap,
		},
		{
			name:  "nft sale at a loss",
			tx:    RawTransaction{Type: "NFT_SALE", NativeTransfers: []NativeTransfer{sent(1)}},
			title: "NFT SOLD FOR 1.00 SOL",
			pnl:   "1.00",
			typ:   CardBigMove,
		},
	}

	b := newTestBuilder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := b.Build(tt.tx, testWallet, 0)
			assert.Equal(t, tt.title, card.Title)
			assert.Equal(t, tt.pnl, card.PnL)
			assert.Equal(t, tt.typ, card.Type)
			assert.True(t, card.Type.Valid())
			assert.NotEmpty(t, card.Narration)
		})
	}
}

func TestBuild_EmptyTagsAreNotNil(t *testing.T) {
	card := newTestBuilder().Build(RawTransaction{Type: "TRANSFER", NativeTransfers: []NativeTransfer{sent(1)}}, testWallet, 0)

	require.NotNil(t, card.Tags)
	assert.Empty(t, card.Tags)
	assert.Equal(t, Common, card.Rarity)
}

func TestBuild_SwapFallsBackToNativeReceipt(t *testing.T) {
	tx := RawTransaction{
		Type: "SWAP",
		NativeTransfers: []NativeTransfer{
			received(4),
		},
		TokenTransfers: []TokenTransfer{
			{FromUserAccount: testWallet, ToUserAccount: otherWallet, Mint: usdcMint, TokenAmount: 500},
		},
	}

	card := newTestBuilder().Build(tx, testWallet, 0)

	assert.Equal(t, TokenFlow{Symbol: "USDC", Amount: "500.00", Icon: "$"}, card.In)
	assert.Equal(t, TokenFlow{Symbol: "SOL", Amount: "4.00", Icon: "◎"}, card.Out)
	assert.Equal(t, "500.00 USDC → SOL", card.Title)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		typ  TxType
		net  float64
		want CardType
	}{
		{TxSwap, 0, CardSwap},
		{TxNFTMint, 0, CardMint},
		{TxCompressedNFTMint, 0, CardMint},
		{TxTokenMint, 0, CardMint},
		{TxNFTSale, 1, CardSwap},
		{TxNFTSale, 0, CardBigMove},
		{TxNFTSale, -1, CardBigMove},
		{TxTransfer, 5, CardBigMove},
		{TxSOLTransfer, -5, CardBigMove},
		{TxStakeSOL, 0, CardDiamondHands},
		{TxUnstakeSOL, 0, CardDiamondHands},
		{TxBurn, 0, CardRug},
		{TxBurnNFT, 0, CardRug},
		{TxNFTListing, 0, CardSwap},
		{TxOther, 0, CardSwap},
		{TxUnknown, 0, CardSwap},
		{TxEmpty, 0, CardSwap},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String()+"/"+FormatAmount(tt.net), func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.typ, tt.net))
		})
	}
}

func TestRarityFor(t *testing.T) {
	tests := []struct {
		name string
		sol  float64
		tags Tags
		want Rarity
	}{
		{name: "tiny untagged", sol: 0.5, want: Common},
		{name: "over ten", sol: 10.5, want: Rare},
		{name: "exactly ten", sol: 10, want: Common},
		{name: "over a hundred", sol: 100.5, want: Legendary},
		{name: "exactly a hundred", sol: 100, want: Rare},
		{name: "memecoin tag", sol: 1, tags: Tags{"memecoin"}, want: Rare},
		{name: "premium mint tag", sol: 0, tags: Tags{"premium_mint"}, want: Rare},
		{name: "creator tag", sol: 0, tags: Tags{"creator"}, want: Legendary},
		{name: "massive tag", sol: 1, tags: Tags{"massive"}, want: Legendary},
		{name: "legendary wins over rare", sol: 1, tags: Tags{"big", "whale"}, want: Legendary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RarityFor(tt.sol, tt.tags))
		})
	}
}

func TestRarityFor_MonotonicInSOL(t *testing.T) {
	prev := Common
	for _, sol := range []float64{0, 1, 5, 10, 10.01, 50, 100, 100.01, 1000} {
		r := RarityFor(sol, nil)
		assert.GreaterOrEqual(t, r, prev, "rarity dropped at %v SOL", sol)
		prev = r
	}
}

func TestDecorate_LeavesScoringFieldsAlone(t *testing.T) {
	b := newTestBuilder()
	tx := RawTransaction{Type: "NFT_SALE", NativeTransfers: []NativeTransfer{received(60)}}
	built := b.Build(tx, testWallet, 0)

	cs := []Card{built}
	NewDecorator(fixedPicker(42)).Decorate(cs)

	assert.Equal(t, 142, cs[0].Likes)
	assert.Equal(t, 52, cs[0].Comments)
	assert.False(t, cs[0].Liked)
	assert.Equal(t, built.Tags, cs[0].Tags)
	assert.Equal(t, built.Rarity, cs[0].Rarity)
	assert.Equal(t, built.Type, cs[0].Type)
}

func TestDecorate_Ranges(t *testing.T) {
	cs := make([]Card, 200)
	NewDecorator(nil).Decorate(cs)

	for _, c := range cs {
		assert.GreaterOrEqual(t, c.Likes, 100)
		assert.Less(t, c.Likes, 5100)
		assert.GreaterOrEqual(t, c.Comments, 10)
		assert.Less(t, c.Comments, 510)
	}
}

func TestCard_ToggleLike(t *testing.T) {
	c := Card{Likes: 10}

	c.ToggleLike()
	assert.True(t, c.Liked)
	assert.Equal(t, 11, c.Likes)

	c.ToggleLike()
	assert.False(t, c.Liked)
	assert.Equal(t, 10, c.Likes)
}
