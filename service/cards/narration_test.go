package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectGroup_Priority(t *testing.T) {
	tests := []struct {
		name string
		typ  TxType
		tags Tags
		net  float64
		want NarrationGroup
	}{
		{name: "whale beats memecoin", typ: TxSwap, tags: Tags{"memecoin", "whale"}, want: GroupSwapWhale},
		{name: "memecoin beats big", typ: TxSwap, tags: Tags{"big", "memecoin"}, want: GroupSwapMemecoin},
		{name: "big swap", typ: TxSwap, tags: Tags{"big"}, want: GroupSwapBig},
		{name: "solid swap", typ: TxSwap, tags: Tags{"solid"}, want: GroupSwapSolid},
		{name: "untagged swap", typ: TxSwap, want: GroupSwapSmall},
		{name: "premium mint", typ: TxNFTMint, tags: Tags{"premium_mint"}, want: GroupNFTMintPremium},
		{name: "compressed mint", typ: TxCompressedNFTMint, tags: Tags{"free_mint"}, want: GroupNFTMint},
		{name: "big sale reads as whale sale", typ: TxNFTSale, tags: Tags{"big_sale"}, want: GroupNFTSaleWhale},
		{name: "plain sale", typ: TxNFTSale, tags: Tags{"sale", "profit"}, want: GroupNFTSale},
		{name: "massive beats direction", typ: TxTransfer, tags: Tags{"massive"}, net: 600, want: GroupTransferMassive},
		{name: "whale move", typ: TxSOLTransfer, tags: Tags{"whale_move"}, want: GroupTransferBig},
		{name: "big move", typ: TxTransfer, tags: Tags{"big_move"}, want: GroupTransferBig},
		{name: "incoming", typ: TxTransfer, net: 1, want: GroupTransferIn},
		{name: "outgoing", typ: TxTransfer, net: -1, want: GroupTransferOut},
		{name: "zero net reads as outgoing", typ: TxTransfer, want: GroupTransferOut},
		{name: "whale stake", typ: TxStakeSOL, tags: Tags{"whale_stake"}, want: GroupWhaleStake},
		{name: "stake", typ: TxStakeSOL, tags: Tags{"stake"}, want: GroupStake},
		{name: "unstake ignores tags", typ: TxUnstakeSOL, tags: Tags{"whale_stake"}, want: GroupUnstake},
		{name: "token launch", typ: TxTokenMint, want: GroupTokenCreate},
		{name: "burn", typ: TxBurn, want: GroupBurn},
		{name: "nft burn", typ: TxBurnNFT, want: GroupBurn},
		{name: "listing", typ: TxNFTListing, tags: Tags{"high_listing"}, want: GroupDefault},
		{name: "unlisted", typ: TxOther, want: GroupDefault},
		{name: "empty", typ: TxEmpty, want: GroupDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectGroup(tt.typ, tt.tags, tt.net))
		})
	}
}

func TestNarrations_EveryGroupHasTemplates(t *testing.T) {
	groups := []NarrationGroup{
		GroupSwapWhale, GroupSwapMemecoin, GroupSwapBig, GroupSwapSolid, GroupSwapSmall,
		GroupNFTMintPremium, GroupNFTMint, GroupNFTSaleWhale, GroupNFTSale,
		GroupTransferMassive, GroupTransferBig, GroupTransferIn, GroupTransferOut,
		GroupStake, GroupWhaleStake, GroupUnstake, GroupTokenCreate, GroupBurn, GroupDefault,
	}

	assert.Len(t, narrations, len(groups))
	for _, g := range groups {
		assert.Positive(t, TemplateCount(g), "group %s", g)
	}
	assert.Equal(t, 4, TemplateCount(GroupSwapMemecoin))
	assert.Equal(t, 1, TemplateCount(GroupWhaleStake))
}

func TestNarrate_Interpolates(t *testing.T) {
	ctx := NarrationContext{SOL: 25, Net: 25}

	got := NewNarrator(fixedPicker(1)).Narrate(TxSOLTransfer, nil, ctx)

	assert.Equal(t,
		"Incoming: 25.00 SOL. Payday? Profit withdrawal? A friend paying back a loan from 2023? The best stories on-chain are the ones you'll never fully know.",
		got)
}

func TestNarrate_PicksWithinGroup(t *testing.T) {
	ctx := NarrationContext{InAmt: "3.00", InTk: "SOL", OutAmt: "9.5K", OutTk: "BONK", Src: "JUPITER"}
	seen := make(map[string]bool)

	for i := 0; i < TemplateCount(GroupSwapMemecoin); i++ {
		got := NewNarrator(fixedPicker(i)).Narrate(TxSwap, Tags{"memecoin"}, ctx)
		assert.Contains(t, got, "BONK")
		seen[got] = true
	}

	assert.Len(t, seen, TemplateCount(GroupSwapMemecoin))
}

func TestNarrate_DefaultIsConstant(t *testing.T) {
	got := NewNarrator(fixedPicker(0)).Narrate(TxUnknown, nil, NarrationContext{})

	assert.Equal(t,
		"A transaction recorded on Solana. The chain doesn't judge. It doesn't editorialize. It just remembers. And now, so do you.",
		got)
}
