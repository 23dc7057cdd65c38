package cards

import (
	"fmt"
	"math/rand/v2"
)

// NarrationContext is the data interpolated into narration templates.
type NarrationContext struct {
	SOL    float64
	Net    float64
	Src    string
	InAmt  string
	InTk   string
	OutAmt string
	OutTk  string
}

// NarrationGroup names a set of interchangeable templates.
type NarrationGroup string

const (
	GroupSwapWhale       NarrationGroup = "swap_whale"
	GroupSwapMemecoin    NarrationGroup = "swap_memecoin"
	GroupSwapBig         NarrationGroup = "swap_big"
	GroupSwapSolid       NarrationGroup = "swap_solid"
	GroupSwapSmall       NarrationGroup = "swap_small"
	GroupNFTMintPremium  NarrationGroup = "nft_mint_premium"
	GroupNFTMint         NarrationGroup = "nft_mint"
	GroupNFTSaleWhale    NarrationGroup = "nft_sale_whale"
	GroupNFTSale         NarrationGroup = "nft_sale"
	GroupTransferMassive NarrationGroup = "transfer_massive"
	GroupTransferBig     NarrationGroup = "transfer_big"
	GroupTransferIn      NarrationGroup = "transfer_in"
	GroupTransferOut     NarrationGroup = "transfer_out"
	GroupStake           NarrationGroup = "stake"
	GroupWhaleStake      NarrationGroup = "whale_stake"
	GroupUnstake         NarrationGroup = "unstake"
	GroupTokenCreate     NarrationGroup = "token_create"
	GroupBurn            NarrationGroup = "burn"
	GroupDefault         NarrationGroup = "default"
)

type template func(c NarrationContext) string

var narrations = map[NarrationGroup][]template{
	GroupSwapWhale: {
		func(c NarrationContext) string {
			return fmt.Sprintf("%s %s into %s. In one click. No slippage prayer, no second guess. When you're this deep, hesitation is the only real risk.", c.InAmt, c.InTk, c.OutTk)
		},
		func(c NarrationContext) string {
			return fmt.Sprintf("Most people don't move %s %s in a year. This wallet did it in one transaction on %s. The chain doesn't flinch. But the orderbook did.", c.InAmt, c.InTk, c.Src)
		},
		func(c NarrationContext) string {
			return fmt.Sprintf("A %s %s swap that briefly moved the price. Somewhere a chart watcher spilled their coffee. Somewhere else, a bot recalibrated. The whale doesn't care about either.", c.InAmt, c.InTk)
		},
	},
	GroupSwapMemecoin: {
		func(c NarrationContext) string {
			return fmt.Sprintf("Aped %s %s into %s. No whitepaper. No roadmap. Just a ticker, a vibe, and the unshakeable conviction that this time it's different. It's always different.", c.InAmt, c.InTk, c.OutTk)
		},
		func(c NarrationContext) string {
			return fmt.Sprintf("The degen alarm went off at 3am. %s was trending. %s %s later, the position was open. Sleep is for people who don't check charts in the dark.", c.OutTk, c.InAmt, c.InTk)
		},
		func(c NarrationContext) string {
			return fmt.Sprintf("%s. That's it. That's the thesis. %s %s deployed on pure instinct. The memecoins don't need fundamentals. They need believers.", c.OutTk, c.InAmt, c.InTk)
		},
		func(c NarrationContext) string {
			return fmt.Sprintf("Swapped into %s like it was inevitable. %s %s gone. No research. No due diligence. Just a Telegram screenshot and faith.", c.OutTk, c.InAmt, c.InTk)
		},
	},
	GroupSwapBig: {
		func(c NarrationContext) string {
			return fmt.Sprintf("%s %s → %s %s. Not a casual trade. This was a decision. The kind you make after staring at the same chart for three hours straight.", c.InAmt, c.InTk, c.OutAmt, c.OutTk)
		},
		func(c NarrationContext) string {
			return fmt.Sprintf("Rotated %s %s into %s on %s. A calculated rebalance or a conviction bet? The chain records the what. Never the why.", c.InAmt, c.InTk, c.OutTk, c.Src)
		},
		func(c NarrationContext) string {
			return fmt.Sprintf("%s %s converted to %s %s. Big enough to mean something. Small enough to not be reckless. The sweet spot.", c.InAmt, c.InTk, c.OutAmt, c.OutTk)
		},
	},
	GroupSwapSolid: {
		func(c NarrationContext) string {
			return fmt.Sprintf("%s %s → %s %s via %s. A clean swap. No drama. Just someone who knows what they want and takes it.", c.InAmt, c.InTk, c.OutAmt, c.OutTk, c.Src)
		},
		func(c NarrationContext) string {
			return fmt.Sprintf("Swapped %s for %s. Every portfolio is a story told in trades. This chapter was quiet but deliberate.", c.InTk, c.OutTk)
		},
		func(c NarrationContext) string {
			return fmt.Sprintf("Another day, another swap. %s %s became %s %s. The grind doesn't sleep.", c.InAmt, c.InTk, c.OutAmt, c.OutTk)
		},
	},
	GroupSwapSmall: {
		func(c NarrationContext) string {
			return fmt.Sprintf("%s %s → %s. Small trade, maybe. But every empire starts with a single transaction. This one's on the permanent record.", c.InAmt, c.InTk, c.OutTk)
		},
		func(c NarrationContext) string {
			return fmt.Sprintf("A modest swap on %s. Not every move needs to be a whale play. Sometimes you're just building a position, one brick at a time.", c.Src)
		},
	},
	GroupNFTMintPremium: {
		func(c NarrationContext) string {
			return fmt.Sprintf("Dropped %s SOL on a mint. While others waited for the free claim, this wallet paid full price to be early. That's not spending — that's a statement of intent.", FormatAmount(c.SOL))
		},
		func(c NarrationContext) string {
			return fmt.Sprintf("%s SOL minted. First 100 energy. The kind of bet that either ages like wine or becomes an expensive JPEG lesson. Either way, it's permanent.", FormatAmount(c.SOL))
		},
	},
	GroupNFTMint: {
		constant("Minted. Added another piece to the permanent collection. Some people collect art. Some collect status. Some just can't resist a mint button at 2am."),
		constant("Another NFT enters the wallet. Every mint is a tiny act of faith — believing that this image, this community, this moment, means something."),
		constant(`Hit the mint button. That split second between "confirm transaction" and the NFT appearing in your wallet? That's the purest form of hope in crypto.`),
	},
	GroupNFTSaleWhale: {
		func(c NarrationContext) string {
			return fmt.Sprintf("%s SOL from a single NFT sale. That's not flipping — that's cashing a lottery ticket. Diamond hands finally let go, and the market paid up.", FormatAmount(c.SOL))
		},
		func(c NarrationContext) string {
			return fmt.Sprintf(`Sold for %s SOL. The kind of exit that makes you rethink everything. Someone held through the doubt, the FUD, the "NFTs are dead" tweets. This was the payoff.`, FormatAmount(c.SOL))
		},
	},
	GroupNFTSale: {
		func(c NarrationContext) string {
			return fmt.Sprintf("NFT sold for %s SOL. Someone's exit. Someone else's entry. The art stays the same. The stories around it keep changing.", FormatAmount(c.SOL))
		},
		func(c NarrationContext) string {
			return fmt.Sprintf("Closed a position at %s SOL. In a market full of diamond hand LARPers, actually taking profit is the rarest move of all.", FormatAmount(c.SOL))
		},
	},
	GroupTransferMassive: {
		func(c NarrationContext) string {
			return fmt.Sprintf("%s SOL just moved. That's not a transaction — that's a migration. Cold storage? OTC deal? Estate planning? The chain keeps the secret forever.", FormatAmount(c.SOL))
		},
		func(c NarrationContext) string {
			return fmt.Sprintf("%s SOL in a single transfer. Somewhere between reckless and legendary. The kind of move that makes block explorers feel like thriller novels.", FormatAmount(c.SOL))
		},
	},
	GroupTransferBig: {
		func(c NarrationContext) string {
			return fmt.Sprintf("%s SOL on the move. Large enough to raise eyebrows. The destination tells one story. The timing tells another. Both are written in stone.", FormatAmount(c.SOL))
		},
		func(c NarrationContext) string {
			return fmt.Sprintf("Moved %s SOL. Not a swap. Not a trade. A deliberate relocation of capital. Every big wallet has a system. This was part of the plan.", FormatAmount(c.SOL))
		},
	},
	GroupTransferIn: {
		func(c NarrationContext) string {
			return fmt.Sprintf("%s SOL landed. Funds arrived like a message in a bottle — you know it came from somewhere, but the chain only tells you from whom, not why.", FormatAmount(c.SOL))
		},
		func(c NarrationContext) string {
			return fmt.Sprintf("Incoming: %s SOL. Payday? Profit withdrawal? A friend paying back a loan from 2023? The best stories on-chain are the ones you'll never fully know.", FormatAmount(c.SOL))
		},
	},
	GroupTransferOut: {
		func(c NarrationContext) string {
			return fmt.Sprintf("%s SOL sent out into the void. Every outbound transfer is a little death — SOL leaving your wallet, headed somewhere you can only watch.", FormatAmount(c.SOL))
		},
		func(c NarrationContext) string {
			return fmt.Sprintf("Sent %s SOL. The wallet got lighter. But lighter isn't always worse. Sometimes you're paying for something that doesn't show up on-chain yet.", FormatAmount(c.SOL))
		},
	},
	GroupStake: {
		func(c NarrationContext) string {
			return fmt.Sprintf("%s SOL staked. Locked up and earning. While traders chase the next 10x, the stakers play the infinite game. Patience as a position.", FormatAmount(c.SOL))
		},
		func(c NarrationContext) string {
			return fmt.Sprintf("Staked %s SOL. The most boring trade in crypto is also the most disciplined. Validators eat well tonight.", FormatAmount(c.SOL))
		},
	},
	GroupWhaleStake: {
		func(c NarrationContext) string {
			return fmt.Sprintf("%s SOL locked in stake. That's not just yield farming — that's a vote of confidence in Solana's future. The biggest bets are the quietest ones.", FormatAmount(c.SOL))
		},
	},
	GroupUnstake: {
		func(c NarrationContext) string {
			return fmt.Sprintf("%s SOL unstaked and freed. The lockup period ended. Now the real question: redeploy, rotate, or ride it? The chain is watching.", FormatAmount(c.SOL))
		},
	},
	GroupTokenCreate: {
		constant("Launched a token. From zero to contract address. Most won't survive the week. But every blue chip started exactly like this — one deploy, zero holders, infinite possibility."),
		constant("Token created. A new asset born on Solana. The ticker is set. The supply is minted. Everything else — the community, the narrative, the chart — that's still unwritten."),
	},
	GroupBurn: {
		constant("Burned. Sent to the void address, never to return. Some things need to be destroyed to make room for what comes next. Digital cremation."),
		constant("Burned on-chain. Permanent. Irreversible. The blockchain equivalent of lighting a match. Whatever this was, it's ash now."),
	},
	GroupDefault: {
		constant("A transaction recorded on Solana. The chain doesn't judge. It doesn't editorialize. It just remembers. And now, so do you."),
		constant("On-chain activity. Not every move needs a headline. Some moments are just proof that this wallet was alive, active, doing something. That's enough."),
	},
}

func constant(s string) template {
	return func(NarrationContext) string { return s }
}

// TemplateCount returns the number of templates in group.
func TemplateCount(group NarrationGroup) int {
	return len(narrations[group])
}

// SelectGroup picks the narration group for a transaction. Tags are not
// exclusive, so checks run in priority order and the first match wins.
func SelectGroup(typ TxType, tags Tags, net float64) NarrationGroup {
	switch typ {
	case TxSwap:
		switch {
		case tags.Has("whale"):
			return GroupSwapWhale
		case tags.Has("memecoin"):
			return GroupSwapMemecoin
		case tags.Has("big"):
			return GroupSwapBig
		case tags.Has("solid"):
			return GroupSwapSolid
		}
		return GroupSwapSmall
	case TxNFTMint, TxCompressedNFTMint:
		if tags.Has("premium_mint") {
			return GroupNFTMintPremium
		}
		return GroupNFTMint
	case TxNFTSale:
		if tags.HasAny("whale_sale", "big_sale") {
			return GroupNFTSaleWhale
		}
		return GroupNFTSale
	case TxTransfer, TxSOLTransfer:
		switch {
		case tags.Has("massive"):
			return GroupTransferMassive
		case tags.HasAny("whale_move", "big_move"):
			return GroupTransferBig
		case net > 0:
			return GroupTransferIn
		}
		return GroupTransferOut
	case TxStakeSOL:
		if tags.Has("whale_stake") {
			return GroupWhaleStake
		}
		return GroupStake
	case TxUnstakeSOL:
		return GroupUnstake
	case TxTokenMint:
		return GroupTokenCreate
	case TxBurn, TxBurnNFT:
		return GroupBurn
	case TxEmpty, TxUnknown, TxOther, TxNFTListing:
	}
	return GroupDefault
}

// Picker chooses an index in [0, n).
type Picker interface {
	IntN(n int) int
}

type globalPicker struct{}

func (globalPicker) IntN(n int) int { return rand.IntN(n) }

// Narrator turns (type, tags, context) into a line of prose. Template choice
// within a group is the only randomness it introduces.
type Narrator struct {
	pick Picker
}

// NewNarrator returns a narrator drawing from pick, or from the process-wide
// generator when pick is nil.
func NewNarrator(pick Picker) *Narrator {
	if pick == nil {
		pick = globalPicker{}
	}
	return &Narrator{pick: pick}
}

// Narrate returns one interpolated narration for the transaction.
func (n *Narrator) Narrate(typ TxType, tags Tags, c NarrationContext) string {
	ts := narrations[SelectGroup(typ, tags, c.Net)]
	return ts[n.pick.IntN(len(ts))](c)
}
