package cards

import (
	"math"
	"time"
)

// Builder turns scored transactions into cards. Every field it produces is a
// deterministic function of the transaction and wallet except the narration
// template choice; cosmetic counters are left to a Decorator.
type Builder struct {
	scorer   *Scorer
	tokens   TokenLookup
	narrator *Narrator
	now      func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithTokens sets the token table used for flows and memecoin detection.
func WithTokens(t TokenLookup) BuilderOption {
	return func(b *Builder) {
		b.tokens = t
		b.scorer = NewScorer(t)
	}
}

// WithNarrator sets the narration selector.
func WithNarrator(n *Narrator) BuilderOption {
	return func(b *Builder) { b.narrator = n }
}

// WithClock sets the clock used for relative ages.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// NewBuilder returns a Builder with the default token table, a randomly
// seeded narrator and the wall clock, each overridable through opts.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		scorer:   defaultScorer,
		tokens:   DefaultTokens,
		narrator: NewNarrator(nil),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Scorer exposes the builder's scorer so the scanner ranks with the same
// token table the cards are built with.
func (b *Builder) Scorer() *Scorer {
	return b.scorer
}

// Classify maps a transaction type to its card type. NFT sales depend on the
// direction of funds.
func Classify(typ TxType, net float64) CardType {
	switch typ {
	case TxSwap:
		return CardSwap
	case TxNFTMint, TxCompressedNFTMint, TxTokenMint:
		return CardMint
	case TxNFTSale:
		if net > 0 {
			return CardSwap
		}
		return CardBigMove
	case TxTransfer, TxSOLTransfer:
		return CardBigMove
	case TxStakeSOL, TxUnstakeSOL:
		return CardDiamondHands
	case TxBurn, TxBurnNFT:
		return CardRug
	case TxEmpty, TxUnknown, TxOther, TxNFTListing:
	}
	return CardSwap
}

// RarityFor ranks a scored transaction.
func RarityFor(sol float64, tags Tags) Rarity {
	switch {
	case sol > 100 || tags.HasAny("whale", "massive", "creator"):
		return Legendary
	case sol > 10 || tags.HasAny("big", "premium_mint", "whale_sale", "memecoin"):
		return Rare
	}
	return Common
}

func solFlow(sol float64) TokenFlow {
	return TokenFlow{Symbol: "SOL", Amount: FormatAmount(sol), Icon: "◎"}
}

// Build produces the card for tx as seen from wallet. rank is the zero-based
// selection position; the card id is rank+1.
func (b *Builder) Build(tx RawTransaction, wallet string, rank int) Card {
	res := b.scorer.Score(tx, wallet)
	typ := tx.TxType()
	sol, net := res.SOL, res.Net

	in := solFlow(sol)
	out := TokenFlow{Symbol: "???", Amount: "?", Icon: "?"}
	var title, pnl string

	switch typ {
	case TxSwap:
		sent, hasSent := b.firstTokenLeg(tx, func(t TokenTransfer) bool { return t.FromUserAccount == wallet })
		received, hasReceived := b.firstTokenLeg(tx, func(t TokenTransfer) bool { return t.ToUserAccount == wallet })
		if hasSent {
			in = sent
		}
		if hasReceived {
			out = received
		} else {
			for _, nt := range tx.NativeTransfers {
				if nt.ToUserAccount == wallet {
					out = solFlow(math.Abs(float64(nt.Amount)) / lamportsPerSOL)
					break
				}
			}
		}
		title = in.Amount + " " + in.Symbol + " → " + out.Symbol
		pnl = "SWAPPED"

	case TxNFTMint, TxCompressedNFTMint:
		out = TokenFlow{Symbol: "NFT", Amount: "MINTED", Icon: "†"}
		if sol > 0 {
			title = "MINTED NFT FOR " + FormatAmount(sol) + " SOL"
		} else {
			title = "FREE MINT"
		}
		pnl = "MINTED"

	case TxNFTSale:
		in = TokenFlow{Symbol: "NFT", Amount: "SOLD", Icon: "†"}
		out = solFlow(sol)
		title = "NFT SOLD FOR " + FormatAmount(sol) + " SOL"
		pnl = FormatAmount(sol)
		if net > 0 {
			pnl = "+" + pnl
		}

	case TxTransfer, TxSOLTransfer:
		if net < 0 {
			title = "SENT " + FormatAmount(sol) + " SOL"
			out = TokenFlow{Symbol: "SENT", Amount: FormatAmount(sol), Icon: "↗"}
			pnl = "SENT"
		} else {
			title = "RECEIVED " + FormatAmount(sol) + " SOL"
			out = TokenFlow{Symbol: "IN", Amount: FormatAmount(sol), Icon: "↙"}
			pnl = "RECEIVED"
		}

	case TxStakeSOL:
		title = "STAKED " + FormatAmount(sol) + " SOL"
		out = TokenFlow{Symbol: "STAKED", Amount: FormatAmount(sol), Icon: "◎"}
		pnl = "LOCKED"

	case TxUnstakeSOL:
		title = "UNSTAKED " + FormatAmount(sol) + " SOL"
		out = TokenFlow{Symbol: "UNSTAKED", Amount: FormatAmount(sol), Icon: "◎"}
		pnl = "FREED"

	case TxTokenMint:
		out = TokenFlow{Symbol: "TOKEN", Amount: "NEW", Icon: "⚡"}
		title = "LAUNCHED A TOKEN"
		pnl = "CREATED"

	case TxBurn, TxBurnNFT:
		out = TokenFlow{Symbol: "BURNED", Amount: "X", Icon: "X"}
		title = "BURNED"
		pnl = "ASH"

	case TxEmpty, TxUnknown, TxOther, TxNFTListing:
		title = orDefault(tx.Type, "TX") + " via " + orDefault(tx.Source, "SOLANA")
		out = TokenFlow{Symbol: orDefault(tx.Source, "TX"), Amount: FormatAmount(sol), Icon: "⚡"}
		pnl = "TX"
		if sol > 0 {
			pnl = FormatAmount(sol) + " SOL"
		}
	}

	var usd string
	if sol > 0 {
		usd = "~" + FormatAmount(sol) + " SOL"
	}

	tags := res.Tags
	if tags == nil {
		tags = Tags{}
	}

	return Card{
		ID:     rank + 1,
		Type:   Classify(typ, net),
		Rarity: RarityFor(sol, tags),
		Title:  title,
		Narration: b.narrator.Narrate(typ, tags, NarrationContext{
			SOL:    sol,
			Net:    net,
			Src:    orDefault(tx.Source, "Solana"),
			InAmt:  in.Amount,
			InTk:   in.Symbol,
			OutAmt: out.Amount,
			OutTk:  out.Symbol,
		}),
		User:      UserFor(wallet),
		Platform:  orDefault(tx.Source, orDefault(tx.Type, "Solana")),
		Date:      FormatDate(tx.Timestamp),
		In:        in,
		Out:       out,
		PnL:       pnl,
		Up:        net >= 0 && pnl != "SENT",
		USD:       usd,
		Tx:        ShortSignature(tx.Signature),
		FullTx:    tx.Signature,
		NFT:       isNFT(typ),
		Ago:       TimeAgo(tx.Timestamp, b.now()),
		Timestamp: tx.Timestamp,
		Tags:      tags,
	}
}

func (b *Builder) firstTokenLeg(tx RawTransaction, match func(TokenTransfer) bool) (TokenFlow, bool) {
	for _, t := range tx.TokenTransfers {
		if match(t) {
			tok := b.tokens.Lookup(t.Mint)
			return TokenFlow{Symbol: tok.Symbol, Amount: FormatAmount(t.TokenAmount), Icon: tok.Icon}, true
		}
	}
	return TokenFlow{}, false
}

func isNFT(t TxType) bool {
	switch t {
	case TxNFTMint, TxNFTSale, TxCompressedNFTMint, TxBurnNFT:
		return true
	}
	return false
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
