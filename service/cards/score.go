package cards

import "math"

const lamportsPerSOL = 1e9

// Tags is an ordered set of scorer labels. Insertion order is preserved so
// that cards list tags in the order the scorer emitted them.
type Tags []string

// Has reports whether tag is present.
func (t Tags) Has(tag string) bool {
	for _, v := range t {
		if v == tag {
			return true
		}
	}
	return false
}

// HasAny reports whether any of tags is present.
func (t Tags) HasAny(tags ...string) bool {
	for _, tag := range tags {
		if t.Has(tag) {
			return true
		}
	}
	return false
}

func (t *Tags) add(tag string) {
	if !t.Has(tag) {
		*t = append(*t, tag)
	}
}

// ScoreResult is the scorer's verdict on one transaction.
type ScoreResult struct {
	Score int     `json:"score"`
	Tags  Tags    `json:"tags"`
	SOL   float64 `json:"sol"`
	Net   float64 `json:"net"`
}

// LargestNativeSOL is the largest absolute native transfer in tx, in SOL.
func LargestNativeSOL(tx RawTransaction) float64 {
	var biggest float64
	for _, t := range tx.NativeTransfers {
		if a := math.Abs(float64(t.Amount)) / lamportsPerSOL; a > biggest {
			biggest = a
		}
	}
	return biggest
}

// NetSOL is the signed SOL delta of tx for wallet: credits minus debits. A
// self-transfer nets to zero.
func NetSOL(tx RawTransaction, wallet string) float64 {
	var net float64
	for _, t := range tx.NativeTransfers {
		if t.ToUserAccount == wallet {
			net += float64(t.Amount) / lamportsPerSOL
		}
		if t.FromUserAccount == wallet {
			net -= float64(t.Amount) / lamportsPerSOL
		}
	}
	return net
}

// Scorer rates transactions for narrative interest. It is stateless apart
// from the token table used to recognise memecoins.
type Scorer struct {
	tokens TokenLookup
}

// NewScorer returns a scorer over tokens, or DefaultTokens when nil.
func NewScorer(tokens TokenLookup) *Scorer {
	if tokens == nil {
		tokens = DefaultTokens
	}
	return &Scorer{tokens: tokens}
}

// Score rates tx for wallet using the default token table.
func Score(tx RawTransaction, wallet string) ScoreResult {
	return defaultScorer.Score(tx, wallet)
}

var defaultScorer = NewScorer(nil)

// Score rates tx as seen from wallet. It has no side effects.
func (s *Scorer) Score(tx RawTransaction, wallet string) ScoreResult {
	typ := tx.TxType()
	sol := LargestNativeSOL(tx)
	net := NetSOL(tx, wallet)

	var (
		score int
		tags  Tags
	)

	switch typ {
	case TxSwap:
		score += 25
		switch {
		case sol > 100:
			score += 80
			tags.add("whale")
		case sol > 50:
			score += 60
			tags.add("whale")
		case sol > 10:
			score += 35
			tags.add("big")
		case sol > 2:
			score += 15
			tags.add("solid")
		case sol > 0.5:
			score += 5
		default:
			score -= 5
		}
		if IsDeFiSource(tx.Source) {
			score += 5
		}
		for _, t := range tx.TokenTransfers {
			if IsMemecoin(s.tokens.Lookup(t.Mint).Symbol) {
				score += 25
				tags.add("memecoin")
			}
		}

	case TxNFTMint, TxCompressedNFTMint:
		score += 35
		switch {
		case sol > 10:
			score += 40
			tags.add("premium_mint")
		case sol > 2:
			score += 20
			tags.add("mint")
		default:
			tags.add("free_mint")
		}

	case TxNFTSale:
		score += 30
		switch {
		case sol > 50:
			score += 70
			tags.add("whale_sale")
		case sol > 10:
			score += 40
			tags.add("big_sale")
		case sol > 2:
			score += 15
			tags.add("sale")
		default:
			score -= 5
		}
		if net > 0 {
			score += 20
			tags.add("profit")
		}

	case TxNFTListing:
		if sol > 20 {
			score += 30
			tags.add("high_listing")
		} else {
			score -= 10
		}

	case TxTransfer, TxSOLTransfer:
		switch {
		case sol > 500:
			score += 80
			tags.add("massive")
		case sol > 100:
			score += 55
			tags.add("whale_move")
		case sol > 20:
			score += 25
			tags.add("big_move")
		case sol > 5:
			score += 10
		default:
			score -= 15
		}

	case TxStakeSOL, TxUnstakeSOL:
		switch {
		case sol > 100:
			score += 50
			tags.add("whale_stake")
		case sol > 20:
			score += 25
			tags.add("stake")
		default:
			score += 5
		}

	case TxTokenMint:
		score += 50
		tags.add("creator")

	case TxBurn, TxBurnNFT:
		score += 20
		tags.add("burn")

	case TxEmpty, TxUnknown, TxOther:
	}

	if sol < 0.01 && !exemptFromDustPenalty(typ) {
		score -= 25
	}
	if typ == TxUnknown || typ == TxEmpty {
		score -= 20
	}
	// An empty type takes both deductions.
	if typ == TxEmpty {
		score -= 30
	}

	return ScoreResult{Score: score, Tags: tags, SOL: sol, Net: net}
}

func exemptFromDustPenalty(t TxType) bool {
	switch t {
	case TxNFTMint, TxCompressedNFTMint, TxTokenMint, TxBurn, TxBurnNFT:
		return true
	}
	return false
}
