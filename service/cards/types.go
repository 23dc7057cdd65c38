package cards

import "encoding/json"

// TxType is the provider's transaction classification. The provider emits
// many more labels than the scorer distinguishes; those all parse to TxOther,
// which is scored and classified by the fallback branches.
type TxType int

const (
	TxEmpty TxType = iota
	TxUnknown
	TxOther
	TxSwap
	TxNFTMint
	TxCompressedNFTMint
	TxNFTSale
	TxNFTListing
	TxTransfer
	TxSOLTransfer
	TxStakeSOL
	TxUnstakeSOL
	TxTokenMint
	TxBurn
	TxBurnNFT
)

var txTypeNames = map[TxType]string{
	TxEmpty:             "",
	TxUnknown:           "UNKNOWN",
	TxOther:             "OTHER",
	TxSwap:              "SWAP",
	TxNFTMint:           "NFT_MINT",
	TxCompressedNFTMint: "COMPRESSED_NFT_MINT",
	TxNFTSale:           "NFT_SALE",
	TxNFTListing:        "NFT_LISTING",
	TxTransfer:          "TRANSFER",
	TxSOLTransfer:       "SOL_TRANSFER",
	TxStakeSOL:          "STAKE_SOL",
	TxUnstakeSOL:        "UNSTAKE_SOL",
	TxTokenMint:         "TOKEN_MINT",
	TxBurn:              "BURN",
	TxBurnNFT:           "BURN_NFT",
}

var txTypesByName = func() map[string]TxType {
	m := make(map[string]TxType, len(txTypeNames))
	for t, name := range txTypeNames {
		m[name] = t
	}
	return m
}()

// ParseTxType maps a provider type string to a TxType. The empty string and
// the literal "UNKNOWN" are kept apart from other unrecognised labels because
// the scorer penalises them.
func ParseTxType(s string) TxType {
	if t, ok := txTypesByName[s]; ok && t != TxOther {
		return t
	}
	return TxOther
}

func (t TxType) String() string {
	return txTypeNames[t]
}

// IsNFTMint reports NFT_MINT and COMPRESSED_NFT_MINT.
func (t TxType) IsNFTMint() bool { return t == TxNFTMint || t == TxCompressedNFTMint }

// IsTransfer reports TRANSFER and SOL_TRANSFER.
func (t TxType) IsTransfer() bool { return t == TxTransfer || t == TxSOLTransfer }

// IsStake reports STAKE_SOL and UNSTAKE_SOL.
func (t TxType) IsStake() bool { return t == TxStakeSOL || t == TxUnstakeSOL }

// IsBurn reports BURN and BURN_NFT.
func (t TxType) IsBurn() bool { return t == TxBurn || t == TxBurnNFT }

// NativeTransfer is a lamport movement between two accounts.
type NativeTransfer struct {
	FromUserAccount string `json:"fromUserAccount"`
	ToUserAccount   string `json:"toUserAccount"`
	Amount          int64  `json:"amount"`
}

// TokenTransfer is an SPL token movement between two accounts.
type TokenTransfer struct {
	FromUserAccount string  `json:"fromUserAccount"`
	ToUserAccount   string  `json:"toUserAccount"`
	Mint            string  `json:"mint"`
	TokenAmount     float64 `json:"tokenAmount"`
}

// RawTransaction is one entry of a wallet's parsed history as delivered by
// the history provider. Missing arrays decode as nil and are treated as empty;
// missing strings and numbers decode as their zero values.
type RawTransaction struct {
	Type            string           `json:"type"`
	Source          string           `json:"source"`
	Signature       string           `json:"signature"`
	Timestamp       int64            `json:"timestamp"`
	NativeTransfers []NativeTransfer `json:"nativeTransfers"`
	TokenTransfers  []TokenTransfer  `json:"tokenTransfers"`
}

// TxType returns the parsed transaction type.
func (tx RawTransaction) TxType() TxType {
	return ParseTxType(tx.Type)
}

// CardType is the display classification of a card.
type CardType string

const (
	CardSwap         CardType = "swap"
	CardRug          CardType = "rug"
	CardMint         CardType = "mint"
	CardDiamondHands CardType = "diamond_hands"
	CardBigMove      CardType = "big_move"
)

// CardTypes lists every card type in display order.
var CardTypes = []CardType{CardSwap, CardRug, CardMint, CardDiamondHands, CardBigMove}

// Label is the banner text shown for the card type.
func (c CardType) Label() string {
	switch c {
	case CardSwap:
		return "SWAP"
	case CardRug:
		return "RUG PULL"
	case CardMint:
		return "MINT"
	case CardDiamondHands:
		return "DIAMOND HANDS"
	case CardBigMove:
		return "WHALE MOVE"
	}
	return string(c)
}

// Valid reports whether c is one of the closed set of card types.
func (c CardType) Valid() bool {
	switch c {
	case CardSwap, CardRug, CardMint, CardDiamondHands, CardBigMove:
		return true
	}
	return false
}

// Rarity is an ordinal tier: Common < Rare < Legendary.
type Rarity int

const (
	Common Rarity = iota
	Rare
	Legendary
)

func (r Rarity) String() string {
	switch r {
	case Rare:
		return "rare"
	case Legendary:
		return "legendary"
	default:
		return "common"
	}
}

// ParseRarity accepts "common", "rare" and "legendary". ok is false for
// anything else.
func ParseRarity(s string) (r Rarity, ok bool) {
	switch s {
	case "common":
		return Common, true
	case "rare":
		return Rare, true
	case "legendary":
		return Legendary, true
	}
	return Common, false
}

func (r Rarity) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Rarity) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r, _ = ParseRarity(s)
	return nil
}

// TokenFlow is one leg of a card: what went in or came out.
type TokenFlow struct {
	Symbol string `json:"s"`
	Amount string `json:"a"`
	Icon   string `json:"i"`
}

// User is the display identity derived from the scanned wallet.
type User struct {
	Name string `json:"name"`
	Addr string `json:"addr"`
}

// Card is the displayable summary of one transaction.
type Card struct {
	ID        int       `json:"id"`
	Type      CardType  `json:"type"`
	Rarity    Rarity    `json:"rarity"`
	Title     string    `json:"title"`
	Narration string    `json:"narration"`
	User      User      `json:"user"`
	Platform  string    `json:"platform"`
	Date      string    `json:"date"`
	In        TokenFlow `json:"tIn"`
	Out       TokenFlow `json:"tOut"`
	PnL       string    `json:"pnl"`
	Up        bool      `json:"up"`
	USD       string    `json:"usd"`
	Tx        string    `json:"tx"`
	FullTx    string    `json:"fullTx"`
	NFT       bool      `json:"nft"`
	Likes     int       `json:"likes"`
	Comments  int       `json:"comments"`
	Liked     bool      `json:"liked"`
	Ago       string    `json:"ago"`
	Timestamp int64     `json:"timestamp"`
	Tags      Tags      `json:"tags"`
}

// ToggleLike flips Liked and adjusts Likes to match. It is the only mutation a
// card accepts after it has been built.
func (c *Card) ToggleLike() {
	c.Liked = !c.Liked
	if c.Liked {
		c.Likes++
	} else if c.Likes > 0 {
		c.Likes--
	}
}

// SourceSignature is the transaction the card was dealt from: the full hash,
// or the short form when the full one is unknown.
func (c Card) SourceSignature() string {
	if c.FullTx != "" {
		return c.FullTx
	}
	return c.Tx
}
