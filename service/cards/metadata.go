package cards

import "fmt"

// Soundtrack is the track assigned to a card for playback and metadata.
type Soundtrack struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Artwork   string `json:"artwork,omitempty"`
	Duration  int    `json:"duration"`
	Plays     int    `json:"plays,omitempty"`
	StreamURL string `json:"streamUrl"`
}

// Attribute is one trait of the collectible metadata.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// MetadataFile is an attached media file.
type MetadataFile struct {
	URI  string `json:"uri"`
	Type string `json:"type"`
}

// MetadataSoundtrack references the card's track by provider id.
type MetadataSoundtrack struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	AudiusID string `json:"audius_id"`
}

// MetadataProperties carries the media attached to a minted card.
type MetadataProperties struct {
	Category   string              `json:"category"`
	Files      []MetadataFile      `json:"files"`
	Soundtrack *MetadataSoundtrack `json:"soundtrack"`
}

// Metadata is the collectible description recorded when a card is minted.
type Metadata struct {
	Name        string             `json:"name"`
	Symbol      string             `json:"symbol"`
	Description string             `json:"description"`
	Image       string             `json:"image"`
	ExternalURL string             `json:"external_url"`
	Attributes  []Attribute        `json:"attributes"`
	Properties  MetadataProperties `json:"properties"`
}

// CollectionSymbol is the symbol every minted card carries.
const CollectionSymbol = "CRYPT"

// BuildMetadata describes card as a collectible. soundtrack may be nil and
// artworkURL may be empty.
func BuildMetadata(card Card, soundtrack *Soundtrack, artworkURL, externalURL string) Metadata {
	md := Metadata{
		Name:        fmt.Sprintf("%s #%d - %s", CollectionSymbol, card.ID, card.Title),
		Symbol:      CollectionSymbol,
		Description: orDefault(card.Narration, "A resurrected blockchain moment."),
		Image:       artworkURL,
		ExternalURL: externalURL,
		Attributes: []Attribute{
			{TraitType: "Type", Value: string(card.Type)},
			{TraitType: "Rarity", Value: card.Rarity.String()},
			{TraitType: "Platform", Value: card.Platform},
			{TraitType: "PnL", Value: orDefault(card.PnL, "N/A")},
			{TraitType: "Transaction", Value: orDefault(card.FullTx, card.Tx)},
		},
		Properties: MetadataProperties{
			Category: "image",
			Files:    []MetadataFile{},
		},
	}
	if artworkURL != "" {
		md.Properties.Files = append(md.Properties.Files, MetadataFile{URI: artworkURL, Type: "image/png"})
	}
	if soundtrack != nil {
		md.Properties.Soundtrack = &MetadataSoundtrack{
			Title:    soundtrack.Title,
			Artist:   soundtrack.Artist,
			AudiusID: soundtrack.ID,
		}
	}
	return md
}

// MintMemo is the JSON payload written on chain when a card is minted.
type MintMemo struct {
	Protocol  string `json:"protocol"`
	Version   int    `json:"version"`
	Action    string `json:"action"`
	CardID    int    `json:"card_id"`
	TxHash    string `json:"tx_hash"`
	Rarity    string `json:"rarity"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Platform  string `json:"platform"`
	PnL       string `json:"pnl"`
	MintedBy  string `json:"minted_by"`
	Timestamp int64  `json:"timestamp"`
}

// NewMintMemo builds the memo for card minted by wallet at unixMillis.
func NewMintMemo(card Card, wallet string, unixMillis int64) MintMemo {
	return MintMemo{
		Protocol:  CollectionSymbol,
		Version:   1,
		Action:    "MINT_CARD",
		CardID:    card.ID,
		TxHash:    orDefault(card.FullTx, card.Tx),
		Rarity:    card.Rarity.String(),
		Type:      string(card.Type),
		Title:     card.Title,
		Platform:  card.Platform,
		PnL:       card.PnL,
		MintedBy:  wallet,
		Timestamp: unixMillis,
	}
}

// MintResult is the outcome of recording a mint on chain.
type MintResult struct {
	Success   bool   `json:"success"`
	Signature string `json:"signature,omitempty"`
	Explorer  string `json:"explorer,omitempty"`
	Solscan   string `json:"solscan,omitempty"`
	Error     string `json:"error,omitempty"`
}
