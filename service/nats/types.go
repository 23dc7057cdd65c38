package nats

import (
	"fmt"
	"time"

	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/db"
)

// EventKind names what happened to a card.
type EventKind string

const (
	EventScanned EventKind = "scanned"
	EventMinted  EventKind = "minted"
	EventLiked   EventKind = "liked"
	EventBurned  EventKind = "burned"
)

// CardEvent is published to the subject "cards.{kind}.{wallet}" in JetStream.
type CardEvent struct {
	Kind   EventKind `json:"kind"`
	Wallet string    `json:"wallet"`

	// Signature is the card's source transaction. Empty for scan events.
	Signature string      `json:"signature,omitempty"`
	Card      *cards.Card `json:"card,omitempty"`

	// Scan summary
	CardCount int `json:"card_count,omitempty"`

	// Mint details
	MintSignature string `json:"mint_signature,omitempty"`
	Explorer      string `json:"explorer,omitempty"`

	// Like state after the toggle
	Liked bool  `json:"liked,omitempty"`
	Likes int64 `json:"likes,omitempty"`

	PublishedAt time.Time `json:"published_at"`
}

// Subject is where an event of kind for wallet is published.
func Subject(kind EventKind, wallet string) string {
	return fmt.Sprintf("cards.%s.%s", kind, wallet)
}

// WalletSubject matches every event for wallet, or every event at all when
// wallet is empty.
func WalletSubject(wallet string) string {
	if wallet == "" {
		return StreamSubjects
	}
	return fmt.Sprintf("cards.*.%s", wallet)
}

// Subject is where the event is published.
func (e *CardEvent) Subject() string {
	return Subject(e.Kind, e.Wallet)
}

// FromMintedCard converts a ledger entry to a mint event.
func FromMintedCard(mc *db.MintedCard, explorer string) *CardEvent {
	card := mc.Card
	return &CardEvent{
		Kind:          EventMinted,
		Wallet:        mc.Owner,
		Signature:     mc.Signature,
		Card:          &card,
		MintSignature: mc.MintSignature,
		Explorer:      explorer,
		PublishedAt:   time.Now().UTC(),
	}
}

// NewScannedEvent summarises a completed scan.
func NewScannedEvent(wallet string, count int) *CardEvent {
	return &CardEvent{
		Kind:        EventScanned,
		Wallet:      wallet,
		CardCount:   count,
		PublishedAt: time.Now().UTC(),
	}
}

// NewLikedEvent reports a like toggle by wallet on a card signature.
func NewLikedEvent(wallet, signature string, res db.LikeResult) *CardEvent {
	return &CardEvent{
		Kind:        EventLiked,
		Wallet:      wallet,
		Signature:   signature,
		Liked:       res.Liked,
		Likes:       res.Likes,
		PublishedAt: time.Now().UTC(),
	}
}

// NewBurnedEvent reports that the owner burned a minted card.
func NewBurnedEvent(mc *db.MintedCard) *CardEvent {
	return &CardEvent{
		Kind:        EventBurned,
		Wallet:      mc.Owner,
		Signature:   mc.Signature,
		PublishedAt: time.Now().UTC(),
	}
}
