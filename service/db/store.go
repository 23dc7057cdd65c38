package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/metrics"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a card is not in the ledger.
var ErrNotFound = errors.New("not found")

// Store provides database operations for the card ledger.
type Store struct {
	pool    *pgxpool.Pool
	metrics *metrics.Metrics
}

// NewStore creates a new Store with the given database connection pool.
// If metrics is nil, no metrics will be recorded.
func NewStore(pool *pgxpool.Pool, m *metrics.Metrics) *Store {
	return &Store{
		pool:    pool,
		metrics: m,
	}
}

// Migrate creates the ledger tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *Store) observe(operation, table string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordDBQuery(operation, table, time.Since(start).Seconds(), err)
	}
}

// MintedCard is a card recorded in the ledger.
type MintedCard struct {
	Signature     string
	MintSignature string
	CardID        int
	Owner         string
	Rarity        cards.Rarity
	Type          cards.CardType
	Title         string
	Platform      string
	PnL           string
	Card          cards.Card
	Burned        bool
	Likes         int64
	MintedAt      time.Time
}

// RecordMintParams contains the parameters for recording a mint.
type RecordMintParams struct {
	Card          cards.Card
	Owner         string
	MintSignature string
	MintedAt      time.Time
}

// Stats summarises the ledger.
type Stats struct {
	TotalMinted int64            `json:"total_minted"`
	Burned      int64            `json:"burned"`
	ByRarity    map[string]int64 `json:"by_rarity"`
	TotalLikes  int64            `json:"total_likes"`
}

// LikeResult is the state of a like after a toggle.
type LikeResult struct {
	Liked bool  `json:"liked"`
	Likes int64 `json:"likes"`
}

const cardColumns = `
	c.signature, c.mint_signature, c.card_id, c.owner, c.rarity, c.card_type,
	c.title, c.platform, c.pnl, c.card, c.burned, c.minted_at,
	(SELECT count(*) FROM card_likes l WHERE l.signature = c.signature)`

func scanCard(row pgx.Row) (*MintedCard, error) {
	var (
		mc       MintedCard
		rarity   string
		cardType string
		cardJSON []byte
	)
	err := row.Scan(
		&mc.Signature, &mc.MintSignature, &mc.CardID, &mc.Owner, &rarity, &cardType,
		&mc.Title, &mc.Platform, &mc.PnL, &cardJSON, &mc.Burned, &mc.MintedAt,
		&mc.Likes,
	)
	if err != nil {
		return nil, err
	}
	mc.Rarity, _ = cards.ParseRarity(rarity)
	mc.Type = cards.CardType(cardType)
	if err := json.Unmarshal(cardJSON, &mc.Card); err != nil {
		return nil, fmt.Errorf("failed to decode card %s: %w", mc.Signature, err)
	}
	return &mc, nil
}

// RecordMint inserts a minted card. Recording the same card twice is a
// no-op and returns the existing entry.
func (s *Store) RecordMint(ctx context.Context, params RecordMintParams) (mc *MintedCard, err error) {
	start := time.Now()
	defer func() { s.observe("insert", "minted_cards", start, err) }()

	signature := params.Card.SourceSignature()
	if signature == "" {
		return nil, fmt.Errorf("card has no transaction signature")
	}
	if params.Owner == "" {
		return nil, fmt.Errorf("owner is required")
	}
	cardJSON, err := json.Marshal(params.Card)
	if err != nil {
		return nil, fmt.Errorf("failed to encode card: %w", err)
	}
	mintedAt := params.MintedAt
	if mintedAt.IsZero() {
		mintedAt = time.Now()
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO minted_cards
			(signature, mint_signature, card_id, owner, rarity, card_type, title, platform, pnl, card, minted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (signature) DO NOTHING`,
		signature, params.MintSignature, params.Card.ID, params.Owner,
		params.Card.Rarity.String(), string(params.Card.Type), params.Card.Title,
		params.Card.Platform, params.Card.PnL, cardJSON, mintedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert card: %w", err)
	}
	return s.getCard(ctx, signature)
}

// GetCard retrieves a minted card by its transaction signature.
func (s *Store) GetCard(ctx context.Context, signature string) (mc *MintedCard, err error) {
	start := time.Now()
	defer func() { s.observe("select", "minted_cards", start, err) }()
	return s.getCard(ctx, signature)
}

func (s *Store) getCard(ctx context.Context, signature string) (*MintedCard, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+cardColumns+` FROM minted_cards c WHERE c.signature = $1`, signature)
	mc, err := scanCard(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return mc, nil
}

// ListCardsByOwner returns an owner's unburned cards, newest first.
func (s *Store) ListCardsByOwner(ctx context.Context, owner string, limit, offset int32) (out []*MintedCard, err error) {
	start := time.Now()
	defer func() { s.observe("select", "minted_cards", start, err) }()

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+cardColumns+`
		FROM minted_cards c
		WHERE c.owner = $1 AND NOT c.burned
		ORDER BY c.minted_at DESC, c.signature
		LIMIT $2 OFFSET $3`,
		owner, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	out = []*MintedCard{}
	for rows.Next() {
		mc, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}

// MarkBurned flags a card as burned. Burned cards drop out of owner
// listings but stay in the ledger.
func (s *Store) MarkBurned(ctx context.Context, signature string) (err error) {
	start := time.Now()
	defer func() { s.observe("update", "minted_cards", start, err) }()

	tag, err := s.pool.Exec(ctx, `UPDATE minted_cards SET burned = TRUE WHERE signature = $1`, signature)
	if err != nil {
		return fmt.Errorf("failed to burn card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleLike flips wallet's like on a card signature and returns the new
// state with the card's like count.
func (s *Store) ToggleLike(ctx context.Context, signature, wallet string) (res LikeResult, err error) {
	start := time.Now()
	defer func() { s.observe("toggle", "card_likes", start, err) }()

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM card_likes WHERE signature = $1 AND wallet = $2`, signature, wallet)
		if err != nil {
			return fmt.Errorf("failed to remove like: %w", err)
		}
		if tag.RowsAffected() == 0 {
			if _, err := tx.Exec(ctx, `
				INSERT INTO card_likes (signature, wallet) VALUES ($1, $2)
				ON CONFLICT DO NOTHING`, signature, wallet); err != nil {
				return fmt.Errorf("failed to add like: %w", err)
			}
			res.Liked = true
		}
		return tx.QueryRow(ctx, `SELECT count(*) FROM card_likes WHERE signature = $1`, signature).Scan(&res.Likes)
	})
	if err != nil {
		return LikeResult{}, err
	}
	return res, nil
}

// Stats summarises the ledger.
func (s *Store) Stats(ctx context.Context) (st Stats, err error) {
	start := time.Now()
	defer func() { s.observe("select", "minted_cards", start, err) }()

	st.ByRarity = map[string]int64{}
	for _, r := range []cards.Rarity{cards.Common, cards.Rare, cards.Legendary} {
		st.ByRarity[r.String()] = 0
	}

	rows, err := s.pool.Query(ctx, `
		SELECT rarity, count(*), count(*) FILTER (WHERE burned)
		FROM minted_cards GROUP BY rarity`)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count cards: %w", err)
	}
	for rows.Next() {
		var (
			rarity        string
			total, burned int64
		)
		if err := rows.Scan(&rarity, &total, &burned); err != nil {
			rows.Close()
			return Stats{}, err
		}
		st.ByRarity[rarity] = total
		st.TotalMinted += total
		st.Burned += burned
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM card_likes`).Scan(&st.TotalLikes); err != nil {
		return Stats{}, fmt.Errorf("failed to count likes: %w", err)
	}
	return st, nil
}
