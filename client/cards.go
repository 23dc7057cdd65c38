package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/brojonat/crypt/service/cards"
)

// Identity is a wallet's social profile.
type Identity struct {
	Username  string `json:"username,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Image     string `json:"image,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	ProfileID string `json:"profileId,omitempty"`
}

// ScanResult is a wallet's hand of cards.
type ScanResult struct {
	Wallet      string                               `json:"wallet"`
	Identity    *Identity                            `json:"identity,omitempty"`
	Cards       []cards.Card                         `json:"cards"`
	Soundtracks map[cards.CardType]*cards.Soundtrack `json:"soundtracks"`
}

// MintedCard is a card recorded in the ledger.
type MintedCard struct {
	Signature     string         `json:"signature"`
	MintSignature string         `json:"mint_signature"`
	CardID        int            `json:"card_id"`
	Owner         string         `json:"owner"`
	Rarity        cards.Rarity   `json:"rarity"`
	Type          cards.CardType `json:"type"`
	Title         string         `json:"title"`
	Platform      string         `json:"platform"`
	PnL           string         `json:"pnl"`
	Burned        bool           `json:"burned"`
	Likes         int64          `json:"likes"`
	MintedAt      time.Time      `json:"minted_at"`
	Card          cards.Card     `json:"card"`
}

// LikeResult is the state of a like after a toggle.
type LikeResult struct {
	Signature string `json:"signature"`
	Liked     bool   `json:"liked"`
	Likes     int64  `json:"likes"`
}

// Readiness reports whether a wallet can pay for a mint.
type Readiness struct {
	Ready   bool    `json:"ready"`
	Balance float64 `json:"balance"`
	Address string  `json:"address,omitempty"`
	Network string  `json:"network,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}

// Skull is the generated pixel skull for a seed.
type Skull struct {
	Seed           string          `json:"seed"`
	Rarity         cards.Rarity    `json:"rarity"`
	Identity       json.RawMessage `json:"identity"`
	Palette        json.RawMessage `json:"palette"`
	SoulSeedHex    string          `json:"soul_seed_hex"`
	SoulSeedBase58 string          `json:"soul_seed_base58"`
}

// Stats summarises the ledger.
type Stats struct {
	TotalMinted int64            `json:"total_minted"`
	Burned      int64            `json:"burned"`
	ByRarity    map[string]int64 `json:"by_rarity"`
	TotalLikes  int64            `json:"total_likes"`
}

// WorkflowStarted is returned when the server starts a background workflow.
type WorkflowStarted struct {
	WorkflowID string `json:"workflow_id"`
	Signature  string `json:"signature,omitempty"`
	Wallet     string `json:"wallet,omitempty"`
	Status     string `json:"status,omitempty"`
}

// WorkflowStatus describes a started workflow.
type WorkflowStatus struct {
	WorkflowID string          `json:"workflow_id"`
	Status     string          `json:"status"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Done reports whether the workflow has stopped running.
func (s *WorkflowStatus) Done() bool {
	return s.Status != "running"
}

func walletPath(wallet, suffix string) string {
	return "/api/v1/wallets/" + url.PathEscape(wallet) + suffix
}

// Scan deals a wallet's cards. minRarity may be empty.
func (c *Client) Scan(ctx context.Context, wallet, minRarity string) (*ScanResult, error) {
	path := walletPath(wallet, "/cards")
	if minRarity != "" {
		path += "?min_rarity=" + url.QueryEscape(minRarity)
	}
	var res ScanResult
	if err := c.doJSON(ctx, "GET", path, nil, &res, http.StatusOK); err != nil {
		return nil, err
	}
	c.logger.Debug("wallet scanned", "wallet", wallet, "cards", len(res.Cards))
	return &res, nil
}

// Identity resolves a wallet's social profile. It returns ErrNotFound when
// the wallet has none.
func (c *Client) Identity(ctx context.Context, wallet string) (*Identity, error) {
	var res struct {
		Identity *Identity `json:"identity"`
	}
	if err := c.doJSON(ctx, "GET", walletPath(wallet, "/identity"), nil, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return res.Identity, nil
}

// Minted lists the cards a wallet has minted, newest first.
func (c *Client) Minted(ctx context.Context, wallet string, limit, offset int) ([]MintedCard, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := walletPath(wallet, "/minted")
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var res struct {
		Cards []MintedCard `json:"cards"`
	}
	if err := c.doJSON(ctx, "GET", path, nil, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return res.Cards, nil
}

// Ready reports whether a wallet holds enough SOL to mint.
func (c *Client) Ready(ctx context.Context, wallet string) (*Readiness, error) {
	var res Readiness
	if err := c.doJSON(ctx, "GET", walletPath(wallet, "/ready"), nil, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return &res, nil
}

func skullPath(seed string, q url.Values) string {
	path := "/api/v1/skulls/" + url.PathEscape(seed)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return path
}

// Skull fetches the generated skull for seed.
func (c *Client) Skull(ctx context.Context, seed, rarity string) (*Skull, error) {
	q := url.Values{}
	if rarity != "" {
		q.Set("rarity", rarity)
	}
	var res Skull
	if err := c.doJSON(ctx, "GET", skullPath(seed, q), nil, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return &res, nil
}

// SkullPNG fetches the skull for seed as a PNG. scale <= 0 uses the
// server default.
func (c *Client) SkullPNG(ctx context.Context, seed, rarity string, scale int) ([]byte, error) {
	q := url.Values{"format": {"png"}}
	if rarity != "" {
		q.Set("rarity", rarity)
	}
	if scale > 0 {
		q.Set("scale", strconv.Itoa(scale))
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+skullPath(seed, q), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

// Soundtrack picks music for a card type. It returns ErrNotFound when
// nothing matches.
func (c *Client) Soundtrack(ctx context.Context, cardType cards.CardType) (*cards.Soundtrack, error) {
	var res cards.Soundtrack
	if err := c.doJSON(ctx, "GET", "/api/v1/soundtracks/"+url.PathEscape(string(cardType)), nil, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return &res, nil
}

// Trending lists trending tracks.
func (c *Client) Trending(ctx context.Context, limit int) ([]cards.Soundtrack, error) {
	path := "/api/v1/soundtracks/trending"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var res struct {
		Tracks []cards.Soundtrack `json:"tracks"`
	}
	if err := c.doJSON(ctx, "GET", path, nil, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return res.Tracks, nil
}

func cardPath(signature, action string) string {
	return "/api/v1/cards/" + url.PathEscape(signature) + "/" + action
}

// Like toggles wallet's like on a card.
func (c *Client) Like(ctx context.Context, signature, wallet string) (*LikeResult, error) {
	var res LikeResult
	body := map[string]string{"wallet": wallet}
	if err := c.doJSON(ctx, "POST", cardPath(signature, "like"), body, &res, http.StatusOK); err != nil {
		return nil, err
	}
	c.logger.Debug("card like toggled", "signature", signature, "liked", res.Liked, "likes", res.Likes)
	return &res, nil
}

// Burn marks a minted card burned. Only the owner may burn.
func (c *Client) Burn(ctx context.Context, signature, wallet string) (*MintedCard, error) {
	var res MintedCard
	body := map[string]string{"wallet": wallet}
	if err := c.doJSON(ctx, "POST", cardPath(signature, "burn"), body, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return &res, nil
}

// Mint starts minting card for wallet. When the card is already minted or
// being minted the error wraps ErrConflict and the returned value still
// carries the existing workflow id.
func (c *Client) Mint(ctx context.Context, card cards.Card, wallet string) (*WorkflowStarted, error) {
	body := map[string]interface{}{"card": card, "wallet": wallet}
	var res WorkflowStarted
	err := c.doJSON(ctx, "POST", "/api/v1/cards/mint", body, &res, http.StatusAccepted)
	var conflict *conflictError
	if errors.As(err, &conflict) {
		return &WorkflowStarted{WorkflowID: conflict.workflowID, Signature: card.SourceSignature()}, err
	}
	if err != nil {
		return nil, err
	}
	c.logger.Debug("mint started", "workflow_id", res.WorkflowID, "signature", res.Signature)
	return &res, nil
}

// StartScan scans a wallet in the background.
func (c *Client) StartScan(ctx context.Context, wallet, minRarity string) (*WorkflowStarted, error) {
	var body interface{}
	if minRarity != "" {
		body = map[string]string{"min_rarity": minRarity}
	}
	var res WorkflowStarted
	if err := c.doJSON(ctx, "POST", walletPath(wallet, "/scans"), body, &res, http.StatusAccepted); err != nil {
		return nil, err
	}
	return &res, nil
}

// Workflow reports a workflow's status.
func (c *Client) Workflow(ctx context.Context, workflowID string) (*WorkflowStatus, error) {
	var res WorkflowStatus
	if err := c.doJSON(ctx, "GET", "/api/v1/workflows/"+url.PathEscape(workflowID), nil, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return &res, nil
}

// WaitForWorkflow polls a workflow every interval until it stops running or
// ctx is done.
func (c *Client) WaitForWorkflow(ctx context.Context, workflowID string, interval time.Duration) (*WorkflowStatus, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := c.Workflow(ctx, workflowID)
		if err != nil {
			return nil, err
		}
		if status.Done() {
			return status, nil
		}
		c.logger.Debug("workflow still running", "workflow_id", workflowID)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stats summarises the ledger.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var res Stats
	if err := c.doJSON(ctx, "GET", "/api/v1/stats", nil, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return &res, nil
}
