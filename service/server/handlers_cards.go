package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/db"
	natspkg "github.com/brojonat/crypt/service/nats"
	"github.com/brojonat/crypt/service/temporal"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// mintedCardResponse is the JSON response format for a ledger entry.
type mintedCardResponse struct {
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

func mintedCardToResponse(mc *db.MintedCard) mintedCardResponse {
	return mintedCardResponse{
		Signature:     mc.Signature,
		MintSignature: mc.MintSignature,
		CardID:        mc.CardID,
		Owner:         mc.Owner,
		Rarity:        mc.Rarity,
		Type:          mc.Type,
		Title:         mc.Title,
		Platform:      mc.Platform,
		PnL:           mc.PnL,
		Burned:        mc.Burned,
		Likes:         mc.Likes,
		MintedAt:      mc.MintedAt,
		Card:          mc.Card,
	}
}

// handleListMinted returns a handler that lists the cards a wallet minted.
// GET /api/v1/wallets/{address}/minted?limit=N&offset=N
func handleListMinted(ledger Ledger, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := r.PathValue("address")
		if err := validateAddress(address); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		query := r.URL.Query()
		limit, err := parseBoundedInt(query.Get("limit"), "limit", defaultPageSize, 1, maxPageSize)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		offset, err := parseBoundedInt(query.Get("offset"), "offset", 0, 0, 1<<20)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		minted, err := ledger.ListCardsByOwner(r.Context(), address, int32(limit), int32(offset))
		if err != nil {
			logger.Error("failed to list minted cards", "address", address, "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		resp := make([]mintedCardResponse, len(minted))
		for i, mc := range minted {
			resp[i] = mintedCardToResponse(mc)
		}

		writeJSON(w, map[string]interface{}{
			"owner":  address,
			"cards":  resp,
			"limit":  limit,
			"offset": offset,
		}, http.StatusOK)
	})
}

type walletRequest struct {
	Wallet string `json:"wallet"`
}

// handleToggleLike returns a handler that flips a wallet's like on a card.
// Cards can be liked before they are minted.
// POST /api/v1/cards/{signature}/like
func handleToggleLike(ledger Ledger, publisher EventPublisher, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature := r.PathValue("signature")
		if err := validateSignature(signature); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		var req walletRequest
		if err := decodeBody(w, r, &req, false); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := validateAddress(req.Wallet); err != nil {
			writeError(w, "wallet: "+err.Error(), http.StatusBadRequest)
			return
		}

		res, err := ledger.ToggleLike(r.Context(), signature, req.Wallet)
		if err != nil {
			logger.Error("failed to toggle like", "signature", signature, "wallet", req.Wallet, "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		publish(r, publisher, natspkg.NewLikedEvent(req.Wallet, signature, res), logger)

		writeJSON(w, map[string]interface{}{
			"signature": signature,
			"liked":     res.Liked,
			"likes":     res.Likes,
		}, http.StatusOK)
	})
}

// handleBurnCard returns a handler that lets a card's owner burn it.
// POST /api/v1/cards/{signature}/burn
func handleBurnCard(ledger Ledger, publisher EventPublisher, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature := r.PathValue("signature")
		if err := validateSignature(signature); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		var req walletRequest
		if err := decodeBody(w, r, &req, false); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := validateAddress(req.Wallet); err != nil {
			writeError(w, "wallet: "+err.Error(), http.StatusBadRequest)
			return
		}

		mc, err := ledger.GetCard(r.Context(), signature)
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, "card not minted", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Error("failed to get card", "signature", signature, "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if mc.Owner != req.Wallet {
			writeError(w, "only the owner can burn a card", http.StatusForbidden)
			return
		}

		// Burning twice is a no-op.
		if !mc.Burned {
			if err := ledger.MarkBurned(r.Context(), signature); err != nil {
				logger.Error("failed to burn card", "signature", signature, "error", err)
				writeError(w, "internal server error", http.StatusInternalServerError)
				return
			}
			mc.Burned = true
			publish(r, publisher, natspkg.NewBurnedEvent(mc), logger)
			logger.Info("card burned", "signature", signature, "owner", mc.Owner)
		}

		writeJSON(w, mintedCardToResponse(mc), http.StatusOK)
	})
}

// handleStats returns a handler that summarises the ledger.
// GET /api/v1/stats
func handleStats(ledger Ledger, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stats, err := ledger.Stats(r.Context())
		if err != nil {
			logger.Error("failed to load stats", "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, stats, http.StatusOK)
	})
}

type mintRequest struct {
	Card   cards.Card `json:"card"`
	Wallet string     `json:"wallet"`
}

// handleMintCard returns a handler that starts a MintCardWorkflow. The
// response carries the workflow id to poll.
// POST /api/v1/cards/mint
func handleMintCard(workflows temporal.Starter, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req mintRequest
		if err := decodeBody(w, r, &req, false); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := validateAddress(req.Wallet); err != nil {
			writeError(w, "wallet: "+err.Error(), http.StatusBadRequest)
			return
		}
		signature := req.Card.SourceSignature()
		if err := validateSignature(signature); err != nil {
			writeError(w, "card: "+err.Error(), http.StatusBadRequest)
			return
		}

		workflowID, err := workflows.StartMintCard(r.Context(), temporal.MintCardInput{
			Card:   req.Card,
			Wallet: req.Wallet,
		})
		if errors.Is(err, temporal.ErrAlreadyStarted) {
			writeJSON(w, map[string]interface{}{
				"error":       "card is already minted or being minted",
				"workflow_id": workflowID,
			}, http.StatusConflict)
			return
		}
		if err != nil {
			logger.Error("failed to start mint workflow", "signature", signature, "error", err)
			writeError(w, "failed to start mint", http.StatusInternalServerError)
			return
		}

		logger.Info("mint workflow started",
			"workflow_id", workflowID,
			"signature", signature,
			"wallet", req.Wallet,
		)

		writeJSON(w, map[string]interface{}{
			"workflow_id": workflowID,
			"signature":   signature,
			"status":      "running",
		}, http.StatusAccepted)
	})
}

type scanRequest struct {
	MinRarity string `json:"min_rarity"`
}

// handleStartScan returns a handler that scans a wallet in the background.
// POST /api/v1/wallets/{address}/scans
func handleStartScan(workflows temporal.Starter, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := r.PathValue("address")
		if err := validateAddress(address); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		var req scanRequest
		if err := decodeBody(w, r, &req, true); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		floor, err := parseRarity(req.MinRarity)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		workflowID, err := workflows.StartScanWallet(r.Context(), temporal.ScanWalletInput{
			Wallet:    address,
			MinRarity: floor,
		})
		if err != nil {
			logger.Error("failed to start scan workflow", "address", address, "error", err)
			writeError(w, "failed to start scan", http.StatusInternalServerError)
			return
		}

		writeJSON(w, map[string]interface{}{
			"workflow_id": workflowID,
			"wallet":      address,
			"status":      "running",
		}, http.StatusAccepted)
	})
}

// handleGetWorkflow returns a handler that reports a workflow's status.
// GET /api/v1/workflows/{workflow_id}
func handleGetWorkflow(workflows temporal.Starter, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		workflowID := r.PathValue("workflow_id")
		if workflowID == "" || len(workflowID) > 256 {
			writeError(w, "invalid workflow_id", http.StatusBadRequest)
			return
		}

		status, err := workflows.DescribeWorkflow(r.Context(), workflowID)
		if errors.Is(err, temporal.ErrWorkflowNotFound) {
			writeError(w, "workflow not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Error("failed to describe workflow", "workflow_id", workflowID, "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, status, http.StatusOK)
	})
}

// publish sends an event without failing the request.
func publish(r *http.Request, publisher EventPublisher, event *natspkg.CardEvent, logger *slog.Logger) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishCardEvent(r.Context(), event); err != nil {
		logger.Warn("failed to publish card event",
			"kind", event.Kind,
			"wallet", event.Wallet,
			"error", err,
		)
	}
}
