package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/tapestry"
)

const (
	maxRequestBodySize = 1 << 20 // 1MB, cards are small
	maxSignatureLength = 100     // base58 signatures are 88 chars
	maxSeedLength      = 128
	soundtrackLookups  = 4
)

var (
	// Signatures are base58, or the shortened "abcde...wxyz" display form.
	validSignatureRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z.]+$`)
)

// scanResponse is the JSON response for a wallet scan.
type scanResponse struct {
	Wallet      string                               `json:"wallet"`
	Identity    *tapestry.Identity                   `json:"identity,omitempty"`
	Cards       []cards.Card                         `json:"cards"`
	Soundtracks map[cards.CardType]*cards.Soundtrack `json:"soundtracks"`
}

// handleScanWallet returns a handler that deals a wallet's cards, along with
// its social identity and one soundtrack per card type dealt.
// GET /api/v1/wallets/{address}/cards?min_rarity={rarity}
func handleScanWallet(scanner CardScanner, identities Identities, soundtracks Soundtracks, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := r.PathValue("address")
		if err := validateAddress(address); err != nil {
			logger.Debug("invalid address", "address", address, "error", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		floor, err := parseRarity(r.URL.Query().Get("min_rarity"))
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		dealt := cards.FilterByRarity(scanner.Scan(r.Context(), address), floor)

		resp := scanResponse{
			Wallet:      address,
			Cards:       dealt,
			Soundtracks: make(map[cards.CardType]*cards.Soundtrack),
		}

		// Identity and soundtracks are fail-soft lookups; none of these
		// goroutines returns an error.
		var mu sync.Mutex
		g, ctx := errgroup.WithContext(r.Context())
		g.SetLimit(soundtrackLookups)
		if identities != nil {
			g.Go(func() error {
				resp.Identity = identities.ResolveIdentity(ctx, address)
				return nil
			})
		}
		if soundtracks != nil {
			for _, t := range distinctTypes(dealt) {
				g.Go(func() error {
					st := soundtracks.ForCardType(ctx, t)
					if st == nil {
						return nil
					}
					mu.Lock()
					resp.Soundtracks[t] = st
					mu.Unlock()
					return nil
				})
			}
		}
		_ = g.Wait()

		logger.Debug("wallet scanned",
			"address", address,
			"cards", len(dealt),
			"min_rarity", floor.String(),
			"soundtracks", len(resp.Soundtracks),
		)

		writeJSON(w, resp, http.StatusOK)
	})
}

func distinctTypes(cs []cards.Card) []cards.CardType {
	seen := make(map[cards.CardType]bool)
	var out []cards.CardType
	for _, c := range cs {
		if !seen[c.Type] {
			seen[c.Type] = true
			out = append(out, c.Type)
		}
	}
	return out
}

// handleGetIdentity returns a handler that resolves a wallet's social
// profile.
// GET /api/v1/wallets/{address}/identity
func handleGetIdentity(identities Identities, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := r.PathValue("address")
		if err := validateAddress(address); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		identity := identities.ResolveIdentity(r.Context(), address)
		if identity == nil {
			writeError(w, "identity not found", http.StatusNotFound)
			return
		}

		writeJSON(w, map[string]interface{}{
			"wallet":   address,
			"identity": identity,
		}, http.StatusOK)
	})
}

// handleWalletReady returns a handler that reports whether a wallet holds
// enough SOL to mint.
// GET /api/v1/wallets/{address}/ready
func handleWalletReady(readiness ReadinessChecker, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := r.PathValue("address")
		if err := validateAddress(address); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		status := readiness.CheckWalletReady(r.Context(), address)
		logger.Debug("wallet readiness checked",
			"address", address,
			"ready", status.Ready,
			"balance", status.Balance,
		)
		writeJSON(w, status, http.StatusOK)
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// decodeBody decodes a size-limited JSON request body into dst. An empty body
// leaves dst untouched when optional is set.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errorf("request body too large")
		}
		return errorf("invalid request body: %v", err)
	}
	return nil
}

// validateAddress validates a wallet address for security and format.
func validateAddress(address string) error {
	if address == "" {
		return errorf("address is required")
	}
	if err := checkPrintable("address", address); err != nil {
		return err
	}
	if err := cards.ValidateAddress(address); err != nil {
		return errorf("invalid address format: %v", err)
	}
	return nil
}

// validateSignature validates a card's transaction signature.
func validateSignature(sig string) error {
	if sig == "" {
		return errorf("signature is required")
	}
	if len(sig) > maxSignatureLength {
		return errorf("signature too long: maximum length is %d characters", maxSignatureLength)
	}
	if !validSignatureRegex.MatchString(sig) {
		return errorf("invalid signature format: must contain only valid base58 characters")
	}
	return nil
}

func validateSeed(seed string) error {
	if seed == "" {
		return errorf("seed is required")
	}
	if len(seed) > maxSeedLength {
		return errorf("seed too long: maximum length is %d characters", maxSeedLength)
	}
	return checkPrintable("seed", seed)
}

func checkPrintable(field, s string) error {
	for _, r := range s {
		if r == 0 || unicode.IsControl(r) {
			return errorf("invalid characters in %s: control characters not allowed", field)
		}
	}
	return nil
}

// parseRarity reads an optional rarity floor. Empty means common.
func parseRarity(s string) (cards.Rarity, error) {
	if s == "" {
		return cards.Common, nil
	}
	r, ok := cards.ParseRarity(strings.ToLower(s))
	if !ok {
		return cards.Common, errorf("invalid rarity: must be 'common', 'rare' or 'legendary'")
	}
	return r, nil
}

// parseBoundedInt reads an optional integer query parameter in [lo, hi].
func parseBoundedInt(s, name string, def, lo, hi int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errorf("invalid %s: must be an integer", name)
	}
	if n < lo || n > hi {
		return 0, errorf("invalid %s: must be between %d and %d", name, lo, hi)
	}
	return n, nil
}

// errorf is a helper to format error strings.
func errorf(format string, args ...interface{}) error {
	return &validationError{msg: strings.TrimSpace(fmt.Sprintf(format, args...))}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return e.msg
}
