package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/metrics"
	"github.com/brojonat/crypt/service/rng"
	"github.com/brojonat/crypt/service/skull"
)

const (
	defaultSkullScale    = 8
	defaultTrendingLimit = 10
	maxTrendingLimit     = 50
)

type skullResponse struct {
	Seed           string         `json:"seed"`
	Rarity         cards.Rarity   `json:"rarity"`
	Identity       skull.Identity `json:"identity"`
	Palette        skull.Palette  `json:"palette"`
	SoulSeedHex    string         `json:"soul_seed_hex"`
	SoulSeedBase58 string         `json:"soul_seed_base58"`
}

// handleGetSkull returns a handler that generates the skull for a seed,
// as JSON or as a PNG.
// GET /api/v1/skulls/{seed}?rarity={rarity}&format=png&scale=N
func handleGetSkull(m *metrics.Metrics, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seed := r.PathValue("seed")
		if err := validateSeed(seed); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		query := r.URL.Query()
		rarity, err := parseRarity(query.Get("rarity"))
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		format := query.Get("format")
		if format == "" {
			format = "json"
		}
		if format != "json" && format != "png" {
			writeError(w, "invalid format: must be 'json' or 'png'", http.StatusBadRequest)
			return
		}

		id := skull.Generate(seed)
		pal := skull.PaletteFor(rarity)

		if format == "png" {
			scale, err := parseBoundedInt(query.Get("scale"), "scale", defaultSkullScale, 1, skull.MaxScale)
			if err != nil {
				writeError(w, err.Error(), http.StatusBadRequest)
				return
			}
			var buf bytes.Buffer
			if err := id.WritePNG(&buf, pal, scale); err != nil {
				logger.Error("failed to encode skull", "seed", seed, "error", err)
				writeError(w, "internal server error", http.StatusInternalServerError)
				return
			}
			if m != nil {
				m.RecordSkullGenerated(format)
			}
			// A seed always draws the same skull.
			w.Header().Set("Content-Type", "image/png")
			w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
			w.WriteHeader(http.StatusOK)
			w.Write(buf.Bytes())
			return
		}

		if m != nil {
			m.RecordSkullGenerated(format)
		}
		writeJSON(w, skullResponse{
			Seed:           seed,
			Rarity:         rarity,
			Identity:       id,
			Palette:        pal,
			SoulSeedHex:    rng.SoulSeedHex(seed),
			SoulSeedBase58: rng.SoulSeedBase58(seed),
		}, http.StatusOK)
	})
}

// handleGetSoundtrack returns a handler that picks music for a card type.
// GET /api/v1/soundtracks/{type}
func handleGetSoundtrack(soundtracks Soundtracks, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t := cards.CardType(r.PathValue("type"))
		if !t.Valid() {
			writeError(w, "invalid card type", http.StatusBadRequest)
			return
		}

		st := soundtracks.ForCardType(r.Context(), t)
		if st == nil {
			writeError(w, "no soundtrack found", http.StatusNotFound)
			return
		}

		logger.Debug("soundtrack picked", "type", t, "track_id", st.ID)
		writeJSON(w, st, http.StatusOK)
	})
}

// handleTrending returns a handler that lists trending tracks.
// GET /api/v1/soundtracks/trending?limit=N
func handleTrending(soundtracks Soundtracks, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseBoundedInt(r.URL.Query().Get("limit"), "limit", defaultTrendingLimit, 1, maxTrendingLimit)
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, map[string]interface{}{
			"tracks": soundtracks.Trending(r.Context(), limit),
		}, http.StatusOK)
	})
}
