// Package audius finds soundtracks for cards on the Audius catalogue.
//
// Every lookup is fail-soft: an unreachable or misbehaving API is logged
// and yields no tracks, never an error, so a card is always served even
// when it has to be served silent.
package audius

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/metrics"
)

const (
	DefaultBaseURL = "https://api.audius.co"
	DefaultAppName = "CRYPT"

	defaultSearchLimit   = 5
	fallbackSearchLimit  = 3
	defaultTrendingLimit = 10
)

// MoodQueries are the search terms tried, in order, for each card type.
var MoodQueries = map[cards.CardType][]string{
	cards.CardSwap:         {"edm", "electronic dance", "house music", "party"},
	cards.CardRug:          {"dark bass", "dubstep", "trap beat", "heavy electronic"},
	cards.CardMint:         {"hip hop beat", "rap instrumental", "boom bap", "beats"},
	cards.CardDiamondHands: {"lo-fi", "chill beats", "ambient", "chillhop"},
	cards.CardBigMove:      {"cinematic", "epic music", "orchestral", "soundtrack"},
}

// FormatDuration renders seconds as m:ss. Zero and negative durations read
// 0:00.
func FormatDuration(secs int) string {
	if secs <= 0 {
		return "0:00"
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

type globalPicker struct{}

func (globalPicker) IntN(n int) int { return rand.IntN(n) }

// Client talks to the Audius public API.
type Client struct {
	baseURL    string
	appName    string
	httpClient *http.Client
	pick       cards.Picker
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithPicker replaces the random choice among fallback search results.
func WithPicker(p cards.Picker) Option {
	return func(c *Client) { c.pick = p }
}

// NewClient creates a client. Empty baseURL and appName select the public
// API and the CRYPT app name.
func NewClient(baseURL, appName string, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if appName == "" {
		appName = DefaultAppName
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		appName:    appName,
		httpClient: &http.Client{Timeout: timeout},
		pick:       globalPicker{},
		metrics:    m,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiTrack struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	User  struct {
		Name string `json:"name"`
	} `json:"user"`
	Artwork   map[string]string `json:"artwork"`
	Duration  int               `json:"duration"`
	PlayCount int               `json:"play_count"`
}

type tracksResponse struct {
	Data []apiTrack `json:"data"`
}

// StreamURL is the playable stream for track id.
func (c *Client) StreamURL(id string) string {
	return fmt.Sprintf("%s/v1/tracks/%s/stream?app_name=%s", c.baseURL, url.PathEscape(id), url.QueryEscape(c.appName))
}

func (c *Client) toSoundtrack(t apiTrack) cards.Soundtrack {
	artwork := t.Artwork["480x480"]
	if artwork == "" {
		artwork = t.Artwork["150x150"]
	}
	return cards.Soundtrack{
		ID:        t.ID,
		Title:     t.Title,
		Artist:    t.User.Name,
		Artwork:   artwork,
		Duration:  t.Duration,
		Plays:     t.PlayCount,
		StreamURL: c.StreamURL(t.ID),
	}
}

func (c *Client) getTracks(ctx context.Context, path string, q url.Values, limit int) (tracks []cards.Soundtrack, err error) {
	if c.metrics != nil {
		defer func() { c.metrics.RecordUpstreamCall("audius", err) }()
	}
	q.Set("app_name", c.appName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("audius returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload tracksResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode tracks: %w", err)
	}
	data := payload.Data
	if len(data) > limit {
		data = data[:limit]
	}
	tracks = make([]cards.Soundtrack, len(data))
	for i, t := range data {
		tracks[i] = c.toSoundtrack(t)
	}
	return tracks, nil
}

// SearchTracks returns up to limit tracks matching query. Failures yield an
// empty slice.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) []cards.Soundtrack {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	tracks, err := c.getTracks(ctx, "/v1/tracks/search", url.Values{"query": {query}}, limit)
	if err != nil {
		c.logger.WarnContext(ctx, "audius search failed",
			"query", query,
			"error", err,
		)
		return []cards.Soundtrack{}
	}
	return tracks
}

// SearchWithFallback tries each query in order and returns a random track
// from the first one with results, or nil when every query comes back empty.
func (c *Client) SearchWithFallback(ctx context.Context, queries []string) *cards.Soundtrack {
	for _, q := range queries {
		if ctx.Err() != nil {
			return nil
		}
		results := c.SearchTracks(ctx, q, fallbackSearchLimit)
		if len(results) > 0 {
			t := results[c.pick.IntN(len(results))]
			return &t
		}
	}
	return nil
}

// ForCardType picks a soundtrack matching the mood of a card type. Unknown
// types get nil.
func (c *Client) ForCardType(ctx context.Context, t cards.CardType) *cards.Soundtrack {
	queries, ok := MoodQueries[t]
	if !ok {
		return nil
	}
	return c.SearchWithFallback(ctx, queries)
}

// Trending returns up to limit of the currently trending tracks. Failures
// yield an empty slice.
func (c *Client) Trending(ctx context.Context, limit int) []cards.Soundtrack {
	if limit <= 0 {
		limit = defaultTrendingLimit
	}
	tracks, err := c.getTracks(ctx, "/v1/tracks/trending", url.Values{}, limit)
	if err != nil {
		c.logger.WarnContext(ctx, "audius trending failed", "error", err)
		return []cards.Soundtrack{}
	}
	return tracks
}
