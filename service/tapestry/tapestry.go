// Package tapestry resolves wallets to social profiles on the Tapestry
// protocol.
package tapestry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brojonat/crypt/service/metrics"
)

const DefaultBaseURL = "https://api.usetapestry.dev/v1"

const searchLimit = 5

// Identity is the social profile attached to a wallet.
type Identity struct {
	Username  string `json:"username,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Image     string `json:"image,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	ProfileID string `json:"profileId,omitempty"`
}

type profile struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	Namespace        string `json:"namespace"`
	CustomProperties struct {
		Bio          string `json:"bio"`
		ProfileImage string `json:"profileImage"`
	} `json:"customProperties"`
}

// Client looks up profiles. A client without an API key is disabled and
// resolves nothing.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewClient creates a client. An empty baseURL selects the public API.
func NewClient(baseURL, apiKey string, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
		logger:     logger,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// ResolveIdentity returns the best profile for wallet, or nil when the
// client is disabled, the wallet has no profile, or the lookup fails.
func (c *Client) ResolveIdentity(ctx context.Context, wallet string) *Identity {
	if !c.Enabled() {
		return nil
	}
	profiles, err := c.searchProfiles(ctx, wallet)
	if err != nil {
		c.logger.WarnContext(ctx, "tapestry resolve failed",
			"wallet", wallet,
			"error", err,
		)
		return nil
	}
	best, ok := pickProfile(profiles)
	if !ok {
		return nil
	}
	return &Identity{
		Username:  best.Username,
		Bio:       best.CustomProperties.Bio,
		Image:     best.CustomProperties.ProfileImage,
		Namespace: best.Namespace,
		ProfileID: best.ID,
	}
}

// pickProfile prefers a profile with both a username and an image, then one
// with a username, then the first.
func pickProfile(profiles []profile) (profile, bool) {
	if len(profiles) == 0 {
		return profile{}, false
	}
	for _, p := range profiles {
		if p.Username != "" && p.CustomProperties.ProfileImage != "" {
			return p, true
		}
	}
	for _, p := range profiles {
		if p.Username != "" {
			return p, true
		}
	}
	return profiles[0], true
}

func (c *Client) searchProfiles(ctx context.Context, wallet string) (profiles []profile, err error) {
	if c.metrics != nil {
		defer func() { c.metrics.RecordUpstreamCall("tapestry", err) }()
	}

	body, err := json.Marshal(map[string]interface{}{
		"walletAddress":                 wallet,
		"shouldIncludeExternalProfiles": true,
		"limit":                         searchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	u := fmt.Sprintf("%s/profiles/search?apiKey=%s", c.baseURL, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tapestry returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return decodeProfiles(raw)
}

// decodeProfiles accepts both {"profiles": [...]} and a bare array.
func decodeProfiles(raw []byte) ([]profile, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var profiles []profile
		if err := json.Unmarshal(trimmed, &profiles); err != nil {
			return nil, fmt.Errorf("failed to decode profiles: %w", err)
		}
		return profiles, nil
	}
	var wrapped struct {
		Profiles []profile `json:"profiles"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}
	return wrapped.Profiles, nil
}
