package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brojonat/crypt/service/cards"
)

// Event is a card event delivered over the server's event stream.
type Event struct {
	Kind          string      `json:"kind"`
	Wallet        string      `json:"wallet"`
	Signature     string      `json:"signature,omitempty"`
	Card          *cards.Card `json:"card,omitempty"`
	CardCount     int         `json:"card_count,omitempty"`
	MintSignature string      `json:"mint_signature,omitempty"`
	Explorer      string      `json:"explorer,omitempty"`
	Liked         bool        `json:"liked,omitempty"`
	Likes         int64       `json:"likes,omitempty"`
	PublishedAt   time.Time   `json:"published_at"`
}

// Stream delivers card events for wallet (or every wallet when empty) to fn
// until ctx is done, the server closes the stream, or fn returns false.
func (c *Client) Stream(ctx context.Context, wallet string, fn func(*Event) bool) error {
	path := c.baseURL + "/api/v1/events"
	if wallet != "" {
		path += "?wallet=" + url.QueryEscape(wallet)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// The shared client's timeout would cut long-lived streams short.
	streamClient := *c.httpClient
	streamClient.Timeout = 0

	resp, err := streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	var eventName, data string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if eventName != "" && data != "" && eventName != "connected" && eventName != "error" {
				var ev Event
				if err := json.Unmarshal([]byte(data), &ev); err != nil {
					c.logger.Warn("skipping malformed event", "event", eventName, "error", err)
				} else if !fn(&ev) {
					return nil
				}
			}
			eventName, data = "", ""
			continue
		}
		switch {
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading event stream: %w", err)
	}
	return nil
}

// Await blocks until an event for wallet satisfies matcher and returns it.
// It returns ctx.Err() when the context ends first.
func (c *Client) Await(ctx context.Context, wallet string, matcher func(*Event) bool) (*Event, error) {
	var found *Event
	err := c.Stream(ctx, wallet, func(ev *Event) bool {
		if matcher(ev) {
			found = ev
			return false
		}
		c.logger.Debug("event did not match", "kind", ev.Kind, "signature", ev.Signature)
		return true
	})
	if found != nil {
		return found, nil
	}
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, fmt.Errorf("event stream closed before a matching event arrived")
}
