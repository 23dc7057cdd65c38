package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEvent(t *testing.T, w http.ResponseWriter, name string, ev Event) {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	w.Write([]byte("event: " + name + "\ndata: " + string(data) + "\n\n"))
	w.(http.Flusher).Flush()
}

func TestAwait_MatchingEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/events", r.URL.Path)
		assert.Equal(t, wallet, r.URL.Query().Get("wallet"))

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event: connected\ndata: {\"wallet\":\"" + wallet + "\"}\n\n"))
		writeEvent(t, w, "liked", Event{Kind: "liked", Wallet: wallet, Signature: "sig1", Liked: true, Likes: 1})
		writeEvent(t, w, "minted", Event{Kind: "minted", Wallet: wallet, Signature: "sig1", MintSignature: "memo-sig"})
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ev, err := client.Await(ctx, wallet, func(e *Event) bool {
		return e.Kind == "minted" && e.Signature == "sig1"
	})
	require.NoError(t, err)
	assert.Equal(t, "memo-sig", ev.MintSignature)
}

func TestAwait_NonMatchingEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeEvent(t, w, "liked", Event{Kind: "liked", Wallet: wallet, Signature: "sig1"})
		w.Write([]byte(": keepalive\n\n"))
		writeEvent(t, w, "minted", Event{Kind: "minted", Wallet: wallet, Signature: "other"})
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	ev, err := client.Await(ctx, wallet, func(e *Event) bool {
		return e.Kind == "minted" && e.Signature == "sig1"
	})
	assert.Nil(t, ev)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAwait_StreamClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event: scanned\ndata: not-json\n\n"))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	ev, err := client.Await(context.Background(), "", func(*Event) bool { return true })
	assert.Nil(t, ev)
	assert.EqualError(t, err, "event stream closed before a matching event arrived")
}

func TestStream_RejectedWallet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid address format"})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	err := client.Stream(context.Background(), "nope", func(*Event) bool { return true })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid address format")
}
