package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	healthy := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	assert.NoError(t, client.Health(context.Background()))

	healthy = false
	err := client.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestParseErrorResponse(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		contains string
	}{
		{"not found", http.StatusNotFound, `{"error":"card not found"}`, ErrNotFound, "card not found"},
		{"conflict", http.StatusConflict, `{"error":"already minted","workflow_id":"mint-card-abc"}`, ErrConflict, "already minted"},
		{"bad request", http.StatusBadRequest, `{"error":"invalid address format"}`, nil, "invalid address format"},
		{"non-json body", http.StatusBadGateway, `upstream down`, nil, "status 502: upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, nil, nil)
			err := client.doJSON(context.Background(), "GET", "/x", nil, nil, http.StatusOK)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			} else {
				assert.False(t, errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict))
			}
		})
	}
}

func TestDoJSON_SendsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "v", body["k"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"echo": body["k"]})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	var out map[string]string
	err := client.doJSON(context.Background(), "POST", "/echo", map[string]string{"k": "v"}, &out, http.StatusCreated)
	require.NoError(t, err)
	assert.Equal(t, "v", out["echo"])
}
