package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brojonat/crypt/service/rng"
	"github.com/brojonat/crypt/service/skull"
)

const wallet = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"

// run executes the CLI with args and returns what it wrote to stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"crypt"}, args...))
	return out.String(), err
}

func TestHealthCommand_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	out, err := run(t, "", "--server", server.URL, "server", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "Server is healthy")
}

func TestHealthCommand_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := run(t, "", "--server", server.URL, "server", "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health check failed")
}

func TestScanCommand_JQ(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/wallets/"+wallet+"/cards", r.URL.Path)
		assert.Equal(t, "legendary", r.URL.Query().Get("min_rarity"))
		w.Write([]byte(`{"wallet":"` + wallet + `","cards":[{"id":1,"type":"swap","rarity":"legendary","title":"Moon"}],"soundtracks":{}}`))
	}))
	defer server.Close()

	out, err := run(t, "", "--server", server.URL, "--jq", ".cards[0].title", "wallet", "scan", "--min-rarity", "legendary", wallet)
	require.NoError(t, err)
	assert.Equal(t, "\"Moon\"\n", out)
}

func TestMintCommand_FromStdin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/cards/mint", r.URL.Path)

		var body struct {
			Card   map[string]interface{} `json:"card"`
			Wallet string                 `json:"wallet"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, wallet, body.Wallet)
		assert.Equal(t, "5VERfull", body.Card["fullTx"])

		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"card is already minted or being minted","workflow_id":"mint-card-5VERfull"}`))
	}))
	defer server.Close()

	card := `{"id":1,"type":"swap","rarity":"rare","tx":"5VER...full","fullTx":"5VERfull"}`
	out, err := run(t, card, "--server", server.URL, "--json", "card", "mint", "--wallet", wallet, "-")
	require.NoError(t, err)

	var started map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &started))
	assert.Equal(t, "mint-card-5VERfull", started["workflow_id"])
}

func TestMintCommand_RequiresSignature(t *testing.T) {
	_, err := run(t, `{"id":1}`, "card", "mint", "--wallet", wallet, "-")
	assert.EqualError(t, err, "card has no transaction signature")
}

func TestAwaitCommand_RequiresFilter(t *testing.T) {
	_, err := run(t, "", "events", "await", wallet)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must specify at least one filter")
}

func TestAwaitCommand_MatchesEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event: liked\ndata: {\"kind\":\"liked\",\"wallet\":\"" + wallet + "\",\"signature\":\"sig1\",\"likes\":2}\n\n"))
		w.Write([]byte("event: minted\ndata: {\"kind\":\"minted\",\"wallet\":\"" + wallet + "\",\"signature\":\"sig1\",\"mint_signature\":\"memo\"}\n\n"))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	out, err := run(t, "", "--server", server.URL, "events", "await", "--timeout", "5s",
		"--must-jq", `.kind == "minted"`, "--signature", "sig1", wallet)
	require.NoError(t, err)
	assert.Contains(t, out, "minted")
	assert.Contains(t, out, "memo")
}

func TestSoulCommand(t *testing.T) {
	out, err := run(t, "", "--json", "soul", "5VERabc")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, rng.SoulSeedHex("5VERabc"), got["hex"])
	assert.Equal(t, rng.SoulSeedBase58("5VERabc"), got["base58"])
}

func TestSkullCommand_PNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skull.png")

	_, err := run(t, "", "skull", "--rarity", "legendary", "--png", path, "--scale", "2", "seed-one")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, skull.FrameWidth*2, img.Bounds().Dx())
	assert.Equal(t, skull.FrameHeight*2, img.Bounds().Dy())
}

func TestSkullCommand_InvalidInput(t *testing.T) {
	_, err := run(t, "", "skull", "--rarity", "mythic", "seed-one")
	assert.ErrorContains(t, err, "invalid rarity")

	_, err = run(t, "", "skull", "--png", filepath.Join(t.TempDir(), "x.png"), "--scale", "99", "seed-one")
	assert.ErrorContains(t, err, "scale must be between")
}

func TestDealCommand_Explain(t *testing.T) {
	history := `[
		{"type":"SWAP","source":"JUPITER","signature":"a","timestamp":1700000000},
		{"type":"TRANSFER","source":"SYSTEM_PROGRAM","signature":"b","timestamp":1700000001},
		{"type":"","signature":"c","timestamp":1700000002}
	]`

	out, err := run(t, history, "--jq", ".ranked | length", "deal", "--explain", "--wallet", wallet, "-")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestDealCommand_EmptyHistory(t *testing.T) {
	out, err := run(t, "[]", "--json", "deal", "--wallet", wallet, "-")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestWriteJSON_JQ(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		expr    string
		want    string
		wantErr bool
	}{
		{"no filter", map[string]int{"a": 1}, "", "{\n  \"a\": 1\n}\n", false},
		{"field", map[string]int{"a": 1}, ".a", "1\n", false},
		{"multiple results", []int{1, 2}, ".[]", "1\n2\n", false},
		{"parse error", nil, ".[", "", true},
		{"runtime error", "text", ".a", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := writeJSON(&buf, tt.value, tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestJQMatches(t *testing.T) {
	event := map[string]interface{}{"kind": "minted", "likes": 3}

	tests := []struct {
		expr string
		want bool
	}{
		{`.kind == "minted"`, true},
		{`.kind == "burned"`, false},
		{`.likes > 2`, true},
		{`.missing`, false},
		{`.kind`, true},
		{`.kind.nested`, false},
	}
	for _, tt := range tests {
		code, err := compileJQ(tt.expr)
		require.NoError(t, err)
		assert.Equal(t, tt.want, jqMatches(code, event), tt.expr)
	}
}

func TestScoreCommand(t *testing.T) {
	out, err := run(t, "", "--json", "score", "--type", "swap", "--sol", "120", "--memecoin", "--defi")
	require.NoError(t, err)

	var got struct {
		Type string   `json:"type"`
		Tags []string `json:"tags"`
		SOL  float64  `json:"sol"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "SWAP", got.Type)
	assert.InDelta(t, 120, got.SOL, 1e-9)
	assert.Contains(t, got.Tags, "whale")
	assert.Contains(t, got.Tags, "memecoin")
}
