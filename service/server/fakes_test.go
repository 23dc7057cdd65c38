package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/brojonat/crypt/service/cards"
	"github.com/brojonat/crypt/service/db"
	"github.com/brojonat/crypt/service/metrics"
	"github.com/brojonat/crypt/service/solana"
	"github.com/brojonat/crypt/service/tapestry"
)

const (
	testWallet    = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	otherWallet   = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	testSignature = "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCard(id int, t cards.CardType, r cards.Rarity, sig string) cards.Card {
	return cards.Card{
		ID:       id,
		Type:     t,
		Rarity:   r,
		Title:    "APE MODE",
		Platform: "JUPITER",
		PnL:      "+4.20 SOL",
		Tx:       cards.ShortSignature(sig),
		FullTx:   sig,
		Tags:     cards.Tags{"swap"},
	}
}

type fakeScanner struct {
	mu      sync.Mutex
	cards   []cards.Card
	wallets []string
}

func (s *fakeScanner) Scan(ctx context.Context, wallet string) []cards.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets = append(s.wallets, wallet)
	return append([]cards.Card(nil), s.cards...)
}

type fakeSoundtracks struct {
	byType   map[cards.CardType]*cards.Soundtrack
	trending []cards.Soundtrack
	limits   []int
}

func (f *fakeSoundtracks) ForCardType(ctx context.Context, t cards.CardType) *cards.Soundtrack {
	return f.byType[t]
}

func (f *fakeSoundtracks) Trending(ctx context.Context, limit int) []cards.Soundtrack {
	f.limits = append(f.limits, limit)
	if len(f.trending) > limit {
		return f.trending[:limit]
	}
	return f.trending
}

type fakeIdentities struct {
	identity *tapestry.Identity
}

func (f *fakeIdentities) ResolveIdentity(ctx context.Context, wallet string) *tapestry.Identity {
	return f.identity
}

type fakeReadiness struct {
	status solana.WalletReadiness
}

func (f *fakeReadiness) CheckWalletReady(ctx context.Context, wallet string) solana.WalletReadiness {
	return f.status
}

// MockLedger is a testify mock of the card ledger.
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) GetCard(ctx context.Context, signature string) (*db.MintedCard, error) {
	args := m.Called(ctx, signature)
	mc, _ := args.Get(0).(*db.MintedCard)
	return mc, args.Error(1)
}

func (m *MockLedger) ListCardsByOwner(ctx context.Context, owner string, limit, offset int32) ([]*db.MintedCard, error) {
	args := m.Called(ctx, owner, limit, offset)
	out, _ := args.Get(0).([]*db.MintedCard)
	return out, args.Error(1)
}

func (m *MockLedger) ToggleLike(ctx context.Context, signature, wallet string) (db.LikeResult, error) {
	args := m.Called(ctx, signature, wallet)
	return args.Get(0).(db.LikeResult), args.Error(1)
}

func (m *MockLedger) MarkBurned(ctx context.Context, signature string) error {
	args := m.Called(ctx, signature)
	return args.Error(0)
}

func (m *MockLedger) Stats(ctx context.Context) (db.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(db.Stats), args.Error(1)
}

func newTestHandler(t *testing.T, deps Dependencies, m *metrics.Metrics) http.Handler {
	t.Helper()
	if deps.Scanner == nil {
		deps.Scanner = &fakeScanner{}
	}
	return New("", deps, m, discardLogger()).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
