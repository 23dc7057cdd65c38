package cards

// Token is the display metadata for a mint.
type Token struct {
	Symbol string `json:"symbol"`
	Icon   string `json:"icon"`
}

// TokenLookup resolves a mint address to display metadata. Implementations
// must be deterministic and must return something for every input.
type TokenLookup interface {
	Lookup(mint string) Token
}

const wrappedSOLMint = "So11111111111111111111111111111111111111112"

// KnownTokens is the built-in table of well-known mints.
var KnownTokens = map[string]Token{
	wrappedSOLMint: {"SOL", "◎"},
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": {"USDC", "$"},
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": {"USDT", "$"},
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": {"BONK", "$"},
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  {"JUP", "♃"},
	"EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm": {"WIF", "$"},
	"7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr": {"POPCAT", "$"},
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  {"mSOL", "◎"},
	"7dHbWXmci3dT8UFYWYZweBLXgycu7Y3iL6trKn1Y7ARj": {"stSOL", "◎"},
	"HZ1JovNiVvGrGNiiYvEozEVgZ58xaU3RKwX8eACQBCt3": {"PYTH", "$"},
	"hntyVP6YFm1Hg25TN9WGLqM12b8TQmcknKrdu1oxWux":  {"HNT", "$"},
	"rndrizKT3MK1iimdxRdWabcF7Zg7AR5T4nud4EkHBof":  {"RNDR", "$"},
	"DUSTawucrTsGU8hcqRdHDCbuYhCPADMLM2VcCb8VnFnQ": {"DUST", "$"},
	"TNSRxcUxoT9xBG3de7PiJyTDYu7kskLqcpddxnEJAS6":  {"TNSR", "$"},
	"jtojtomepa8beP8AuQc6eXt5FriJwfFMwQx2v2f9mCL":  {"JTO", "⚡"},
	"WENWENvqqNya429ubCdR81ZmD69brwQaaBYY6p3LCpk":  {"WEN", "$"},
	"MEW1gQWJ3nEXg2qgERiKu7FAFj79PHvQVREQUzScPP5":  {"MEW", "$"},
	"A3eME5CetyZPBoWbRUwY3tSe25S6tb18ba9ZPbWk9eFJ": {"PENG", "$"},
	"7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs": {"RAY", "☀"},
	"orcaEKTdK7LKz57vaAYr9QeNsVEPfiu6QeMU1kektZE":  {"ORCA", "$"},
	"bSo13r4TkiE4KumL71LsHTPpL2euBYLFx6h9HP3piy1":  {"bSOL", "◎"},
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R": {"RAY", "☀"},
}

var memecoins = map[string]bool{
	"BONK": true, "WIF": true, "POPCAT": true, "MEW": true,
	"PENG": true, "WEN": true, "DUST": true,
}

var defiSources = map[string]bool{
	"JUPITER": true, "RAYDIUM": true, "ORCA": true, "MARINADE": true,
	"DRIFT": true, "MANGO": true, "TENSOR": true, "MAGIC_EDEN": true,
}

// IsMemecoin reports whether symbol is one of the tracked memecoins.
func IsMemecoin(symbol string) bool { return memecoins[symbol] }

// IsDeFiSource reports whether a provider source label is a known DeFi venue.
func IsDeFiSource(source string) bool { return defiSources[source] }

// TokenTable is a TokenLookup over a fixed map with a truncated-address
// fallback for unknown mints.
type TokenTable struct {
	tokens map[string]Token
}

// NewTokenTable returns a table over the given tokens, or KnownTokens when
// tokens is nil.
func NewTokenTable(tokens map[string]Token) *TokenTable {
	if tokens == nil {
		tokens = KnownTokens
	}
	return &TokenTable{tokens: tokens}
}

// DefaultTokens is the table used when a component is given no lookup.
var DefaultTokens = NewTokenTable(nil)

// Lookup returns the known metadata for mint. An empty mint yields
// {"???", "?"}; an unknown mint yields a "abcd..xyz" pseudo-symbol.
func (t *TokenTable) Lookup(mint string) Token {
	if mint == "" {
		return Token{Symbol: "???", Icon: "?"}
	}
	if tok, ok := t.tokens[mint]; ok {
		return tok
	}
	return Token{Symbol: head(mint, 4) + ".." + tail(mint, 3), Icon: "$"}
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
