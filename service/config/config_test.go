package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.True(t, cfg.ScanCacheEnabled)
	assert.Equal(t, 10*time.Minute, cfg.ScanCacheTTL)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Empty(t, cfg.HeliusAPIKey)
	assert.Equal(t, "https://api.helius.xyz/v0", cfg.HeliusBaseURL)
	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.SolanaRPCURL)
	assert.Equal(t, "https://api.devnet.solana.com", cfg.SolanaMintRPCURL)
	assert.Equal(t, "devnet", cfg.MintCluster)
	assert.Equal(t, "https://api.audius.co", cfg.AudiusBaseURL)
	assert.Equal(t, "CRYPT", cfg.AudiusAppName)
	assert.Equal(t, "https://api.usetapestry.dev/v1", cfg.TapestryBaseURL)
	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, "localhost:7233", cfg.TemporalHost)
	assert.Equal(t, "default", cfg.TemporalNamespace)
	assert.Equal(t, "crypt-cards", cfg.TemporalTaskQueue)
	assert.Equal(t, 30, cfg.RenderFPS)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr string
	}{
		{"SCAN_CACHE_TTL", "soon", "invalid duration"},
		{"SCAN_CACHE_TTL", "500ms", "SCAN_CACHE_TTL must be at least 1s"},
		{"SCAN_CACHE_ENABLED", "maybe", "invalid boolean"},
		{"HISTORY_LIMIT", "lots", "invalid integer"},
		{"HISTORY_LIMIT", "0", "HISTORY_LIMIT must be between 1 and 1000"},
		{"HISTORY_LIMIT", "1001", "HISTORY_LIMIT must be between 1 and 1000"},
		{"RENDER_FPS", "240", "RENDER_FPS must be between 1 and 120"},
		{"UPSTREAM_TIMEOUT", "10", "invalid duration"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			os.Setenv("DATABASE_URL", "postgres://localhost/test")
			os.Setenv(tt.key, tt.value)
			defer cleanupEnv()

			cfg, err := Load()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_AccumulatesErrors(t *testing.T) {
	os.Setenv("HISTORY_LIMIT", "0")
	os.Setenv("RENDER_FPS", "0")
	defer cleanupEnv()

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
	assert.Contains(t, err.Error(), "HISTORY_LIMIT")
	assert.Contains(t, err.Error(), "RENDER_FPS")
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("SERVER_ADDR", ":9090")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("NATS_URL", "nats://nats.example.com:4222")
	os.Setenv("TEMPORAL_HOST", "temporal.example.com:7233")
	os.Setenv("HELIUS_API_KEY", "helius-key")
	os.Setenv("TAPESTRY_API_KEY", "tapestry-key")
	os.Setenv("MINT_AUTHORITY_KEY", "authority")
	os.Setenv("SCAN_CACHE_ENABLED", "false")
	os.Setenv("SCAN_CACHE_TTL", "1m")
	os.Setenv("HISTORY_LIMIT", "50")
	os.Setenv("RENDER_FPS", "60")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "nats://nats.example.com:4222", cfg.NATSURL)
	assert.Equal(t, "temporal.example.com:7233", cfg.TemporalHost)
	assert.Equal(t, "helius-key", cfg.HeliusAPIKey)
	assert.Equal(t, "tapestry-key", cfg.TapestryAPIKey)
	assert.Equal(t, "authority", cfg.MintAuthorityKey)
	assert.False(t, cfg.ScanCacheEnabled)
	assert.Equal(t, time.Minute, cfg.ScanCacheTTL)
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.Equal(t, 60, cfg.RenderFPS)
}

func validConfig() *Config {
	return &Config{
		DatabaseURL:       "postgres://localhost/test",
		SolanaRPCURL:      "https://api.mainnet-beta.solana.com",
		SolanaMintRPCURL:  "https://api.devnet.solana.com",
		TemporalHost:      "localhost:7233",
		TemporalNamespace: "default",
		TemporalTaskQueue: "crypt-cards",
		ScanCacheEnabled:  true,
		ScanCacheTTL:      time.Minute,
		HistoryLimit:      100,
		RenderFPS:         30,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing database", func(c *Config) { c.DatabaseURL = "" }, "DatabaseURL is required"},
		{"missing rpc", func(c *Config) { c.SolanaRPCURL = "" }, "SolanaRPCURL is required"},
		{"missing mint rpc", func(c *Config) { c.SolanaMintRPCURL = "" }, "SolanaMintRPCURL is required"},
		{"short ttl", func(c *Config) { c.ScanCacheTTL = time.Millisecond }, "ScanCacheTTL must be at least 1 second"},
		{"short ttl with cache off", func(c *Config) { c.ScanCacheEnabled = false; c.ScanCacheTTL = 0 }, ""},
		{"history limit", func(c *Config) { c.HistoryLimit = 0 }, "HistoryLimit must be between 1 and 1000"},
		{"fps", func(c *Config) { c.RenderFPS = 121 }, "RenderFPS must be between 1 and 120"},
		{"task queue", func(c *Config) { c.TemporalTaskQueue = "" }, "TemporalTaskQueue is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMustLoad_Panics(t *testing.T) {
	// Don't set required env vars
	defer cleanupEnv()

	assert.Panics(t, func() {
		MustLoad()
	})
}

func TestMustLoad_Success(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	defer cleanupEnv()

	assert.NotPanics(t, func() {
		cfg := MustLoad()
		assert.NotNil(t, cfg)
	})
}

// cleanupEnv clears all environment variables used in tests
func cleanupEnv() {
	for _, key := range []string{
		"DATABASE_URL", "SERVER_ADDR", "LOG_LEVEL", "NATS_URL", "TEMPORAL_HOST",
		"REDIS_URL", "SCAN_CACHE_ENABLED", "SCAN_CACHE_TTL",
		"HELIUS_API_KEY", "TAPESTRY_API_KEY", "MINT_AUTHORITY_KEY",
		"HISTORY_LIMIT", "RENDER_FPS", "UPSTREAM_TIMEOUT",
	} {
		os.Unsetenv(key)
	}
}
