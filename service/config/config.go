package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Database configuration
	DatabaseURL string

	// Scan cache configuration
	RedisURL         string
	ScanCacheEnabled bool
	ScanCacheTTL     time.Duration

	// NATS configuration
	NATSURL string

	// History providers
	HeliusAPIKey  string
	HeliusBaseURL string
	SolanaRPCURL  string
	HistoryLimit  int

	// Minting
	SolanaMintRPCURL string
	MintAuthorityKey string
	MintCluster      string

	// Decoration collaborators
	AudiusBaseURL   string
	AudiusAppName   string
	TapestryBaseURL string
	TapestryAPIKey  string
	UpstreamTimeout time.Duration

	// Temporal configuration
	TemporalHost      string
	TemporalNamespace string
	TemporalTaskQueue string

	// Rendering
	RenderFPS int
}

// Load reads configuration from environment variables and validates all required fields.
// Returns an error if any required configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Database configuration
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("DATABASE_URL is required"))
	}

	// Scan cache configuration
	cfg.RedisURL = getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0")
	enabled, err := parseBool("SCAN_CACHE_ENABLED", true)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ScanCacheEnabled = enabled
	}
	ttl, err := parseDuration("SCAN_CACHE_TTL", "10m")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ScanCacheTTL = ttl
		if ttl < time.Second {
			errs = append(errs, fmt.Errorf("SCAN_CACHE_TTL must be at least 1s, got %v", ttl))
		}
	}

	// NATS configuration
	cfg.NATSURL = getEnvOrDefault("NATS_URL", "nats://localhost:4222")

	// History providers. Without a Helius key, history comes from plain RPC.
	cfg.HeliusAPIKey = os.Getenv("HELIUS_API_KEY")
	cfg.HeliusBaseURL = getEnvOrDefault("HELIUS_BASE_URL", "https://api.helius.xyz/v0")
	cfg.SolanaRPCURL = getEnvOrDefault("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	limit, err := parseInt("HISTORY_LIMIT", 100)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.HistoryLimit = limit
		if limit < 1 || limit > 1000 {
			errs = append(errs, fmt.Errorf("HISTORY_LIMIT must be between 1 and 1000, got %d", limit))
		}
	}

	// Minting
	cfg.SolanaMintRPCURL = getEnvOrDefault("SOLANA_MINT_RPC_URL", "https://api.devnet.solana.com")
	cfg.MintAuthorityKey = os.Getenv("MINT_AUTHORITY_KEY")
	cfg.MintCluster = getEnvOrDefault("MINT_CLUSTER", "devnet")

	// Decoration collaborators
	cfg.AudiusBaseURL = getEnvOrDefault("AUDIUS_BASE_URL", "https://api.audius.co")
	cfg.AudiusAppName = getEnvOrDefault("AUDIUS_APP_NAME", "CRYPT")
	cfg.TapestryBaseURL = getEnvOrDefault("TAPESTRY_BASE_URL", "https://api.usetapestry.dev/v1")
	cfg.TapestryAPIKey = os.Getenv("TAPESTRY_API_KEY")
	timeout, err := parseDuration("UPSTREAM_TIMEOUT", "10s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.UpstreamTimeout = timeout
	}

	// Temporal configuration
	cfg.TemporalHost = getEnvOrDefault("TEMPORAL_HOST", "localhost:7233")
	cfg.TemporalNamespace = getEnvOrDefault("TEMPORAL_NAMESPACE", "default")
	cfg.TemporalTaskQueue = getEnvOrDefault("TEMPORAL_TASK_QUEUE", "crypt-cards")

	// Rendering
	fps, err := parseInt("RENDER_FPS", 30)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.RenderFPS = fps
		if fps < 1 || fps > 120 {
			errs = append(errs, fmt.Errorf("RENDER_FPS must be between 1 and 120, got %d", fps))
		}
	}

	// Return all validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("DatabaseURL is required"))
	}

	if c.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SolanaRPCURL is required"))
	}

	if c.SolanaMintRPCURL == "" {
		errs = append(errs, fmt.Errorf("SolanaMintRPCURL is required"))
	}

	if c.TemporalHost == "" {
		errs = append(errs, fmt.Errorf("TemporalHost is required"))
	}

	if c.TemporalNamespace == "" {
		errs = append(errs, fmt.Errorf("TemporalNamespace is required"))
	}

	if c.TemporalTaskQueue == "" {
		errs = append(errs, fmt.Errorf("TemporalTaskQueue is required"))
	}

	if c.ScanCacheEnabled && c.ScanCacheTTL < time.Second {
		errs = append(errs, fmt.Errorf("ScanCacheTTL must be at least 1 second"))
	}

	if c.HistoryLimit < 1 || c.HistoryLimit > 1000 {
		errs = append(errs, fmt.Errorf("HistoryLimit must be between 1 and 1000"))
	}

	if c.RenderFPS < 1 || c.RenderFPS > 120 {
		errs = append(errs, fmt.Errorf("RenderFPS must be between 1 and 120"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}

// parseBool parses a boolean from an environment variable or uses a default.
func parseBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q: %w", key, value, err)
	}
	return result, nil
}
