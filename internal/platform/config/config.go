package config

import (
	"math/big"
	"os"
	"strconv"
	"time"
)

// Config captures everything the trust resolution service reads from its
// environment. Defaults suit local development against a testnet node.
type Config struct {
	Addr string

	// Ledger access.
	RPCURL          string
	RegistryAddress string
	DepositAddress  string

	// Token deposit proof.
	TokenDecimals  int
	MinimumDeposit *big.Rat

	// Drive modes.
	EventLookbackBlocks uint64
	EventPollInterval   time.Duration
	ScanInterval        time.Duration
	ScanConcurrency     int
	RecheckInterval     time.Duration

	// External checks.
	ProviderTimeout time.Duration

	// Persistence.
	PostgresDSN      string
	RedisURL         string
	DocumentCacheTTL time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:                envOr("ORGTRUST_ADDR", ":8080"),
		RPCURL:              envOr("ORGTRUST_RPC_URL", "http://localhost:8545"),
		RegistryAddress:     os.Getenv("ORGTRUST_REGISTRY_ADDRESS"),
		DepositAddress:      os.Getenv("ORGTRUST_DEPOSIT_ADDRESS"),
		TokenDecimals:       envInt("ORGTRUST_TOKEN_DECIMALS", 18),
		EventLookbackBlocks: uint64(envInt("ORGTRUST_EVENT_LOOKBACK_BLOCKS", 10)),
		EventPollInterval:   envDuration("ORGTRUST_EVENT_POLL_INTERVAL", 15*time.Second),
		ScanInterval:        envDuration("ORGTRUST_SCAN_INTERVAL", time.Hour),
		ScanConcurrency:     envInt("ORGTRUST_SCAN_CONCURRENCY", 4),
		RecheckInterval:     envDuration("ORGTRUST_RECHECK_INTERVAL", 30*time.Minute),
		ProviderTimeout:     envDuration("ORGTRUST_PROVIDER_TIMEOUT", 15*time.Second),
		PostgresDSN:         os.Getenv("ORGTRUST_POSTGRES_DSN"),
		RedisURL:            os.Getenv("ORGTRUST_REDIS_URL"),
		DocumentCacheTTL:    envDuration("ORGTRUST_DOCUMENT_CACHE_TTL", 5*time.Minute),
	}

	cfg.MinimumDeposit = new(big.Rat)
	if _, ok := cfg.MinimumDeposit.SetString(envOr("ORGTRUST_MINIMUM_DEPOSIT", "1000")); !ok {
		cfg.MinimumDeposit.SetInt64(1000)
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
