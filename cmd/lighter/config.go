package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/banky/go-lighter/constants"
)

// Config holds everything the CLI reads from the environment
type Config struct {
	BaseURL      string
	AccountIndex int64
	ApiKeyStart  uint8
	ApiKeyEnd    uint8
	// PrivateKeys maps api key indexes to hex private keys
	PrivateKeys map[uint8]string
	// L1PrivateKey optionally co-signs transfers
	L1PrivateKey string
	Timeout     time.Duration
	MarketIndex uint8
	Debug       bool
}

// LoadConfig reads LIGHTER_* variables. Private keys come either from
// LIGHTER_PRIVATE_KEY_<index> per key or from LIGHTER_PRIVATE_KEYS, a comma
// separated list assigned to the pool in key order.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		BaseURL:      getEnv("LIGHTER_BASE_URL", constants.TESTNET_API_URL),
		L1PrivateKey: os.Getenv("LIGHTER_L1_PRIVATE_KEY"),
		Debug:        getEnvBool("DEBUG", false),
	}

	var err error
	if cfg.AccountIndex, err = getEnvInt("LIGHTER_ACCOUNT_INDEX", -1); err != nil {
		return nil, err
	}
	if cfg.AccountIndex < 0 {
		return nil, fmt.Errorf("LIGHTER_ACCOUNT_INDEX is required")
	}

	start, err := getEnvInt("LIGHTER_API_KEY_START", int64(constants.MIN_API_KEY_INDEX))
	if err != nil {
		return nil, err
	}
	end, err := getEnvInt("LIGHTER_API_KEY_END", start)
	if err != nil {
		return nil, err
	}
	if start < 0 || end < start || end > int64(constants.MAX_API_KEY_INDEX) {
		return nil, fmt.Errorf("invalid api key range [%d, %d]", start, end)
	}
	cfg.ApiKeyStart = uint8(start)
	cfg.ApiKeyEnd = uint8(end)

	market, err := getEnvInt("LIGHTER_MARKET_INDEX", 0)
	if err != nil {
		return nil, err
	}
	cfg.MarketIndex = uint8(market)

	timeout, err := time.ParseDuration(getEnv("LIGHTER_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LIGHTER_TIMEOUT: %w", err)
	}
	cfg.Timeout = timeout

	cfg.PrivateKeys, err = loadPrivateKeys(cfg.ApiKeyStart, cfg.ApiKeyEnd)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadPrivateKeys(start, end uint8) (map[uint8]string, error) {
	keys := make(map[uint8]string)

	if list := os.Getenv("LIGHTER_PRIVATE_KEYS"); list != "" {
		parts := strings.Split(list, ",")
		if len(parts) != int(end-start)+1 {
			return nil, fmt.Errorf(
				"LIGHTER_PRIVATE_KEYS has %d keys for %d api keys",
				len(parts),
				int(end-start)+1,
			)
		}
		for i, p := range parts {
			keys[start+uint8(i)] = strings.TrimSpace(p)
		}
		return keys, nil
	}

	for k := int(start); k <= int(end); k++ {
		name := fmt.Sprintf("LIGHTER_PRIVATE_KEY_%d", k)
		v := os.Getenv(name)
		if v == "" {
			return nil, fmt.Errorf("%s is required", name)
		}
		keys[uint8(k)] = v
	}
	return keys, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
