package main

import (
	"testing"
	"time"

	"github.com/banky/go-lighter/constants"
	"github.com/maxatome/go-testdeep/td"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"LIGHTER_BASE_URL",
		"LIGHTER_ACCOUNT_INDEX",
		"LIGHTER_API_KEY_START",
		"LIGHTER_API_KEY_END",
		"LIGHTER_PRIVATE_KEYS",
		"LIGHTER_PRIVATE_KEY_2",
		"LIGHTER_PRIVATE_KEY_3",
		"LIGHTER_MARKET_INDEX",
		"LIGHTER_TIMEOUT",
		"LIGHTER_L1_PRIVATE_KEY",
		"DEBUG",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigPerKeyVariables(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIGHTER_ACCOUNT_INDEX", "65")
	t.Setenv("LIGHTER_API_KEY_END", "3")
	t.Setenv("LIGHTER_PRIVATE_KEY_2", "0xaa")
	t.Setenv("LIGHTER_PRIVATE_KEY_3", "0xbb")

	cfg, err := LoadConfig()
	td.Require(t).CmpNoError(err)

	td.Cmp(t, cfg, &Config{
		BaseURL:      constants.TESTNET_API_URL,
		AccountIndex: 65,
		ApiKeyStart:  2,
		ApiKeyEnd:    3,
		PrivateKeys:  map[uint8]string{2: "0xaa", 3: "0xbb"},
		Timeout:      10 * time.Second,
	})
}

func TestLoadConfigKeyList(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIGHTER_ACCOUNT_INDEX", "1")
	t.Setenv("LIGHTER_API_KEY_START", "4")
	t.Setenv("LIGHTER_API_KEY_END", "5")
	t.Setenv("LIGHTER_PRIVATE_KEYS", "0x01, 0x02")

	cfg, err := LoadConfig()
	td.Require(t).CmpNoError(err)
	td.Cmp(t, cfg.PrivateKeys, map[uint8]string{4: "0x01", 5: "0x02"})
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing account", env: map[string]string{}},
		{
			name: "missing key",
			env:  map[string]string{"LIGHTER_ACCOUNT_INDEX": "1"},
		},
		{
			name: "key count mismatch",
			env: map[string]string{
				"LIGHTER_ACCOUNT_INDEX": "1",
				"LIGHTER_API_KEY_END":   "3",
				"LIGHTER_PRIVATE_KEYS":  "0x01",
			},
		},
		{
			name: "inverted range",
			env: map[string]string{
				"LIGHTER_ACCOUNT_INDEX": "1",
				"LIGHTER_API_KEY_START": "5",
				"LIGHTER_API_KEY_END":   "3",
			},
		},
		{
			name: "bad timeout",
			env: map[string]string{
				"LIGHTER_ACCOUNT_INDEX": "1",
				"LIGHTER_PRIVATE_KEY_2": "0xaa",
				"LIGHTER_TIMEOUT":       "soon",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			td.CmpError(t, err)
		})
	}
}
