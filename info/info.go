package info

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/banky/go-lighter/constants"
	"github.com/banky/go-lighter/rest"
)

// Info provides access to the account queries needed before submitting
// transactions
type Info struct {
	rest rest.ClientInterface
}

// Config for initializing the Info client
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New creates a new Info client
func New(cfg Config) *Info {
	return NewWithClient(rest.New(rest.Config{
		BaseUrl: cfg.BaseURL,
		Timeout: cfg.Timeout,
	}))
}

// NewWithClient creates an Info client on top of an existing REST client
func NewWithClient(client rest.ClientInterface) *Info {
	return &Info{rest: client}
}

// NextNonce retrieves the next nonce the exchange expects for an api key.
func (i *Info) NextNonce(
	ctx context.Context,
	accountIndex int64,
	apiKeyIndex uint8,
) (int64, error) {
	var result NextNonceResponse
	err := i.rest.Get(
		ctx,
		"/api/v1/nextNonce",
		map[string]string{
			"account_index": strconv.FormatInt(accountIndex, 10),
			"api_key_index": strconv.Itoa(int(apiKeyIndex)),
		},
		&result,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch next nonce: %w", err)
	}
	if result.Code != constants.CodeOK {
		return 0, fmt.Errorf(
			"failed to fetch next nonce: code %d: %s",
			result.Code,
			result.Message,
		)
	}

	return result.Nonce, nil
}

// ApiKeys retrieves the api keys registered for an account. apiKeyIndex
// 255 returns every key.
func (i *Info) ApiKeys(
	ctx context.Context,
	accountIndex int64,
	apiKeyIndex uint8,
) ([]ApiKey, error) {
	var result ApiKeysResponse
	err := i.rest.Get(
		ctx,
		"/api/v1/apikeys",
		map[string]string{
			"account_index": strconv.FormatInt(accountIndex, 10),
			"api_key_index": strconv.Itoa(int(apiKeyIndex)),
		},
		&result,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch api keys: %w", err)
	}
	if result.Code != constants.CodeOK {
		return nil, fmt.Errorf(
			"failed to fetch api keys: code %d: %s",
			result.Code,
			result.Message,
		)
	}

	return result.ApiKeys, nil
}

// PublicKey retrieves the public key registered for a single api key.
func (i *Info) PublicKey(
	ctx context.Context,
	accountIndex int64,
	apiKeyIndex uint8,
) (string, error) {
	keys, err := i.ApiKeys(ctx, accountIndex, apiKeyIndex)
	if err != nil {
		return "", err
	}
	for _, k := range keys {
		if k.ApiKeyIndex == apiKeyIndex {
			return k.PublicKey, nil
		}
	}
	return "", fmt.Errorf("api key %d is not registered", apiKeyIndex)
}
