// Package rest provides core functions for
// network requests to Lighter API endpoints
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/banky/go-lighter/constants"
	"github.com/go-resty/resty/v2"
	"github.com/samber/mo"
)

type Client struct {
	baseUrl string
	timeout mo.Option[time.Duration]
	http    *resty.Client
}

// ClientInterface defines the contract for REST API calls
type ClientInterface interface {
	PostForm(ctx context.Context, path string, form map[string]string, result any) error
	Get(ctx context.Context, path string, params map[string]string, result any) error
	BaseURL() string
}

type Config struct {
	// BaseUrl is the base URL for the Lighter API
	// If none is provided, the mainnet url will be used
	BaseUrl string
	// Timeout is the timeout for network requests
	// If none is provided, no timeout will be enforced
	Timeout time.Duration
}

// New creates a new client instance with the
// provided configuration.
func New(c Config) *Client {
	var baseUrl string = c.BaseUrl
	var timeout mo.Option[time.Duration]

	if c.BaseUrl == "" {
		baseUrl = constants.MAINNET_API_URL
	}
	if c.Timeout != 0 {
		timeout = mo.Some(c.Timeout)
	}

	client := &Client{
		baseUrl: baseUrl,
		timeout: timeout,
		http:    resty.New(),
	}

	return client
}

func (c *Client) BaseURL() string {
	return c.baseUrl
}

// PostForm sends a form encoded POST request to the specified path and
// decodes the JSON response into result.
func (c *Client) PostForm(
	ctx context.Context,
	path string,
	form map[string]string,
	result any,
) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetHeader("Accept", "application/json").
		Post(c.baseUrl + path)
	if err != nil {
		return err
	}

	return decode(resp, result)
}

// Get sends a GET request with the given query parameters and decodes the
// JSON response into result.
func (c *Client) Get(
	ctx context.Context,
	path string,
	params map[string]string,
	result any,
) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetHeader("Accept", "application/json").
		Get(c.baseUrl + path)
	if err != nil {
		return err
	}

	return decode(resp, result)
}

// Apply timeout to context if specified
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout, ok := c.timeout.Get(); ok {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}

func decode(resp *resty.Response, result any) error {
	if err := handleException(resp); err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return &DecodeError{
			StatusCode: int64(resp.StatusCode()),
			Body:       string(resp.Body()),
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return nil
}
