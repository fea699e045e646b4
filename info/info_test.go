package info

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/banky/go-lighter/nonce"
	"github.com/banky/go-lighter/rest"
	"github.com/maxatome/go-testdeep/td"
)

var _ nonce.NonceSource = (*Info)(nil)

// Mock REST client for testing
type mockRestClient struct {
	getFunc func(ctx context.Context, path string, params map[string]string, result any) error
}

var _ rest.ClientInterface = (*mockRestClient)(nil)

func (m *mockRestClient) PostForm(
	ctx context.Context,
	path string,
	form map[string]string,
	result any,
) error {
	return errors.New("unexpected post")
}

func (m *mockRestClient) Get(
	ctx context.Context,
	path string,
	params map[string]string,
	result any,
) error {
	return m.getFunc(ctx, path, params, result)
}

func (m *mockRestClient) BaseURL() string { return "http://mock" }

// respond decodes body into result the way the REST client would
func respond(body string, result any) error {
	return json.Unmarshal([]byte(body), result)
}

func TestNextNonce(t *testing.T) {
	mock := &mockRestClient{
		getFunc: func(ctx context.Context, path string, params map[string]string, result any) error {
			td.Cmp(t, path, "/api/v1/nextNonce")
			td.Cmp(t, params, map[string]string{
				"account_index": "65",
				"api_key_index": "3",
			})
			return respond(`{"code":200,"nonce":1234}`, result)
		},
	}

	n, err := NewWithClient(mock).NextNonce(context.Background(), 65, 3)
	td.CmpNoError(t, err)
	td.Cmp(t, n, int64(1234))
}

func TestNextNonceErrors(t *testing.T) {
	tests := []struct {
		name string
		get  func(result any) error
	}{
		{
			name: "transport error",
			get:  func(result any) error { return errors.New("connection refused") },
		},
		{
			name: "non ok code",
			get: func(result any) error {
				return respond(`{"code":21100,"message":"account not found"}`, result)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockRestClient{
				getFunc: func(_ context.Context, _ string, _ map[string]string, result any) error {
					return tt.get(result)
				},
			}
			_, err := NewWithClient(mock).NextNonce(context.Background(), 1, 2)
			td.CmpError(t, err)
		})
	}
}

func TestApiKeysAndPublicKey(t *testing.T) {
	mock := &mockRestClient{
		getFunc: func(ctx context.Context, path string, params map[string]string, result any) error {
			td.Cmp(t, path, "/api/v1/apikeys")
			return respond(`{
				"code": 200,
				"api_keys": [
					{"account_index": 65, "api_key_index": 2, "nonce": 10, "public_key": "0xaa"},
					{"account_index": 65, "api_key_index": 3, "nonce": 4, "public_key": "0xbb"}
				]
			}`, result)
		},
	}
	client := NewWithClient(mock)

	keys, err := client.ApiKeys(context.Background(), 65, 255)
	td.CmpNoError(t, err)
	td.Cmp(t, keys, []ApiKey{
		{AccountIndex: 65, ApiKeyIndex: 2, Nonce: 10, PublicKey: "0xaa"},
		{AccountIndex: 65, ApiKeyIndex: 3, Nonce: 4, PublicKey: "0xbb"},
	})

	pub, err := client.PublicKey(context.Background(), 65, 3)
	td.CmpNoError(t, err)
	td.Cmp(t, pub, "0xbb")

	_, err = client.PublicKey(context.Background(), 65, 9)
	td.CmpError(t, err)
}

func TestSyncFromInfo(t *testing.T) {
	mock := &mockRestClient{
		getFunc: func(ctx context.Context, path string, params map[string]string, result any) error {
			if params["api_key_index"] == "2" {
				return respond(`{"code":200,"nonce":7}`, result)
			}
			return respond(`{"code":200,"nonce":19}`, result)
		},
	}

	a, err := nonce.New(nonce.Config{StartIndex: 2, EndIndex: 3})
	td.Require(t).CmpNoError(err)
	td.Require(t).CmpNoError(a.Sync(context.Background(), NewWithClient(mock), 65))

	td.Cmp(t, a.Snapshot(), []nonce.SlotState{
		{KeyIndex: 2, NextNonce: 7},
		{KeyIndex: 3, NextNonce: 19},
	})
}
