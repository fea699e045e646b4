package info

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/banky/go-lighter/nonce"
	"github.com/banky/go-lighter/rest"
	"github.com/maxatome/go-testdeep/helpers/tdsuite"
	"github.com/maxatome/go-testdeep/td"
)

// cassetteLoader loads recorded responses from JSON files
type cassetteLoader struct {
	cassettes map[string]json.RawMessage
}

func newCassetteLoader() *cassetteLoader {
	return &cassetteLoader{
		cassettes: make(map[string]json.RawMessage),
	}
}

func (cl *cassetteLoader) loadCassette(name string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("cassette %s is not valid JSON", name)
	}
	cl.cassettes[name] = data
	return nil
}

func (cl *cassetteLoader) getCassette(name string) (json.RawMessage, error) {
	cassette, ok := cl.cassettes[name]
	if !ok {
		return nil, fmt.Errorf("cassette %s not found", name)
	}
	return cassette, nil
}

// cassetteRestClient is a REST client that answers GETs from cassettes
// keyed by request path
type cassetteRestClient struct {
	loader           *cassetteLoader
	cassetteMappings map[string]string
	requests         []map[string]string
}

var _ rest.ClientInterface = (*cassetteRestClient)(nil)

func newCassetteRestClient(loader *cassetteLoader) *cassetteRestClient {
	return &cassetteRestClient{
		loader:           loader,
		cassetteMappings: make(map[string]string),
	}
}

// registerCassette maps a request path to a cassette
func (crc *cassetteRestClient) registerCassette(path string, cassetteName string) {
	crc.cassetteMappings[path] = cassetteName
}

func (crc *cassetteRestClient) Get(
	ctx context.Context,
	path string,
	params map[string]string,
	result any,
) error {
	crc.requests = append(crc.requests, params)

	cassetteName, ok := crc.cassetteMappings[path]
	if !ok {
		return fmt.Errorf("no cassette registered for %s", path)
	}

	cassette, err := crc.loader.getCassette(cassetteName)
	if err != nil {
		return fmt.Errorf("failed to load cassette for %s: %w", path, err)
	}

	if err := json.Unmarshal(cassette, result); err != nil {
		return fmt.Errorf("failed to unmarshal cassette into result: %w", err)
	}
	return nil
}

func (crc *cassetteRestClient) PostForm(
	ctx context.Context,
	path string,
	form map[string]string,
	result any,
) error {
	return errors.New("cassettes only record GET requests")
}

func (crc *cassetteRestClient) BaseURL() string {
	return "https://mainnet.zklighter.elliot.ai"
}

// ===== Test Helpers =====

// loadCassettes loads the named cassettes and maps each one to the path
// it was recorded from. Uses testing.TB so it works with both *testing.T and
// *td.T via TB.
func loadCassettes(
	t testing.TB,
	cassettes map[string]string,
) *cassetteRestClient {
	loader := newCassetteLoader()
	client := newCassetteRestClient(loader)

	for path, name := range cassettes {
		data, err := loadCassetteFile(name)
		if err != nil {
			t.Fatalf("failed to load cassette file %s: %v", name, err)
		}
		if err := loader.loadCassette(name, data); err != nil {
			t.Fatalf("failed to load cassette %s: %v", name, err)
		}
		client.registerCassette(path, name)
	}

	return client
}

func loadCassetteFile(name string) ([]byte, error) {
	return os.ReadFile(fmt.Sprintf("cassettes/%s.json", name))
}

// ===== Suite definition =====

type InfoCassetteSuite struct{}

func TestInfoCassetteSuite(t *testing.T) {
	tdsuite.Run(t, &InfoCassetteSuite{})
}

func (s *InfoCassetteSuite) TestNextNonce(assert, require *td.T) {
	client := loadCassettes(require.TB, map[string]string{
		"/api/v1/nextNonce": "test_next_nonce",
	})
	info := NewWithClient(client)

	n, err := info.NextNonce(context.Background(), 65, 2)
	require.CmpNoError(err)
	assert.Cmp(n, int64(4821))
	assert.Cmp(client.requests, []map[string]string{
		{"account_index": "65", "api_key_index": "2"},
	})
}

func (s *InfoCassetteSuite) TestApiKeys(assert, require *td.T) {
	client := loadCassettes(require.TB, map[string]string{
		"/api/v1/apikeys": "test_api_keys",
	})
	info := NewWithClient(client)

	keys, err := info.ApiKeys(context.Background(), 65, 255)
	require.CmpNoError(err)
	require.Len(keys, 2)

	assert.Cmp(keys[0], td.Struct(ApiKey{
		AccountIndex: 65,
		ApiKeyIndex:  2,
		Nonce:        4821,
	}, td.StructFields{
		"PublicKey": td.HasPrefix("0x04f3b1c4"),
	}))
	assert.Cmp(keys[1].ApiKeyIndex, uint8(3))

	pub, err := info.PublicKey(context.Background(), 65, 3)
	require.CmpNoError(err)
	assert.Cmp(pub, keys[1].PublicKey)

	_, err = info.PublicKey(context.Background(), 65, 9)
	assert.CmpError(err)

	assert.Contains(keys[0].String(), "ApiKeyIndex:  2")
	assert.Contains(keys[0].String(), "0x04f3b1c4...")
}

func (s *InfoCassetteSuite) TestAccountNotFound(assert, require *td.T) {
	client := loadCassettes(require.TB, map[string]string{
		"/api/v1/nextNonce": "test_account_not_found",
		"/api/v1/apikeys":   "test_account_not_found",
	})
	info := NewWithClient(client)

	_, err := info.NextNonce(context.Background(), 65, 2)
	assert.Cmp(err, td.Contains("account not found"))

	_, err = info.ApiKeys(context.Background(), 65, 2)
	assert.Cmp(err, td.Contains("code 21100"))
}

func (s *InfoCassetteSuite) TestSyncFromCassette(assert, require *td.T) {
	client := loadCassettes(require.TB, map[string]string{
		"/api/v1/nextNonce": "test_next_nonce",
	})

	a, err := nonce.New(nonce.Config{StartIndex: 2, EndIndex: 3})
	require.CmpNoError(err)

	require.CmpNoError(a.Sync(context.Background(), NewWithClient(client), 65))
	for _, st := range a.Snapshot() {
		assert.Cmp(st.NextNonce, int64(4821))
	}
	assert.Len(client.requests, 2)
}
