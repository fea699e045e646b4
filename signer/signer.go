// Package signer produces signed Lighter transactions from tx params and a
// nonce ticket.
//
// KeySigner is a reference signer: it hashes the msgpack encoding of the tx
// header and params with keccak256 and signs with secp256k1. The exchange
// verifies its own signature scheme, so tx_info produced here is for local
// pipelines and tests. Plug a production signer in through the Signer
// interface.
package signer

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/banky/go-lighter/constants"
	"github.com/banky/go-lighter/nonce"
	"github.com/banky/go-lighter/types"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vmihailenco/msgpack/v5"
)

// Signer turns params and a ticket into a SignedTx. Implementations must be
// deterministic for identical inputs and options.
type Signer interface {
	Sign(
		params types.TxParams,
		ticket nonce.Ticket,
		opts ...SignOption,
	) (types.SignedTx, error)
	KeyIndexes() []uint8
	PublicKey(keyIndex uint8) (string, error)
}

type Config struct {
	ChainID      uint32
	AccountIndex int64
	// PrivateKeys maps an api key index to a hex encoded secp256k1 key
	PrivateKeys map[uint8]string
	// Now defaults to time.Now
	Now func() time.Time
}

// KeySigner signs with one secp256k1 key per api key index
type KeySigner struct {
	chainID      uint32
	accountIndex int64
	keys         map[uint8]*ecdsa.PrivateKey
	now          func() time.Time
}

var _ Signer = (*KeySigner)(nil)

func New(cfg Config) (*KeySigner, error) {
	if len(cfg.PrivateKeys) == 0 {
		return nil, fmt.Errorf("at least one private key is required")
	}

	keys := make(map[uint8]*ecdsa.PrivateKey, len(cfg.PrivateKeys))
	for idx, raw := range cfg.PrivateKeys {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(raw, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key for api key %d: %w", idx, err)
		}
		keys[idx] = key
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &KeySigner{
		chainID:      cfg.ChainID,
		accountIndex: cfg.AccountIndex,
		keys:         keys,
		now:          now,
	}, nil
}

// KeyIndexes returns the api key indexes this signer holds keys for, in
// ascending order.
func (s *KeySigner) KeyIndexes() []uint8 {
	out := make([]uint8, 0, len(s.keys))
	for idx := range s.keys {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PublicKey returns the 0x prefixed uncompressed public key of a key index.
func (s *KeySigner) PublicKey(keyIndex uint8) (string, error) {
	key, ok := s.keys[keyIndex]
	if !ok {
		return "", fmt.Errorf("%w: no key for api key %d", types.ErrSigning, keyIndex)
	}
	return hexutil.Encode(crypto.FromECDSAPub(&key.PublicKey)), nil
}

func (s *KeySigner) Sign(
	params types.TxParams,
	ticket nonce.Ticket,
	opts ...SignOption,
) (types.SignedTx, error) {
	cfg := signConfig{expiresIn: constants.DefaultTxExpiry}
	for _, opt := range opts {
		opt(&cfg)
	}

	key, ok := s.keys[ticket.KeyIndex]
	if !ok {
		return types.SignedTx{}, fmt.Errorf(
			"%w: no key for api key %d",
			types.ErrSigning,
			ticket.KeyIndex,
		)
	}
	if params == nil {
		return types.SignedTx{}, fmt.Errorf("%w: params are required", types.ErrSigning)
	}
	if err := params.Validate(); err != nil {
		return types.SignedTx{}, fmt.Errorf("%w: %w", types.ErrSigning, err)
	}

	expiredAt := cfg.expiredAt.OrElse(s.now().Add(cfg.expiresIn).UnixMilli())

	var l1Sig string
	if l1Key, ok := cfg.l1Key.Get(); ok {
		signable, ok := params.(types.L1Signable)
		if !ok {
			return types.SignedTx{}, fmt.Errorf(
				"%w: tx type %d does not take an L1 signature",
				types.ErrSigning,
				params.TxType(),
			)
		}
		msg := signable.L1Message(s.chainID, s.accountIndex, ticket.KeyIndex, ticket.Nonce)
		sigHex, err := signL1(msg, l1Key)
		if err != nil {
			return types.SignedTx{}, fmt.Errorf("%w: %w", types.ErrSigning, err)
		}
		l1Sig = sigHex
	}

	hash, err := s.hashTx(params, ticket, expiredAt)
	if err != nil {
		return types.SignedTx{}, fmt.Errorf("%w: %w", types.ErrSigning, err)
	}

	sig, err := signHash(hash, key)
	if err != nil {
		return types.SignedTx{}, fmt.Errorf("%w: %w", types.ErrSigning, err)
	}

	info, err := s.txInfo(params, ticket, expiredAt, sig, l1Sig)
	if err != nil {
		return types.SignedTx{}, fmt.Errorf("%w: %w", types.ErrSigning, err)
	}

	return types.SignedTx{
		Type:     params.TxType(),
		Info:     info,
		Hash:     hash.Hex(),
		KeyIndex: ticket.KeyIndex,
		Nonce:    ticket.Nonce,
	}, nil
}

// hashTx creates a Keccak256 hash over the msgpack encoding of the
// transaction header followed by its params
func (s *KeySigner) hashTx(
	params types.TxParams,
	ticket nonce.Ticket,
	expiredAt int64,
) (common.Hash, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")

	err := enc.Encode([]any{
		s.chainID,
		params.TxType(),
		s.accountIndex,
		ticket.KeyIndex,
		ticket.Nonce,
		expiredAt,
		params,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to marshal tx: %w", err)
	}

	return crypto.Keccak256Hash(buf.Bytes()), nil
}

// signHash signs a hash using the private key and returns
// a signature
func signHash(hash common.Hash, key *ecdsa.PrivateKey) (signature, error) {
	sig, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		return signature{}, fmt.Errorf("failed to sign: %w", err)
	}
	return signatureFromBytes(sig)
}

// signL1 signs msg as an Ethereum personal message with the account's L1
// key. V is 27 or 28 as wallets produce it.
func signL1(msg string, key *ecdsa.PrivateKey) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash([]byte(msg)), key)
	if err != nil {
		return "", fmt.Errorf("failed to sign L1 message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// txInfo renders the tx_info JSON: the params fields plus the header fields
// and signature.
func (s *KeySigner) txInfo(
	params types.TxParams,
	ticket nonce.Ticket,
	expiredAt int64,
	sig signature,
	l1Sig string,
) ([]byte, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal params: %w", err)
	}

	header := map[string]any{
		"AccountIndex": s.accountIndex,
		"ApiKeyIndex":  ticket.KeyIndex,
		"Nonce":        ticket.Nonce,
		"ExpiredAt":    expiredAt,
		"Sig":          sig.Hex(),
	}
	if l1Sig != "" {
		header["L1Sig"] = l1Sig
	}
	for name, v := range header {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s: %w", name, err)
		}
		fields[name] = b
	}

	return json.Marshal(fields)
}
