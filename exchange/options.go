package exchange

import (
	"crypto/ecdsa"
	"time"

	"github.com/banky/go-lighter/signer"
	"github.com/samber/mo"
)

/*//////////////////////////////////////////////////////////////
                          TRANSACTION
//////////////////////////////////////////////////////////////*/

// TxOption is a functional option for transaction operations
type TxOption func(*txConfig)

type txConfig struct {
	keyIndex  mo.Option[uint8]
	holdKey   bool
	expiredAt mo.Option[int64]
	expiresIn mo.Option[time.Duration]
	l1Key     mo.Option[*ecdsa.PrivateKey]
}

func applyTxOptions(opts []TxOption) txConfig {
	var cfg txConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c txConfig) signOptions() []signer.SignOption {
	var out []signer.SignOption
	if d, ok := c.expiresIn.Get(); ok {
		out = append(out, signer.WithExpiresIn(d))
	}
	if ms, ok := c.expiredAt.Get(); ok {
		out = append(out, signer.WithExpiredAt(ms))
	}
	if key, ok := c.l1Key.Get(); ok {
		out = append(out, signer.WithL1Key(key))
	}
	return out
}

// WithKeyIndex continues on an api key previously handed out by a fresh
// allocation instead of picking a new one
func WithKeyIndex(keyIndex uint8) TxOption {
	return func(cfg *txConfig) {
		cfg.keyIndex = mo.Some(keyIndex)
	}
}

// WithHoldKey keeps a freshly allocated key in use after the operation.
// The caller releases it with Exchange.Release.
func WithHoldKey() TxOption {
	return func(cfg *txConfig) {
		cfg.holdKey = true
	}
}

// WithExpiredAt pins the transaction expiry (unix milliseconds)
func WithExpiredAt(ms int64) TxOption {
	return func(cfg *txConfig) {
		cfg.expiredAt = mo.Some(ms)
	}
}

// WithExpiresIn sets the transaction expiry relative to signing time
func WithExpiresIn(d time.Duration) TxOption {
	return func(cfg *txConfig) {
		cfg.expiresIn = mo.Some(d)
	}
}

// withL1Key attaches an L1 signature, set by Transfer from its request
func withL1Key(key *ecdsa.PrivateKey) TxOption {
	return func(cfg *txConfig) {
		cfg.l1Key = mo.Some(key)
	}
}
