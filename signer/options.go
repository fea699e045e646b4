package signer

import (
	"crypto/ecdsa"
	"time"

	"github.com/samber/mo"
)

// SignOption is a functional option for Sign
type SignOption func(*signConfig)

type signConfig struct {
	expiredAt mo.Option[int64]
	expiresIn time.Duration
	l1Key     mo.Option[*ecdsa.PrivateKey]
}

// WithExpiredAt pins the expiry (unix milliseconds) instead of deriving it
// from the signer clock
func WithExpiredAt(ms int64) SignOption {
	return func(cfg *signConfig) {
		cfg.expiredAt = mo.Some(ms)
	}
}

// WithExpiresIn sets the expiry relative to the signer clock
func WithExpiresIn(d time.Duration) SignOption {
	return func(cfg *signConfig) {
		cfg.expiredAt = mo.None[int64]()
		cfg.expiresIn = d
	}
}

// WithL1Key adds an L1Sig to tx_info, signed with the account's Ethereum
// key. Only params implementing types.L1Signable accept it.
func WithL1Key(key *ecdsa.PrivateKey) SignOption {
	return func(cfg *signConfig) {
		cfg.l1Key = mo.Some(key)
	}
}
