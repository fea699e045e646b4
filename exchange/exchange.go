package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banky/go-lighter/batch"
	"github.com/banky/go-lighter/constants"
	"github.com/banky/go-lighter/info"
	"github.com/banky/go-lighter/nonce"
	"github.com/banky/go-lighter/signer"
	"github.com/banky/go-lighter/transport"
	"github.com/banky/go-lighter/types"
	"github.com/banky/go-lighter/ws"
	"github.com/rs/zerolog"
)

// Config for initializing the Exchange client
type Config struct {
	BaseURL string
	Timeout time.Duration
	// ChainID defaults to the mainnet chain for the mainnet url and the
	// testnet chain otherwise
	ChainID      uint32
	AccountIndex int64

	// ApiKeyStart and ApiKeyEnd bound the pool of api keys, both inclusive
	ApiKeyStart uint8
	ApiKeyEnd   uint8
	// PrivateKeys maps api key indexes to hex private keys. Ignored when
	// Signer is set.
	PrivateKeys map[uint8]string
	Signer      signer.Signer

	// Transport overrides the transport chosen by UseStream
	Transport              transport.Transport
	UseStream              bool
	DisablePriceProtection bool
	MaxBatchSize           int

	// SkipNonceSync starts every key at nonce 0 instead of asking the
	// exchange
	SkipNonceSync bool
	// VerifyKeys compares the registered public keys with the signer's
	VerifyKeys bool

	Logger zerolog.Logger
	Now    func() time.Time
}

// Exchange submits signed transactions for one account
type Exchange struct {
	accountIndex int64
	info         *info.Info
	nonces       *nonce.Allocator
	signer       signer.Signer
	assembler    *batch.Assembler
	transport    transport.Transport
	verifyKeys   bool
	logger       zerolog.Logger
	now          func() time.Time
}

// New creates a new Exchange client. Unless SkipNonceSync is set, the nonce
// of every pool key is fetched from the exchange. With UseStream the stream
// connection is opened before New returns.
func New(ctx context.Context, cfg Config) (*Exchange, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = constants.MAINNET_API_URL
	}

	chainID := cfg.ChainID
	if chainID == 0 {
		chainID = constants.TESTNET_CHAIN_ID
		if baseURL == constants.MAINNET_API_URL {
			chainID = constants.MAINNET_CHAIN_ID
		}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	allocator, err := nonce.New(nonce.Config{
		StartIndex: cfg.ApiKeyStart,
		EndIndex:   cfg.ApiKeyEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create nonce allocator: %w", err)
	}

	txSigner := cfg.Signer
	if txSigner == nil {
		ks, err := signer.New(signer.Config{
			ChainID:      chainID,
			AccountIndex: cfg.AccountIndex,
			PrivateKeys:  cfg.PrivateKeys,
			Now:          now,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create signer: %w", err)
		}
		txSigner = ks
	}

	infoClient := info.New(info.Config{
		BaseURL: baseURL,
		Timeout: cfg.Timeout,
	})

	if !cfg.SkipNonceSync {
		if err := allocator.Sync(ctx, infoClient, cfg.AccountIndex); err != nil {
			return nil, fmt.Errorf("failed to sync nonces: %w", err)
		}
	}

	t := cfg.Transport
	if t == nil {
		if cfg.UseStream {
			client := ws.New(ws.Config{
				BaseURL: baseURL,
				Logger:  cfg.Logger,
			})
			if err := client.Start(ctx); err != nil {
				return nil, fmt.Errorf("failed to start stream: %w", err)
			}
			t = transport.NewStream(client)
		} else {
			t = transport.NewHTTP(transport.HTTPConfig{
				BaseURL:                baseURL,
				Timeout:                cfg.Timeout,
				DisablePriceProtection: cfg.DisablePriceProtection,
			})
		}
	}

	e := &Exchange{
		accountIndex: cfg.AccountIndex,
		info:         infoClient,
		nonces:       allocator,
		signer:       txSigner,
		assembler:    batch.New(cfg.MaxBatchSize),
		transport:    t,
		verifyKeys:   cfg.VerifyKeys,
		logger:       cfg.Logger,
		now:          now,
	}

	e.logger.Debug().
		Int64("account", cfg.AccountIndex).
		Uints8("keys", allocator.KeyIndexes()).
		Str("transport", t.Name()).
		Msg("exchange client created")

	return e, nil
}

// Close releases the transport
func (e *Exchange) Close() error {
	return e.transport.Close()
}

// CheckReady reports whether the client can submit transactions. With
// VerifyKeys set it also compares every pool key with the public key the
// exchange has on record.
func (e *Exchange) CheckReady(ctx context.Context) error {
	if err := e.localReady(); err != nil {
		return err
	}
	if !e.verifyKeys {
		return nil
	}

	for _, k := range e.nonces.KeyIndexes() {
		local, err := e.signer.PublicKey(k)
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrNotReady, err)
		}
		remote, err := e.info.PublicKey(ctx, e.accountIndex, k)
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrNotReady, err)
		}
		if !samePublicKey(local, remote) {
			return fmt.Errorf(
				"%w: api key %d does not match the registered public key",
				types.ErrNotReady,
				k,
			)
		}
	}
	return nil
}

// localReady runs the checks that need no network round trip
func (e *Exchange) localReady() error {
	if e.nonces.Size() == 0 {
		return fmt.Errorf("%w: empty api key pool", types.ErrNotReady)
	}

	held := make(map[uint8]bool)
	for _, k := range e.signer.KeyIndexes() {
		held[k] = true
	}
	for _, k := range e.nonces.KeyIndexes() {
		if !held[k] {
			return fmt.Errorf("%w: no signing key for api key %d", types.ErrNotReady, k)
		}
	}

	if e.transport == nil {
		return fmt.Errorf("%w: no transport", types.ErrNotReady)
	}
	if err := e.transport.Ready(); err != nil {
		if errors.Is(err, types.ErrNotReady) {
			return err
		}
		return fmt.Errorf("%w: %v", types.ErrNotReady, err)
	}
	return nil
}

// NonceState returns the state of every api key slot
func (e *Exchange) NonceState() []nonce.SlotState {
	return e.nonces.Snapshot()
}

/*//////////////////////////////////////////////////////////////
                       MANUAL BATCHES
//////////////////////////////////////////////////////////////*/

// NextNonce hands out a ticket. Without WithKeyIndex a fresh key is
// allocated and stays in use until Release.
func (e *Exchange) NextNonce(opts ...TxOption) (nonce.Ticket, error) {
	cfg := applyTxOptions(opts)
	return e.nonces.Next(cfg.keyIndex)
}

// Sign signs params under ticket. A ticket is consumed even when signing
// fails.
func (e *Exchange) Sign(
	params types.TxParams,
	ticket nonce.Ticket,
	opts ...TxOption,
) (types.SignedTx, error) {
	cfg := applyTxOptions(opts)
	return e.signer.Sign(params, ticket, cfg.signOptions()...)
}

// SendBatch assembles txs into one batch and sends it. Validation failures
// are returned before anything is sent; delivery outcomes are reported per
// transaction in input order.
func (e *Exchange) SendBatch(
	ctx context.Context,
	txs []types.SignedTx,
) ([]types.Result, error) {
	if err := e.localReady(); err != nil {
		return nil, err
	}

	b, err := e.assembler.Assemble(txs)
	if err != nil {
		return nil, err
	}

	results := e.transport.SendBatch(ctx, b)
	e.logResults(b.KeyIndex(), b.Txs(), results)
	return results, nil
}

// Release frees a key handed out by a fresh allocation
func (e *Exchange) Release(keyIndex uint8) error {
	return e.nonces.Release(keyIndex)
}

/*//////////////////////////////////////////////////////////////
                        SINGLE TRANSACTIONS
//////////////////////////////////////////////////////////////*/

// submit runs the single transaction flow: ticket, sign, send. A fresh key
// is released afterwards unless WithHoldKey is given.
func (e *Exchange) submit(
	ctx context.Context,
	params types.TxParams,
	opts []TxOption,
) (types.SignedTx, types.Result, error) {
	cfg := applyTxOptions(opts)

	if err := e.localReady(); err != nil {
		return notSubmitted(err)
	}

	ticket, err := e.nonces.Next(cfg.keyIndex)
	if err != nil {
		return notSubmitted(err)
	}
	if cfg.keyIndex.IsAbsent() && !cfg.holdKey {
		defer func() {
			if err := e.nonces.Release(ticket.KeyIndex); err != nil {
				e.logger.Error().Err(err).Uint8("key", ticket.KeyIndex).Msg("release failed")
			}
		}()
	}

	tx, err := e.signer.Sign(params, ticket, cfg.signOptions()...)
	if err != nil {
		// The nonce is spent; the exchange will see a gap on this key
		e.logger.Warn().
			Err(err).
			Stringer("ticket", ticket).
			Msg("signing failed, nonce consumed")
		return notSubmitted(err)
	}

	res := e.transport.SendSingle(ctx, tx)
	e.logResults(tx.KeyIndex, []types.SignedTx{tx}, []types.Result{res})

	return tx, res, nil
}

// notSubmitted is the return of a single op that failed before reaching the
// transport
func notSubmitted(err error) (types.SignedTx, types.Result, error) {
	return types.SignedTx{}, types.NotSubmitted(err), err
}

func (e *Exchange) logResults(
	keyIndex uint8,
	txs []types.SignedTx,
	results []types.Result,
) {
	for i, r := range results {
		ev := e.logger.Debug()
		if !r.IsAccepted() {
			ev = e.logger.Warn()
		}
		ev.Str("transport", e.transport.Name()).
			Uint8("key", keyIndex).
			Int64("nonce", txs[i].Nonce).
			Uint8("tx_type", txs[i].Type).
			Str("tx_hash", r.TxHash).
			Str("status", r.Status.String()).
			Int64("code", r.Code).
			Str("reason", r.Reason).
			Msg("transaction submitted")
	}
}
