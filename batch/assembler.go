// Package batch groups signed transactions into a unit that is sent as one
// message.
package batch

import (
	"fmt"

	"github.com/banky/go-lighter/constants"
	"github.com/banky/go-lighter/types"
)

// Batch is an ordered list of transactions signed under one key with
// strictly increasing nonces. It is never modified after Assemble.
type Batch struct {
	txs []types.SignedTx
}

// Txs returns a copy of the transactions in send order.
func (b Batch) Txs() []types.SignedTx {
	out := make([]types.SignedTx, len(b.txs))
	copy(out, b.txs)
	return out
}

func (b Batch) Len() int {
	return len(b.txs)
}

func (b Batch) KeyIndex() uint8 {
	if len(b.txs) == 0 {
		return 0
	}
	return b.txs[0].KeyIndex
}

// Hashes returns the transaction hashes in send order.
func (b Batch) Hashes() []string {
	out := make([]string, len(b.txs))
	for i, tx := range b.txs {
		out[i] = tx.Hash
	}
	return out
}

type Assembler struct {
	maxSize int
}

// New returns an assembler accepting at most maxSize transactions per
// batch. A non-positive maxSize uses the exchange limit.
func New(maxSize int) *Assembler {
	if maxSize <= 0 || maxSize > constants.MaxBatchSize {
		maxSize = constants.MaxBatchSize
	}
	return &Assembler{maxSize: maxSize}
}

func (a *Assembler) MaxSize() int {
	return a.maxSize
}

// Assemble validates txs and returns them as a Batch. The input slice is
// copied and left untouched.
func (a *Assembler) Assemble(txs []types.SignedTx) (Batch, error) {
	if len(txs) == 0 {
		return Batch{}, types.ErrEmptyBatch
	}
	if len(txs) > a.maxSize {
		return Batch{}, fmt.Errorf(
			"%w: %d transactions, limit is %d",
			types.ErrBatchTooLarge,
			len(txs),
			a.maxSize,
		)
	}

	keyIndex := txs[0].KeyIndex
	for i := 1; i < len(txs); i++ {
		if txs[i].KeyIndex != keyIndex {
			return Batch{}, fmt.Errorf(
				"%w: position %d uses key %d, batch uses key %d",
				types.ErrMixedKeyIndex,
				i,
				txs[i].KeyIndex,
				keyIndex,
			)
		}
		if txs[i].Nonce <= txs[i-1].Nonce {
			return Batch{}, fmt.Errorf(
				"%w: nonce %d at position %d follows %d",
				types.ErrNonceOrderViolation,
				txs[i].Nonce,
				i,
				txs[i-1].Nonce,
			)
		}
	}

	out := make([]types.SignedTx, len(txs))
	copy(out, txs)
	return Batch{txs: out}, nil
}
