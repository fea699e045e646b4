// Package transport delivers signed transactions to the exchange and maps
// every outcome onto a types.Result.
package transport

import (
	"context"

	"github.com/banky/go-lighter/batch"
	"github.com/banky/go-lighter/constants"
	"github.com/banky/go-lighter/internal/metrics"
	"github.com/banky/go-lighter/types"
)

// Transport sends signed transactions. Implementations never return a Go
// error for a submission: every failure is reported in the results, one per
// transaction and in input order.
type Transport interface {
	Name() string
	SendSingle(ctx context.Context, tx types.SignedTx) types.Result
	SendBatch(ctx context.Context, b batch.Batch) []types.Result
	Ready() error
	Close() error
}

// ack is the exchange verdict common to both transports
type ack struct {
	code    int64
	message string
}

// resultsFor converts one verdict covering hashes into per-tx results.
// Batches are accepted or rejected as a unit.
func resultsFor(hashes []string, a ack) []types.Result {
	if a.code == constants.CodeOK {
		out := make([]types.Result, len(hashes))
		for i, h := range hashes {
			out[i] = types.Accepted(h)
		}
		return out
	}
	return types.RejectAll(hashes, a.code, a.message)
}

func record(name string, results []types.Result) {
	for _, r := range results {
		metrics.Submitted(name, r.Status.String())
	}
}
