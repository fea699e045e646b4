package transport

import (
	"context"
	"errors"

	"github.com/banky/go-lighter/batch"
	"github.com/banky/go-lighter/internal/metrics"
	"github.com/banky/go-lighter/types"
	"github.com/banky/go-lighter/ws"
)

// Stream submits transactions over one persistent stream connection
type Stream struct {
	client ws.ClientInterface
}

var _ Transport = (*Stream)(nil)

// NewStream wraps a started stream client
func NewStream(client ws.ClientInterface) *Stream {
	return &Stream{client: client}
}

func (s *Stream) Name() string { return "stream" }

func (s *Stream) Ready() error { return s.client.Ready() }

func (s *Stream) Close() error {
	s.client.Stop()
	return nil
}

func (s *Stream) SendSingle(ctx context.Context, tx types.SignedTx) types.Result {
	resp, err := s.client.SendTx(ctx, tx)
	results := streamResults([]string{tx.Hash}, resp, err)
	record(s.Name(), results)
	return results[0]
}

func (s *Stream) SendBatch(ctx context.Context, b batch.Batch) []types.Result {
	metrics.BatchSent(b.Len())
	resp, err := s.client.SendTxBatch(ctx, b.Txs())
	results := streamResults(b.Hashes(), resp, err)
	record(s.Name(), results)
	return results
}

func streamResults(hashes []string, resp ws.Response, err error) []types.Result {
	if err == nil {
		return resultsFor(hashes, ack{code: resp.Code, message: resp.Message})
	}

	var te *types.TransportError
	if !errors.As(err, &te) {
		te = types.Unknown("stream request failed", err)
	}
	return types.FailAll(hashes, te)
}
