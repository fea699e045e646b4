package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/banky/go-lighter/types"
	"github.com/banky/go-lighter/ws"
	"github.com/maxatome/go-testdeep/td"
)

// Mock stream client for testing
type mockStreamClient struct {
	sendTxFunc      func(ctx context.Context, tx types.SignedTx) (ws.Response, error)
	sendTxBatchFunc func(ctx context.Context, txs []types.SignedTx) (ws.Response, error)
	readyErr        error
	stopped         bool
}

var _ ws.ClientInterface = (*mockStreamClient)(nil)

func (m *mockStreamClient) Start(ctx context.Context) error { return nil }
func (m *mockStreamClient) Stop()                          { m.stopped = true }
func (m *mockStreamClient) Ready() error                   { return m.readyErr }

func (m *mockStreamClient) SendTx(ctx context.Context, tx types.SignedTx) (ws.Response, error) {
	return m.sendTxFunc(ctx, tx)
}

func (m *mockStreamClient) SendTxBatch(ctx context.Context, txs []types.SignedTx) (ws.Response, error) {
	return m.sendTxBatchFunc(ctx, txs)
}

func TestStreamSendSingle(t *testing.T) {
	tests := []struct {
		name string
		resp ws.Response
		err  error
		want types.Result
	}{
		{
			name: "accepted",
			resp: ws.Response{Code: 200},
			want: types.Accepted("0xhash1"),
		},
		{
			name: "rejected",
			resp: ws.Response{Code: 21104, Message: "invalid nonce"},
			want: types.Rejected("0xhash1", 21104, "invalid nonce"),
		},
		{
			name: "not sent",
			err:  types.NotSent("stream closed", nil),
			want: types.Failed("0xhash1", types.NotSent("stream closed", nil)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockStreamClient{
				sendTxFunc: func(ctx context.Context, tx types.SignedTx) (ws.Response, error) {
					return tt.resp, tt.err
				},
			}
			res := NewStream(mock).SendSingle(context.Background(), testTx(14, 1))
			td.Cmp(t, res, tt.want)
		})
	}
}

func TestStreamUntypedErrorIsUnknown(t *testing.T) {
	mock := &mockStreamClient{
		sendTxFunc: func(ctx context.Context, tx types.SignedTx) (ws.Response, error) {
			return ws.Response{}, errors.New("boom")
		},
	}
	res := NewStream(mock).SendSingle(context.Background(), testTx(14, 1))
	td.Cmp(t, res.Delivery, types.DeliveryUnknown)
	td.Cmp(t, res.Status, types.StatusTransportFailure)
}

func TestStreamSendBatch(t *testing.T) {
	var sent []types.SignedTx
	mock := &mockStreamClient{
		sendTxBatchFunc: func(ctx context.Context, txs []types.SignedTx) (ws.Response, error) {
			sent = txs
			return ws.Response{}, types.Unknown("connection lost", nil)
		},
	}

	b := testBatch(td.NewT(t), testTx(15, 11), testTx(14, 12))
	results := NewStream(mock).SendBatch(context.Background(), b)

	td.Cmp(t, sent, b.Txs())
	td.Cmp(t, results, td.Len(2))
	for i, r := range results {
		td.Cmp(t, r.TxHash, b.Hashes()[i])
		td.Cmp(t, r.Delivery, types.DeliveryUnknown)
		td.CmpTrue(t, types.NeedsReconciliation(r.Err()))
	}
}

func TestStreamReadyAndClose(t *testing.T) {
	mock := &mockStreamClient{readyErr: types.ErrNotReady}
	s := NewStream(mock)

	td.CmpErrorIs(t, s.Ready(), types.ErrNotReady)
	td.CmpNoError(t, s.Close())
	td.CmpTrue(t, mock.stopped)
}
