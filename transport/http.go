package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/banky/go-lighter/batch"
	"github.com/banky/go-lighter/internal/metrics"
	"github.com/banky/go-lighter/rest"
	"github.com/banky/go-lighter/types"
)

type HTTPConfig struct {
	BaseURL string
	Timeout time.Duration
	// Client overrides the REST client built from BaseURL and Timeout
	Client rest.ClientInterface
	// DisablePriceProtection turns off the exchange's fat finger check on
	// single transactions
	DisablePriceProtection bool
}

// HTTP submits transactions with the sendTx and sendTxBatch endpoints
type HTTP struct {
	rest            rest.ClientInterface
	priceProtection bool
}

var _ Transport = (*HTTP)(nil)

type sendTxResponse struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	TxHash  any    `json:"tx_hash"`
}

func NewHTTP(cfg HTTPConfig) *HTTP {
	client := cfg.Client
	if client == nil {
		client = rest.New(rest.Config{BaseUrl: cfg.BaseURL, Timeout: cfg.Timeout})
	}
	return &HTTP{
		rest:            client,
		priceProtection: !cfg.DisablePriceProtection,
	}
}

func (h *HTTP) Name() string { return "http" }

// Ready always succeeds: every request opens its own connection
func (h *HTTP) Ready() error { return nil }

func (h *HTTP) Close() error { return nil }

func (h *HTTP) SendSingle(ctx context.Context, tx types.SignedTx) types.Result {
	form := map[string]string{
		"tx_type":          strconv.Itoa(int(tx.Type)),
		"tx_info":          string(tx.Info),
		"price_protection": strconv.FormatBool(h.priceProtection),
	}

	results := h.send(ctx, "/api/v1/sendTx", form, []string{tx.Hash})
	record(h.Name(), results)
	return results[0]
}

func (h *HTTP) SendBatch(ctx context.Context, b batch.Batch) []types.Result {
	txs := b.Txs()
	txTypes := make([]int, len(txs))
	txInfos := make([]string, len(txs))
	for i, tx := range txs {
		txTypes[i] = int(tx.Type)
		txInfos[i] = string(tx.Info)
	}

	typesJSON, err := json.Marshal(txTypes)
	if err != nil {
		return types.FailAll(b.Hashes(), types.NotSent("failed to encode tx types", err))
	}
	infosJSON, err := json.Marshal(txInfos)
	if err != nil {
		return types.FailAll(b.Hashes(), types.NotSent("failed to encode tx infos", err))
	}

	form := map[string]string{
		"tx_types": string(typesJSON),
		"tx_infos": string(infosJSON),
	}

	metrics.BatchSent(b.Len())
	results := h.send(ctx, "/api/v1/sendTxBatch", form, b.Hashes())
	record(h.Name(), results)
	return results
}

func (h *HTTP) send(
	ctx context.Context,
	path string,
	form map[string]string,
	hashes []string,
) []types.Result {
	if err := ctx.Err(); err != nil {
		return types.FailAll(hashes, types.NotSent("context done before send", err))
	}

	var resp sendTxResponse
	err := h.rest.PostForm(ctx, path, form, &resp)
	if err == nil {
		return resultsFor(hashes, ack{code: resp.Code, message: resp.Message})
	}

	var clientErr *rest.ClientError
	if errors.As(err, &clientErr) {
		return types.RejectAll(hashes, clientErr.Code, clientErr.Msg)
	}

	return types.FailAll(hashes, classifyHTTPError(err))
}

// classifyHTTPError decides whether a failed request could have reached the
// exchange. Only failures to connect prove it did not.
func classifyHTTPError(err error) *types.TransportError {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return types.NotSent("connection failed", err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return types.NotSent("host lookup failed", err)
	}

	var serverErr *rest.ServerError
	if errors.As(err, &serverErr) {
		return types.Unknown("server error", err)
	}
	var decodeErr *rest.DecodeError
	if errors.As(err, &decodeErr) {
		return types.Unknown("unreadable response", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return types.Unknown("no response before deadline", err)
	}

	return types.Unknown("request failed", err)
}
