// Package ws implements the transaction side of the Lighter stream API: one
// persistent connection carrying sendtx and sendtxbatch requests and their
// acknowledgements.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banky/go-lighter/constants"
	"github.com/banky/go-lighter/types"
	"github.com/coder/websocket"
	cmap "github.com/orcaman/concurrent-map"
	"github.com/rs/zerolog"
)

const (
	defaultPingInterval     = 30 * time.Second
	defaultHandshakeTimeout = 10 * time.Second

	// maxRetired bounds how many completed request ids and hashes are
	// remembered to recognise late acks
	maxRetired = 4096
)

// ClientInterface defines the contract for stream transaction submission
type ClientInterface interface {
	Start(ctx context.Context) error
	Stop()
	Ready() error
	SendTx(ctx context.Context, tx types.SignedTx) (Response, error)
	SendTxBatch(ctx context.Context, txs []types.SignedTx) (Response, error)
}

type Config struct {
	// BaseURL is the http(s) API url. The stream path is appended.
	BaseURL string
	// PingInterval defaults to 30s
	PingInterval time.Duration
	// HandshakeTimeout bounds the wait for the connected greeting
	HandshakeTimeout time.Duration
	Logger           zerolog.Logger
}

// Client manages one stream connection
type Client struct {
	baseURL          string
	pingInterval     time.Duration
	handshakeTimeout time.Duration
	logger           zerolog.Logger

	conn     *websocket.Conn
	ready    bool
	closed   bool
	closeErr error

	// writeMu serialises frames so a batch is never interleaved
	writeMu sync.Mutex
	// mu guards conn state and the pending queue
	mu      sync.Mutex
	pending []*request
	byID    cmap.ConcurrentMap
	byHash  cmap.ConcurrentMap
	nextID  atomic.Uint64

	// retired holds ids and hashes of completed requests so their late acks
	// are dropped instead of being matched to another request
	retired      cmap.ConcurrentMap
	retiredOrder []string

	stopChan chan struct{}
	stopOnce sync.Once
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

var _ ClientInterface = (*Client)(nil)

type request struct {
	id     string
	hashes []string
	done   chan outcome
	// abandoned requests gave up waiting but stay queued until their ack
	// arrives, guarded by Client.mu
	abandoned bool
}

type outcome struct {
	resp Response
	err  *types.TransportError
}

// New creates a new stream client. Start must be called before sending.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = constants.MAINNET_API_URL
	}
	pingInterval := cfg.PingInterval
	if pingInterval == 0 {
		pingInterval = defaultPingInterval
	}
	handshakeTimeout := cfg.HandshakeTimeout
	if handshakeTimeout == 0 {
		handshakeTimeout = defaultHandshakeTimeout
	}

	return &Client{
		baseURL:          baseURL,
		pingInterval:     pingInterval,
		handshakeTimeout: handshakeTimeout,
		logger:           cfg.Logger,
		byID:             cmap.New(),
		byHash:           cmap.New(),
		retired:          cmap.New(),
		stopChan:         make(chan struct{}),
	}
}

func streamURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL %q: %w", baseURL, err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	// make sure we append the stream path correctly, without double slashes
	u.Path = path.Join("/", u.Path, constants.STREAM_PATH)

	return u.String(), nil
}

// Start dials the stream, waits for the connected greeting and starts the
// read/ping loops
func (c *Client) Start(ctx context.Context) error {
	wsURL, err := streamURL(c.baseURL)
	if err != nil {
		return err
	}

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to websocket: %w", err)
	}
	// Batches of signed transactions exceed the default read limit
	conn.SetReadLimit(1 << 20)

	if err := c.awaitGreeting(ctx, conn); err != nil {
		conn.Close(websocket.StatusPolicyViolation, "no greeting")
		return err
	}

	loopCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.conn = conn
	c.ready = true
	c.cancel = cancel
	c.mu.Unlock()

	c.logger.Debug().Str("url", wsURL).Msg("websocket connection established")

	c.wg.Add(2)
	go c.readLoop(loopCtx)
	go c.pingLoop(loopCtx)

	return nil
}

func (c *Client) awaitGreeting(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithTimeout(ctx, c.handshakeTimeout)
	defer cancel()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("failed waiting for connected message: %w", err)
		}

		var msg incoming
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("invalid greeting: %w", err)
		}
		if msg.Type == typeConnected {
			return nil
		}
	}
}

// Stop closes the WebSocket connection and cleans up. Requests still
// waiting for an ack fail with an unknown delivery.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)

		c.mu.Lock()
		conn := c.conn
		cancel := c.cancel
		c.mu.Unlock()

		c.shutdown(errors.New("client stopped"))

		if cancel != nil {
			cancel()
		}
		if conn != nil {
			conn.Close(websocket.StatusNormalClosure, "closing")
		}

		c.wg.Wait()
	})
}

// Ready returns nil when the connection is open and greeted
func (c *Client) Ready() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		if c.closeErr != nil {
			return fmt.Errorf("%w: stream closed: %v", types.ErrNotReady, c.closeErr)
		}
		return fmt.Errorf("%w: stream closed", types.ErrNotReady)
	}
	if !c.ready {
		return fmt.Errorf("%w: stream not started", types.ErrNotReady)
	}
	return nil
}

// SendTx submits one signed transaction and waits for its ack
func (c *Client) SendTx(ctx context.Context, tx types.SignedTx) (Response, error) {
	id := c.newID()
	msg := outgoing{
		Type: typeSendTx,
		Data: sendTxData{
			ID:     id,
			TxType: tx.Type,
			TxInfo: tx.Info,
		},
	}
	return c.roundTrip(ctx, id, []string{tx.Hash}, msg)
}

// SendTxBatch submits txs as one frame and waits for the single ack
// covering all of them
func (c *Client) SendTxBatch(ctx context.Context, txs []types.SignedTx) (Response, error) {
	id := c.newID()
	data := sendTxBatchData{
		ID:      id,
		TxTypes: make([]int, len(txs)),
		TxInfos: make([]json.RawMessage, len(txs)),
	}
	hashes := make([]string, len(txs))
	for i, tx := range txs {
		data.TxTypes[i] = int(tx.Type)
		data.TxInfos[i] = tx.Info
		hashes[i] = tx.Hash
	}
	return c.roundTrip(ctx, id, hashes, outgoing{Type: typeSendTxBatch, Data: data})
}

func (c *Client) newID() string {
	return strconv.FormatUint(c.nextID.Add(1), 10)
}

// roundTrip writes msg and blocks until it is acknowledged, the connection
// fails or ctx ends. Any returned error is a *types.TransportError.
func (c *Client) roundTrip(
	ctx context.Context,
	id string,
	hashes []string,
	msg outgoing,
) (Response, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return Response{}, types.NotSent("failed to encode request", err)
	}

	req := &request{id: id, hashes: hashes, done: make(chan outcome, 1)}

	c.writeMu.Lock()
	if err := ctx.Err(); err != nil {
		c.writeMu.Unlock()
		return Response{}, types.NotSent("context done before send", err)
	}

	conn, err := c.enqueue(req)
	if err != nil {
		c.writeMu.Unlock()
		return Response{}, err
	}

	err = conn.Write(ctx, websocket.MessageText, data)
	c.writeMu.Unlock()

	if err != nil {
		// A partially written frame may still reach the exchange
		c.resolve(req, outcome{err: types.Unknown("write failed", err)})
	}

	select {
	case out := <-req.done:
		if out.err != nil {
			return Response{}, out.err
		}
		return out.resp, nil
	case <-ctx.Done():
		te := types.Unknown("no acknowledgement before deadline", ctx.Err())
		if c.abandon(req, outcome{err: te}) {
			return Response{}, te
		}
		// Resolved concurrently
		out := <-req.done
		if out.err != nil {
			return Response{}, out.err
		}
		return out.resp, nil
	}
}

// enqueue registers req as in flight and returns the connection to write on
func (c *Client) enqueue(req *request) (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, types.NotSent("stream closed", c.closeErr)
	}
	if !c.ready || c.conn == nil {
		return nil, types.NotSent("stream not started", nil)
	}

	c.pending = append(c.pending, req)
	c.byID.Set(req.id, req)
	for _, h := range req.hashes {
		c.byHash.Set(h, req)
	}
	return c.conn, nil
}

// resolve removes req from the in-flight set and completes it with out.
// It reports false when req was already completed or abandoned, in which
// case out is discarded.
func (c *Client) resolve(req *request, out outcome) bool {
	c.mu.Lock()
	if !c.removeLocked(req) {
		c.mu.Unlock()
		return false
	}
	abandoned := req.abandoned
	c.mu.Unlock()

	if abandoned {
		return false
	}
	req.done <- out
	return true
}

// abandon completes req with out but keeps it queued, so the ack the
// exchange may still send is absorbed by req and not by a later request.
func (c *Client) abandon(req *request, out outcome) bool {
	c.mu.Lock()
	if req.abandoned || c.indexLocked(req) < 0 {
		c.mu.Unlock()
		return false
	}
	req.abandoned = true
	c.mu.Unlock()

	req.done <- out
	return true
}

// pruneAbandonedBefore drops abandoned requests queued ahead of req. The
// exchange acks in arrival order, so their acks are overdue.
func (c *Client) pruneAbandonedBefore(req *request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexLocked(req)
	for i := idx - 1; i >= 0; i-- {
		if p := c.pending[i]; p.abandoned {
			c.removeLocked(p)
		}
	}
}

func (c *Client) indexLocked(req *request) int {
	for i, p := range c.pending {
		if p == req {
			return i
		}
	}
	return -1
}

func (c *Client) removeLocked(req *request) bool {
	idx := c.indexLocked(req)
	if idx < 0 {
		return false
	}
	c.pending = append(c.pending[:idx], c.pending[idx+1:]...)
	c.byID.Remove(req.id)
	c.retireLocked(retiredIDKey(req.id))
	for _, h := range req.hashes {
		c.byHash.Remove(h)
		c.retireLocked(retiredHashKey(h))
	}
	return true
}

func (c *Client) retireLocked(key string) {
	c.retired.Set(key, struct{}{})
	c.retiredOrder = append(c.retiredOrder, key)
	if len(c.retiredOrder) > maxRetired {
		c.retired.Remove(c.retiredOrder[0])
		c.retiredOrder = c.retiredOrder[1:]
	}
}

func retiredIDKey(id string) string  { return "id:" + id }
func retiredHashKey(h string) string { return "hash:" + h }

// shutdown marks the client closed and fails every in-flight request
func (c *Client) shutdown(cause error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.closeErr = cause
	inflight := make([]*request, len(c.pending))
	copy(inflight, c.pending)
	c.mu.Unlock()

	if len(inflight) > 0 {
		c.logger.Warn().
			Err(cause).
			Int("inflight", len(inflight)).
			Msg("stream closed with unacknowledged requests")
	}

	for _, req := range inflight {
		c.resolve(req, outcome{err: types.Unknown("connection lost", cause)})
	}
}

// readLoop handles incoming messages from the WebSocket
func (c *Client) readLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()

		_, data, err := conn.Read(ctx)
		if err != nil {
			c.shutdown(err)

			select {
			case <-c.stopChan:
				return
			default:
			}

			// Normal closure or context cancellation - exit gracefully
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				errors.Is(err, context.Canceled) {
				return
			}
			c.logger.Error().Err(err).Msg("websocket read error")
			return
		}

		c.handleMessage(ctx, conn, data)
	}
}

// pingLoop sends periodic pings to keep the connection alive
func (c *Client) pingLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			conn, closed := c.conn, c.closed
			c.mu.Unlock()

			if closed {
				return
			}

			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pingCtx)
			cancel()

			if err != nil {
				c.logger.Warn().Err(err).Msg("websocket ping error")
				return
			}
		}
	}
}
