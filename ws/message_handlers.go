package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
)

// handleMessage processes an incoming WebSocket message and routes acks to
// the request waiting for them
func (c *Client) handleMessage(ctx context.Context, conn *websocket.Conn, data []byte) {
	var msg incoming
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn().Err(err).Msg("failed to unmarshal ws message")
		return
	}

	switch msg.Type {
	case typeConnected:
		return
	case typePing:
		c.handlePing(ctx, conn)
		return
	case typePong:
		return
	}

	if !msg.isAck() {
		c.logger.Debug().Str("type", msg.Type).Msg("websocket unhandled message")
		return
	}

	resp := msg.response()
	req, late := c.match(resp)
	if req == nil {
		if late {
			c.logger.Warn().
				Str("id", resp.ID).
				Strs("tx_hash", resp.TxHashes).
				Msg("late websocket ack dropped")
			return
		}
		c.logger.Warn().
			Str("id", resp.ID).
			Strs("tx_hash", resp.TxHashes).
			Msg("websocket ack for unknown request")
		return
	}

	c.pruneAbandonedBefore(req)
	if !c.resolve(req, outcome{resp: resp}) {
		c.logger.Warn().
			Str("id", req.id).
			Int64("code", resp.Code).
			Msg("late websocket ack dropped")
	}
}

// match finds the request an ack answers: by echoed id, then by tx hash,
// then the oldest request in flight. The exchange acks in arrival order.
// late is set when the ack names a request that already completed; such an
// ack never falls back to the queue.
func (c *Client) match(resp Response) (req *request, late bool) {
	if resp.ID != "" {
		if v, ok := c.byID.Get(resp.ID); ok {
			return v.(*request), false
		}
		if c.retired.Has(retiredIDKey(resp.ID)) {
			return nil, true
		}
	}

	for _, h := range resp.TxHashes {
		if v, ok := c.byHash.Get(h); ok {
			return v.(*request), false
		}
		if c.retired.Has(retiredHashKey(h)) {
			return nil, true
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return nil, false
	}
	return c.pending[0], false
}

// handlePing answers on its own goroutine so a write blocked on
// backpressure never stalls the read loop
func (c *Client) handlePing(ctx context.Context, conn *websocket.Conn) {
	data, _ := json.Marshal(outgoing{Type: typePong})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		c.writeMu.Lock()
		err := conn.Write(ctx, websocket.MessageText, data)
		c.writeMu.Unlock()

		if err != nil {
			c.logger.Warn().Err(err).Msg("websocket pong error")
		}
	}()
}
