// Package ws is the websocket transport for the real-time channel. It
// upgrades admitted connections, runs the gorilla read/write pumps, and
// translates client frames into presence operations.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-social-backend/internal/config"
	"github.com/tbourn/go-social-backend/internal/realtime"
)

// Client frame events. Everything else a client sends is ignored.
const (
	frameTypePrivateMessage = "private_message"
	frameTypeTypingStart    = "typing_start"
	frameTypeTypingStop     = "typing_stop"
	frameTypeProfileView    = "profile_view"
)

var (
	errClientClosed = errors.New("ws: connection closed")
	errBufferFull   = errors.New("ws: send buffer full")
)

// frame is the wire envelope in both directions:
//
//	{"event": "typing_start", "data": {"to": "42"}}
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client is one live websocket session. It implements realtime.Conn: Send
// enqueues into a single ordered buffer consumed by the write pump, so
// events for this user arrive in the order the router produced them. Send
// never blocks — when the buffer is full the event is dropped with an
// error, keeping one slow client from stalling the router.
type Client struct {
	userID   string
	conn     *websocket.Conn
	cfg      config.WSConfig
	presence *realtime.Presence

	send   chan []byte
	closed atomic.Bool
}

func newClient(userID string, conn *websocket.Conn, cfg config.WSConfig, presence *realtime.Presence) *Client {
	return &Client{
		userID:   userID,
		conn:     conn,
		cfg:      cfg,
		presence: presence,
		send:     make(chan []byte, cfg.SendBuffer),
	}
}

// UserID returns the authenticated user this session belongs to.
func (c *Client) UserID() string { return c.userID }

// Send marshals the event envelope and enqueues it for the write pump.
func (c *Client) Send(event string, payload any) error {
	if c.closed.Load() {
		return errClientClosed
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	buf, err := json.Marshal(frame{Event: event, Data: data})
	if err != nil {
		return err
	}

	select {
	case c.send <- buf:
		return nil
	default:
		return errBufferFull
	}
}

// close makes further Sends fail and releases the write pump. Safe to call
// from multiple goroutines; only the first call closes the channel.
func (c *Client) close() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.send)
	}
}

// readPump consumes client frames until the connection dies, then tears the
// session down. Teardown goes through HandleDisconnectConn so a lingering
// old transport, displaced by a newer session for the same user, cannot
// knock the replacement offline.
func (c *Client) readPump() {
	defer func() {
		c.close()
		_ = c.conn.Close()
		c.presence.HandleDisconnectConn(context.Background(), c.userID, c)
	}()

	c.conn.SetReadLimit(c.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Str("user_id", c.userID).Err(err).Msg("websocket read error")
			}
			return
		}
		c.handleFrame(data)
	}
}

// writePump drains the send buffer and keeps the connection alive with
// pings. It owns all writes to the underlying connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case buf, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, buf); err != nil {
				log.Warn().Str("user_id", c.userID).Err(err).Msg("websocket write error")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleFrame dispatches one inbound frame. Malformed or unknown frames are
// logged and dropped; the client protocol has no error replies.
func (c *Client) handleFrame(data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		log.Debug().Str("user_id", c.userID).Err(err).Msg("malformed websocket frame")
		return
	}

	ctx := context.Background()

	switch f.Event {
	case frameTypePrivateMessage:
		var body struct {
			To      string `json:"to"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(f.Data, &body); err != nil || body.To == "" {
			return
		}
		c.presence.PrivateMessage(c.userID, body.To, body.Message)

	case frameTypeTypingStart:
		var body struct {
			To string `json:"to"`
		}
		if err := json.Unmarshal(f.Data, &body); err != nil || body.To == "" {
			return
		}
		c.presence.StartTyping(ctx, c.userID, body.To)

	case frameTypeTypingStop:
		var body struct {
			To string `json:"to"`
		}
		if err := json.Unmarshal(f.Data, &body); err != nil || body.To == "" {
			return
		}
		c.presence.StopTyping(ctx, c.userID, body.To)

	case frameTypeProfileView:
		var body struct {
			UserID string `json:"user_id"`
		}
		if err := json.Unmarshal(f.Data, &body); err != nil || body.UserID == "" {
			return
		}
		c.presence.ProfileView(c.userID, body.UserID)

	default:
		log.Debug().Str("user_id", c.userID).Str("event", f.Event).Msg("unknown websocket frame")
	}
}
