package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 64
)

// Client is one websocket connection bound to an authenticated user.
type Client struct {
	ConnID string
	UserID string
	Role   string

	hub     *Hub
	conn    *websocket.Conn
	gateway *Gateway
	log     zerolog.Logger

	send   chan []byte
	sendMu sync.Mutex
	closed bool
}

func NewClient(connID, userID, role string, hub *Hub, conn *websocket.Conn, gateway *Gateway, log zerolog.Logger) *Client {
	return &Client{
		ConnID:  connID,
		UserID:  userID,
		Role:    role,
		hub:     hub,
		conn:    conn,
		gateway: gateway,
		log:     log.With().Str("conn_id", connID).Str("user_id", userID).Logger(),
		send:    make(chan []byte, sendBufferSize),
	}
}

// Send marshals and queues one envelope for delivery.
func (c *Client) Send(env ServerEnvelope) {
	raw, err := json.Marshal(env)
	if err != nil {
		c.log.Error().Err(err).Str("type", env.Type).Msg("marshal outbound envelope")
		return
	}
	c.SendRaw(raw)
}

// SendRaw queues a pre-marshalled frame. It reports false when the
// frame was dropped, either because the buffer is full or because the
// connection already closed. Hub broadcasts snapshot clients outside
// the hub lock, so a frame can arrive after CloseSend; the mutex and
// closed flag keep that late send from hitting a closed channel.
func (c *Client) SendRaw(raw []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- raw:
		return true
	default:
		return false
	}
}

// CloseSend stops the write pump. Safe to call more than once and
// concurrently with SendRaw.
func (c *Client) CloseSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump consumes inbound frames until the connection drops, handing
// each envelope to the gateway. It must run in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("unexpected websocket close")
			}
			return
		}

		var env ClientEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.Send(errorEnvelope("invalid_payload", "malformed envelope", ""))
			continue
		}
		c.gateway.Dispatch(c, env)
	}
}

// WritePump flushes queued frames and keeps the connection alive with
// pings. It must run in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
