package gateway

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/codewithme13/signai-server/internal/signal"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	sendQueueSize = 64
)

// envelope is the wire frame: every message in both directions is a JSON
// object carrying an event name and an event-specific payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// client is one upgraded WebSocket connection. It implements signal.Conn:
// the router pushes outbound events through Send onto a buffered queue that
// the write pump drains, so a slow peer can never stall the router.
type client struct {
	id   string
	sock *websocket.Conn
	log  *slog.Logger

	send chan outEnvelope

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(id string, sock *websocket.Conn, log *slog.Logger) *client {
	return &client{
		id:   id,
		sock: sock,
		log:  log,
		send: make(chan outEnvelope, sendQueueSize),
		done: make(chan struct{}),
	}
}

func (c *client) ID() string { return c.id }

// Send enqueues an outbound event without blocking. When the queue is full
// the event is dropped; delivery is best-effort at-most-once.
func (c *client) Send(event string, payload any) {
	select {
	case c.send <- outEnvelope{Event: event, Data: payload}:
	case <-c.done:
	default:
		c.log.Warn("send queue full, dropping event", "conn", c.id, "event", event)
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.sock.Close()
	})
}

// readPump decodes inbound frames and feeds them to the router. It owns the
// read side of the socket and returns when the peer goes away; the caller
// runs disconnect handling after it returns.
func (c *client) readPump(router *signal.Router) {
	defer c.close()

	c.sock.SetReadLimit(maxMessageSize)
	c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("websocket read failed", "conn", c.id, "err", err)
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
			c.log.Warn("malformed frame dropped", "conn", c.id)
			continue
		}
		router.HandleEvent(c, env.Event, env.Data)
	}
}

// writePump drains the send queue onto the socket and keeps the connection
// alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case env := <-c.send:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			c.sock.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
