package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// clientCommand is the only inbound message shape clients may send
type clientCommand struct {
	Action string   `json:"action"`
	Rooms  []string `json:"rooms"`
}

// Client is one websocket connection attached to the hub
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger

	closeOnce sync.Once
}

// NewClient wraps a websocket connection. sendBuffer bounds the
// per-client queue; a full queue drops messages instead of blocking.
func NewClient(hub *Hub, conn *websocket.Conn, sendBuffer int, logger *zap.Logger) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 32
	}
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		logger: logger,
	}
}

// trySend queues a message without blocking. Returns false when the
// client's queue is full or closed.
func (c *Client) trySend(payload []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// readPump reads commands from the peer until the connection drops.
// Disconnection silently removes the client from all rooms.
func (c *Client) readPump() {
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
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}

		var cmd clientCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			continue
		}

		if cmd.Action == "join" && len(cmd.Rooms) > 0 {
			c.hub.Join(c, cmd.Rooms)

			ack, err := json.Marshal(Event{
				Event: "joined",
				Data:  map[string]any{"joined": cmd.Rooms},
			})
			if err == nil {
				c.trySend(ack)
			}
		}
	}
}

// writePump writes queued messages and keepalive pings to the peer
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
