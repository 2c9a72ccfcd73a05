package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/mcoot/farklegame/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256

	// Inbound frames larger than this close the connection
	readLimit = 16 << 10
)

// inbound is a message received from a client
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client represents one websocket connection subscribed to a room
type Client struct {
	conn        *websocket.Conn
	playerID    model.PlayerID
	send        chan []byte
	connectedAt time.Time

	mu     sync.Mutex
	closed bool
}

// NewClient creates a new websocket client
func NewClient(conn *websocket.Conn, playerID model.PlayerID) *Client {
	if conn != nil {
		conn.SetReadLimit(readLimit)
	}
	return &Client{
		conn:        conn,
		playerID:    playerID,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// PlayerID returns the player the connection belongs to
func (c *Client) PlayerID() model.PlayerID {
	return c.playerID
}

// enqueue queues a message without blocking, returning false if the client
// is closed or its buffer is full
func (c *Client) enqueue(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// closeSend closes the outgoing queue; writePump then closes the connection
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writePump drains the send queue to the connection until the queue is
// closed or the context ends
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				_ = c.conn.Close(websocket.StatusGoingAway, "")
				return
			}
			if err := c.write(ctx, message); err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, message []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, message)
}

// readPump blocks reading messages and hands each to handle. Frames that are
// not a JSON envelope arrive as an inbound with no event. It returns the read
// error that ended the connection.
func (c *Client) readPump(ctx context.Context, handle func(context.Context, inbound)) error {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return err
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			msg = inbound{}
		}
		handle(ctx, msg)
	}
}
