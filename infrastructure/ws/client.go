package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"meet-lab/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Enough for WebRTC SDP blobs.
	maxMessageSize = 64 * 1024
)

// Client wraps a single websocket connection. All writes go through the
// send channel so the write pump is the connection's only writer.
type Client struct {
	ID   string
	conn *websocket.Conn
	log  *slog.Logger
	send chan Envelope

	mu        sync.Mutex
	closed    bool
	meetingID domain.MeetingID
	identity  domain.Identity
}

func newClient(id string, conn *websocket.Conn, log *slog.Logger, bufferSize int) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		log:  log,
		send: make(chan Envelope, bufferSize),
	}
}

// Enqueue pushes an outbound envelope without blocking. A full buffer means
// the peer cannot keep up; the envelope is dropped and reported.
func (c *Client) Enqueue(envelope Envelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- envelope:
		return true
	default:
		return false
	}
}

func (c *Client) bindRoom(meetingID domain.MeetingID, identity domain.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meetingID = meetingID
	c.identity = identity
}

func (c *Client) room() (domain.MeetingID, domain.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.meetingID, c.identity
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump pumps messages from the websocket to the dispatch callback.
// There is at most one reader per connection: this goroutine.
func (c *Client) readPump(dispatch func(*Client, Envelope), disconnect func(*Client)) {
	defer func() {
		disconnect(c)
		c.close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var envelope Envelope
		if err := c.conn.ReadJSON(&envelope); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug("Connection read failed", "connection_id", c.ID, "error", err)
			}
			return
		}
		dispatch(c, envelope)
	}
}

// writePump pumps envelopes from the send channel to the websocket and
// keeps the connection alive with pings. The only writer per connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case envelope, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(envelope); err != nil {
				c.log.Debug("Connection write failed", "connection_id", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
