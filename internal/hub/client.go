package hub

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BioHazard786/roomrelay/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024 // 64 KB - enough for WebRTC SDP messages
)

// Client is a wrapper for a single websocket connection.
type Client struct {
	// ID is the transport-assigned identity of this connection.
	ID string

	hub  *Hub
	conn *websocket.Conn

	// send is a buffered channel for all outbound messages.
	// The hub writes to it without blocking, and WritePump
	// drains it to the websocket.
	send chan *protocol.Message

	log *slog.Logger
}

// NewClient wraps conn. The client is not reachable until it is registered.
func NewClient(h *Hub, id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		hub:  h,
		conn: conn,
		send: make(chan *protocol.Message, h.sendBuffer),
		log:  h.log.With("conn", id),
	}
}

// ReadPump pumps messages from the websocket connection to handle.
//
// The application runs ReadPump in a per-connection goroutine. All reads, and
// therefore all dispatching for this connection, happen on that goroutine, so
// handle sees messages in the order the peer sent them. ReadPump returns when
// the connection fails or is closed.
func (c *Client) ReadPump(handle func(*protocol.Message)) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg protocol.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("read failed", "err", err)
			}
			return
		}
		handle(&msg)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
//
// A goroutine running WritePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WritePump() {
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
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.log.Debug("write failed", "err", err)
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

// enqueue hands msg to the write pump without blocking.
func (c *Client) enqueue(msg *protocol.Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close shuts the underlying socket, which unblocks ReadPump.
func (c *Client) close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
