package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BioHazard786/roomrelay/internal/protocol"
)

// ErrConnectionLost is reported when the server connection ends while a
// caller is waiting on it.
var ErrConnectionLost = errors.New("connection to signaling server lost")

// ServerError is an error frame sent by the server.
type ServerError struct {
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Handler routes incoming signaling messages to appropriate channels.
//
// Start is the only sender on these channels and closes all of them when the
// connection ends. Listings are unsolicited, so only the newest undelivered
// one is kept.
//
// Room carries joined, ready, message and peer_left frames in the order the
// server sent them. Nothing on it is dropped.
type Handler struct {
	client *Client

	Connected   chan string
	RoomCreated chan protocol.RoomCreatedPayload
	Rooms       chan protocol.RoomsUpdatedPayload
	Room        chan *protocol.Message
	Error       chan *ServerError
}

// NewHandler creates a new message handler.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:      client,
		Connected:   make(chan string, 1),
		RoomCreated: make(chan protocol.RoomCreatedPayload, 4),
		Rooms:       make(chan protocol.RoomsUpdatedPayload, 1),
		Room:        make(chan *protocol.Message, 64),
		Error:       make(chan *ServerError, 4),
	}
}

// Start begins listening to incoming messages and routing them.
func (h *Handler) Start() {
	defer h.closeAll()

	for msg := range h.client.Incoming() {
		switch msg.Type {
		case protocol.TypeConnected:
			var p protocol.ConnectedPayload
			if h.decode(msg, &p) {
				deliver(h, h.Connected, p.ConnectionID)
			}

		case protocol.TypeRoomCreated:
			var p protocol.RoomCreatedPayload
			if h.decode(msg, &p) {
				deliver(h, h.RoomCreated, p)
			}

		case protocol.TypeRoomsUpdated:
			var p protocol.RoomsUpdatedPayload
			if h.decode(msg, &p) {
				h.replaceListing(p)
			}

		case protocol.TypeJoined, protocol.TypeReady, protocol.TypeMessage, protocol.TypePeerLeft:
			// Room events must not be dropped or reordered.
			select {
			case h.Room <- msg:
			case <-h.client.Done():
				return
			}

		case protocol.TypeError:
			var p protocol.ErrorPayload
			if h.decode(msg, &p) {
				deliver(h, h.Error, &ServerError{Code: p.Code, Message: p.Error})
			}

		default:
			h.client.log.Debug("ignoring message", "type", msg.Type)
		}
	}
}

// WaitConnected returns the connection id from the server's hello.
func (h *Handler) WaitConnected(ctx context.Context, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case id, ok := <-h.Connected:
		if !ok {
			return "", ErrConnectionLost
		}
		return id, nil
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for server hello: %w", ctx.Err())
	}
}

func (h *Handler) decode(msg *protocol.Message, v any) bool {
	if err := msg.DecodePayload(v); err != nil {
		h.client.log.Warn("malformed payload", "type", msg.Type, "err", err)
		return false
	}
	return true
}

// deliver hands v to ch without blocking the read loop.
func deliver[T any](h *Handler, ch chan T, v T) {
	select {
	case ch <- v:
	default:
		h.client.log.Warn("dropping message, nobody is listening", "value", v)
	}
}

func (h *Handler) replaceListing(p protocol.RoomsUpdatedPayload) {
	select {
	case <-h.Rooms:
	default:
	}
	select {
	case h.Rooms <- p:
	default:
	}
}

func (h *Handler) closeAll() {
	close(h.Connected)
	close(h.RoomCreated)
	close(h.Rooms)
	close(h.Room)
	close(h.Error)
}
