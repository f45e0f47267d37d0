// Package protocol defines the JSON envelope exchanged over the signaling
// WebSocket by the server and its clients.
package protocol

import "encoding/json"

// Message defines the structure for all C2S (Client to Server)
// and S2C (Server to Client) websocket messages.
type Message struct {
	Type   string `json:"type"`
	RoomID int64  `json:"room_id,omitempty"`

	// From is set by the server on relayed messages.
	From string `json:"from,omitempty"`

	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client to server message types.
const (
	TypeCreateRoom  = "create_room"
	TypeJoinRoom    = "join_room"
	TypeLeaveRoom   = "leave_room"
	TypeSendMessage = "send_message"
	TypeGetRooms    = "get_rooms"
)

// Server to client message types.
const (
	TypeConnected    = "connected"
	TypeRoomCreated  = "room_created"
	TypeRoomsUpdated = "rooms_updated"
	TypeJoined       = "joined"
	TypeReady        = "ready"
	TypeMessage      = "message"
	TypePeerLeft     = "peer_left"
	TypeError        = "error"
)

// Error codes carried by ErrorPayload.
const (
	CodeAlreadyExists = "already_exists"
	CodeNotFound      = "not_found"
	CodeRoomFull      = "room_full"
	CodeInvalidName   = "invalid_name"
	CodeBadRequest    = "bad_request"
	CodeUnknownType   = "unknown_type"
)

type CreateRoomPayload struct {
	Name string `json:"name"`
}

type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
}

type RoomCreatedPayload struct {
	RoomID int64  `json:"room_id"`
	Name   string `json:"name"`
}

// RoomInfo is one entry of a room listing.
type RoomInfo struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Participants []string `json:"participants"`
}

type RoomsUpdatedPayload struct {
	Version uint64     `json:"version"`
	Rooms   []RoomInfo `json:"rooms"`
}

type JoinedPayload struct {
	RoomID             int64 `json:"room_id"`
	IsFirstParticipant bool  `json:"is_first_participant"`
}

// ReadyPayload tells both participants that negotiation may begin.
// Initiator is the connection expected to produce the offer.
type ReadyPayload struct {
	RoomID    int64  `json:"room_id"`
	Initiator string `json:"initiator"`
}

type PeerLeftPayload struct {
	RoomID       int64  `json:"room_id"`
	ConnectionID string `json:"connection_id"`
}

type ErrorPayload struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// New builds a message with payload encoded as JSON. Payload types in this
// package always marshal, so a nil payload is the only way to omit it.
func New(t string, roomID int64, payload any) *Message {
	msg := &Message{Type: t, RoomID: roomID}
	if payload != nil {
		msg.Payload, _ = json.Marshal(payload)
	}
	return msg
}

// NewError builds an error message for the caller.
func NewError(code, text string) *Message {
	return New(TypeError, 0, ErrorPayload{Code: code, Error: text})
}

// DecodePayload decodes the message payload into v.
func (m *Message) DecodePayload(v any) error {
	return json.Unmarshal(m.Payload, v)
}
