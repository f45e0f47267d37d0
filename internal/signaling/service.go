// Package signaling is the rendezvous core: it admits connections into rooms,
// relays negotiation messages between the participants of a room and keeps
// every client's room listing current.
//
// All registry state lives in a registry.Registry; this package only turns
// client actions into registry operations and the results into deliveries
// through a Transport. Nothing here holds the registry lock while sending.
package signaling

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BioHazard786/roomrelay/internal/protocol"
	"github.com/BioHazard786/roomrelay/internal/registry"
)

// Service handles client actions for one registry.
type Service struct {
	registry  *registry.Registry
	transport Transport
	presence  *Presence
	log       *slog.Logger
}

// NewService wires a registry to a transport.
func NewService(reg *registry.Registry, t Transport, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "signaling")
	return &Service{
		registry:  reg,
		transport: t,
		presence:  NewPresence(reg, t, log),
		log:       log,
	}
}

// Registry returns the registry the service mutates.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// Handle dispatches one message received from conn. It is called from the
// connection's read goroutine, one message at a time.
func (s *Service) Handle(conn string, msg *protocol.Message) {
	roomID := registry.RoomID(msg.RoomID)

	switch msg.Type {
	case protocol.TypeCreateRoom:
		var p protocol.CreateRoomPayload
		if err := msg.DecodePayload(&p); err != nil {
			s.reply(conn, protocol.NewError(protocol.CodeBadRequest, "invalid create_room payload"))
			return
		}
		s.CreateRoom(conn, p.Name)

	case protocol.TypeJoinRoom:
		s.Join(conn, roomID)

	case protocol.TypeLeaveRoom:
		s.Leave(conn, roomID)

	case protocol.TypeSendMessage:
		s.SendMessage(conn, roomID, msg.Payload)

	case protocol.TypeGetRooms:
		s.GetRooms(conn)

	default:
		s.log.Debug("unknown message type", "conn", conn, "type", msg.Type)
		s.reply(conn, errorMessage(errUnknownType))
	}
}

// CreateRoom creates a room and announces it.
func (s *Service) CreateRoom(conn, name string) {
	id, err := s.registry.CreateRoom(name)
	if err != nil {
		if errors.Is(err, registry.ErrAlreadyExists) {
			s.log.Warn("room name taken", "conn", conn, "name", name)
		}
		s.reply(conn, errorMessage(err))
		return
	}

	name = strings.TrimSpace(name)
	s.log.Info("room created", "conn", conn, "room", id, "name", name)
	s.reply(conn, protocol.New(protocol.TypeRoomCreated, int64(id), protocol.RoomCreatedPayload{
		RoomID: int64(id),
		Name:   name,
	}))
	s.presence.Publish(false)
}

// Join admits conn into a room.
func (s *Service) Join(conn string, id registry.RoomID) {
	res, err := s.registry.Join(id, conn)
	if err != nil {
		s.log.Debug("join rejected", "conn", conn, "room", id, "err", err)
		s.reply(conn, errorMessage(err))
		return
	}

	// Only admitted members enter the group. The other participant cannot
	// relay anything before ready, which is sent after this.
	s.transport.Subscribe(roomGroup(id), conn)

	s.reply(conn, protocol.New(protocol.TypeJoined, int64(id), protocol.JoinedPayload{
		RoomID:             int64(id),
		IsFirstParticipant: res.IsFirstParticipant,
	}))

	if res.AlreadyJoined {
		return
	}
	s.log.Info("joined room", "conn", conn, "room", id, "first", res.IsFirstParticipant, "participants", len(res.Participants))

	if res.Ready {
		ready := protocol.New(protocol.TypeReady, int64(id), protocol.ReadyPayload{
			RoomID:    int64(id),
			Initiator: res.Participants[0],
		})
		for _, p := range res.Participants {
			s.transport.SendTo(p, ready)
		}
		s.log.Info("room ready", "room", id, "initiator", res.Participants[0])
	}

	s.presence.Publish(false)
}

// Leave removes conn from a room. Leaving twice, or leaving a room conn was
// never in, changes nothing.
func (s *Service) Leave(conn string, id registry.RoomID) {
	res := s.registry.Leave(id, conn)
	s.transport.Unsubscribe(roomGroup(id), conn)

	if res.Left {
		s.log.Info("left room", "conn", conn, "room", id, "deleted", res.RoomDeleted)
		s.notifyPeerLeft(id, conn, res.Remaining)
	}
	s.presence.Publish(false)
}

// SendMessage relays payload verbatim to the other members of the room's
// group. Reaching nobody is not an error.
func (s *Service) SendMessage(conn string, id registry.RoomID, payload []byte) {
	if len(payload) == 0 {
		s.reply(conn, errorMessage(errEmptyPayload))
		return
	}

	msg := &protocol.Message{
		Type:    protocol.TypeMessage,
		RoomID:  int64(id),
		From:    conn,
		Payload: payload,
	}
	n := s.transport.Publish(roomGroup(id), msg, conn)
	s.log.Debug("relayed message", "conn", conn, "room", id, "recipients", n)
}

// GetRooms sends the current listing to every client, the caller included.
func (s *Service) GetRooms(conn string) {
	s.log.Debug("listing requested", "conn", conn)
	s.presence.Publish(true)
}

// RunJanitor removes rooms nobody joined within ttl, checking every interval,
// until ctx is done. A non-positive ttl disables it.
func (s *Service) RunJanitor(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = ttl / 2
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(now.Add(-ttl))
		}
	}
}

func (s *Service) sweep(createdBefore time.Time) {
	removed := s.registry.SweepPending(createdBefore)
	if len(removed) == 0 {
		return
	}
	s.log.Info("removed unused rooms", "rooms", removed)
	s.presence.Publish(false)
}

func (s *Service) notifyPeerLeft(id registry.RoomID, conn string, remaining []string) {
	msg := protocol.New(protocol.TypePeerLeft, int64(id), protocol.PeerLeftPayload{
		RoomID:       int64(id),
		ConnectionID: conn,
	})
	for _, p := range remaining {
		s.transport.SendTo(p, msg)
	}
}

// reply sends a targeted message to the caller. Failures are dropped: the
// caller is either gone or about to be.
func (s *Service) reply(conn string, msg *protocol.Message) {
	if !s.transport.SendTo(conn, msg) {
		s.log.Debug("reply dropped", "conn", conn, "type", msg.Type)
	}
}
