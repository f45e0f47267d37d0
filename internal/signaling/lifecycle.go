package signaling

import (
	"github.com/BioHazard786/roomrelay/internal/protocol"
	"github.com/BioHazard786/roomrelay/internal/registry"
)

// Connected greets a new connection. It belongs to no room yet.
func (s *Service) Connected(conn string) {
	s.log.Info("connecting", "conn", conn)

	s.reply(conn, protocol.New(protocol.TypeConnected, 0, protocol.ConnectedPayload{
		ConnectionID: conn,
	}))
	s.presence.SendTo(conn)
}

// Disconnected scrubs a terminated connection from every room, tells the
// remaining participants and announces the new listing. The connection itself
// is already gone, so nothing is reported to it.
func (s *Service) Disconnected(conn string) {
	affected := s.registry.PurgeConnection(conn)

	ids := make([]registry.RoomID, 0, len(affected))
	for _, res := range affected {
		ids = append(ids, res.ID)
	}
	s.log.Info("disconnecting", "conn", conn, "rooms", ids)

	if len(affected) == 0 {
		return
	}

	// Recipients come from the purge itself: a connection that joins one of
	// these rooms afterwards never saw conn there.
	for _, res := range affected {
		s.notifyPeerLeft(res.ID, conn, res.Remaining)
	}
	s.presence.Publish(false)
}
