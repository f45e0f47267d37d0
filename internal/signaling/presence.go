package signaling

import (
	"log/slog"
	"sync"

	"github.com/BioHazard786/roomrelay/internal/protocol"
	"github.com/BioHazard786/roomrelay/internal/registry"
)

// Presence pushes the full room listing to every connected client.
type Presence struct {
	registry  *registry.Registry
	transport Transport
	log       *slog.Logger

	// mu serializes publications so clients never see an older listing
	// after a newer one. It is never held together with the registry lock
	// for longer than a snapshot copy.
	mu          sync.Mutex
	lastVersion uint64
	published   bool
}

// NewPresence creates a broadcaster over reg and t.
func NewPresence(reg *registry.Registry, t Transport, log *slog.Logger) *Presence {
	return &Presence{registry: reg, transport: t, log: log}
}

// Publish sends the current listing to everyone. Unless force is set, a
// listing that is not newer than the last one sent is skipped: the newer
// listing already reflects whatever change triggered this call.
func (p *Presence) Publish(force bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := p.registry.ListRooms()
	if !force && p.published && snap.Version <= p.lastVersion {
		return
	}
	p.lastVersion = snap.Version
	p.published = true

	n := p.transport.Broadcast(listingMessage(snap))
	p.log.Debug("presence published", "version", snap.Version, "rooms", len(snap.Rooms), "recipients", n)
}

// SendTo delivers the current listing to a single connection. It takes the
// same lock as Publish so conn cannot receive this listing after a newer one.
func (p *Presence) SendTo(conn string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transport.SendTo(conn, listingMessage(p.registry.ListRooms()))
}

// Listing converts a registry snapshot to its wire form.
func Listing(snap registry.Snapshot) protocol.RoomsUpdatedPayload {
	rooms := make([]protocol.RoomInfo, 0, len(snap.Rooms))
	for _, rm := range snap.Rooms {
		participants := rm.Participants
		if participants == nil {
			participants = []string{}
		}
		rooms = append(rooms, protocol.RoomInfo{
			ID:           int64(rm.ID),
			Name:         rm.Name,
			Participants: participants,
		})
	}
	return protocol.RoomsUpdatedPayload{Version: snap.Version, Rooms: rooms}
}

func listingMessage(snap registry.Snapshot) *protocol.Message {
	return protocol.New(protocol.TypeRoomsUpdated, 0, Listing(snap))
}
