package signaling

import (
	"strconv"

	"github.com/BioHazard786/roomrelay/internal/protocol"
	"github.com/BioHazard786/roomrelay/internal/registry"
)

// Transport is what the signaling service needs from the real-time substrate.
// Implementations must not block on network I/O in any of these calls.
type Transport interface {
	// SendTo delivers msg to one connection.
	SendTo(conn string, msg *protocol.Message) bool
	// Publish delivers msg to every member of group except one connection.
	Publish(group string, msg *protocol.Message, except string) int
	// Broadcast delivers msg to every connection.
	Broadcast(msg *protocol.Message) int

	Subscribe(group, conn string)
	Unsubscribe(group, conn string)
}

// roomGroup names the transport group of a room.
func roomGroup(id registry.RoomID) string {
	return "room:" + strconv.FormatInt(int64(id), 10)
}
