package registry

import (
	"slices"
	"time"
)

// RoomID identifies a room for the lifetime of the registry. IDs start at 1.
type RoomID int64

// ConnID is the transport-assigned identity of a live connection.
type ConnID = string

// Room is a point-in-time copy of a room. Mutating it has no effect on the registry.
type Room struct {
	ID           RoomID
	Name         string
	Participants []ConnID
	CreatedAt    time.Time
}

// Snapshot is a consistent copy of the whole registry.
type Snapshot struct {
	// Version increases with every mutation.
	Version uint64
	Rooms   []Room
}

// JoinResult describes the membership change made by Join.
type JoinResult struct {
	IsFirstParticipant bool
	// Ready is set when this join brought the room to exactly two participants.
	Ready         bool
	AlreadyJoined bool
	Participants  []ConnID
}

// LeaveResult describes the membership change made by Leave.
type LeaveResult struct {
	Left        bool
	RoomDeleted bool
	Remaining   []ConnID
}

// PurgeResult describes one room touched by PurgeConnection.
type PurgeResult struct {
	ID          RoomID
	RoomDeleted bool
	Remaining   []ConnID
}

// room is the registry-owned record.
type room struct {
	id           RoomID
	name         string
	key          string
	participants []ConnID
	createdAt    time.Time
	// joined is set once any participant has entered the room.
	joined bool
}

func (r *room) snapshot() Room {
	return Room{
		ID:           r.id,
		Name:         r.name,
		Participants: slices.Clone(r.participants),
		CreatedAt:    r.createdAt,
	}
}

func (r *room) has(conn ConnID) bool {
	return slices.Contains(r.participants, conn)
}

func (r *room) remove(conn ConnID) bool {
	i := slices.Index(r.participants, conn)
	if i < 0 {
		return false
	}
	r.participants = slices.Delete(r.participants, i, i+1)
	return true
}
