// Package registry is the in-memory directory of rooms and their participants.
// It is the only place room membership is mutated.
package registry

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

const (
	// Capacity is the number of participants a room admits.
	Capacity = 2

	// DefaultMaxNameLength is the name limit in runes when none is configured.
	DefaultMaxNameLength = 64
)

// Option configures a Registry.
type Option func(*Registry)

// WithMaxNameLength sets the maximum room name length in runes.
func WithMaxNameLength(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxNameLength = n
		}
	}
}

// WithClock replaces time.Now for room creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// Registry holds every live room. All methods are safe for concurrent use;
// each one runs inside a single critical section.
type Registry struct {
	mu sync.Mutex

	rooms  map[RoomID]*room
	byName map[string]RoomID
	nextID RoomID

	version uint64

	// folder is not safe for concurrent use and is only touched under mu.
	folder cases.Caser

	maxNameLength int
	now           func() time.Time
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		rooms:         make(map[RoomID]*room),
		byName:        make(map[string]RoomID),
		nextID:        1,
		folder:        cases.Fold(),
		maxNameLength: DefaultMaxNameLength,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateRoom inserts an empty room called name and returns its id.
// Names are compared after trimming and Unicode case folding.
func (r *Registry) CreateRoom(name string) (RoomID, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > r.maxNameLength {
		return 0, ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.folder.String(name)
	if _, ok := r.byName[key]; ok {
		return 0, ErrAlreadyExists
	}

	id := r.nextID
	r.nextID++
	r.rooms[id] = &room{
		id:        id,
		name:      name,
		key:       key,
		createdAt: r.now(),
	}
	r.byName[key] = id
	r.version++

	return id, nil
}

// ListRooms returns a copy of every room ordered by id.
func (r *Registry) ListRooms() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := make([]Room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, rm.snapshot())
	}
	slices.SortFunc(rooms, func(a, b Room) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return Snapshot{Version: r.version, Rooms: rooms}
}

// Room returns a copy of a single room.
func (r *Registry) Room(id RoomID) (Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[id]
	if !ok {
		return Room{}, false
	}
	return rm.snapshot(), true
}

// Version returns the current mutation counter.
func (r *Registry) Version() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

// Join adds conn to the room. Joining a room conn is already in succeeds
// without changing anything.
func (r *Registry) Join(id RoomID, conn ConnID) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[id]
	if !ok {
		return JoinResult{}, ErrNotFound
	}

	if rm.has(conn) {
		return JoinResult{
			AlreadyJoined: true,
			Participants:  slices.Clone(rm.participants),
		}, nil
	}

	if len(rm.participants) >= Capacity {
		return JoinResult{}, ErrRoomFull
	}

	rm.participants = append(rm.participants, conn)
	rm.joined = true
	r.version++

	return JoinResult{
		IsFirstParticipant: len(rm.participants) == 1,
		Ready:              len(rm.participants) == Capacity,
		Participants:       slices.Clone(rm.participants),
	}, nil
}

// Leave removes conn from the room and deletes the room if it became empty.
// Leaving a room that does not exist, or one conn is not in, is a no-op.
func (r *Registry) Leave(id RoomID, conn ConnID) LeaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[id]
	if !ok || !rm.remove(conn) {
		return LeaveResult{}
	}
	r.version++

	if len(rm.participants) == 0 {
		r.deleteLocked(rm)
		return LeaveResult{Left: true, RoomDeleted: true}
	}

	return LeaveResult{Left: true, Remaining: slices.Clone(rm.participants)}
}

// PurgeConnection removes conn from every room it is in, deleting rooms left
// empty, and reports each affected room in ascending id order together with
// the participants that remained at the time of removal.
func (r *Registry) PurgeConnection(conn ConnID) []PurgeResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected []PurgeResult
	for id, rm := range r.rooms {
		if !rm.remove(conn) {
			continue
		}
		res := PurgeResult{ID: id}
		if len(rm.participants) == 0 {
			r.deleteLocked(rm)
			res.RoomDeleted = true
		} else {
			res.Remaining = slices.Clone(rm.participants)
		}
		affected = append(affected, res)
	}

	if len(affected) > 0 {
		r.version++
		slices.SortFunc(affected, func(a, b PurgeResult) int { return cmp.Compare(a.ID, b.ID) })
	}
	return affected
}

// SweepPending deletes rooms that were never joined and were created before
// the cut-off. It returns the removed ids in ascending order.
func (r *Registry) SweepPending(createdBefore time.Time) []RoomID {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []RoomID
	for id, rm := range r.rooms {
		if rm.joined || !rm.createdAt.Before(createdBefore) {
			continue
		}
		r.deleteLocked(rm)
		removed = append(removed, id)
	}

	if len(removed) > 0 {
		r.version++
		slices.Sort(removed)
	}
	return removed
}

// deleteLocked removes an empty room. Callers hold mu.
func (r *Registry) deleteLocked(rm *room) {
	if len(rm.participants) != 0 {
		panic(fmt.Sprintf("registry: deleting room %d with %d participants", rm.id, len(rm.participants)))
	}
	if r.byName[rm.key] != rm.id {
		panic(fmt.Sprintf("registry: name index out of sync for room %d", rm.id))
	}
	delete(r.rooms, rm.id)
	delete(r.byName, rm.key)
}
