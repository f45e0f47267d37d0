// Package hub is the real-time transport substrate: it tracks live websocket
// clients and named groups of them, and delivers messages to one client, a
// group or everyone. Deliveries never block on network I/O.
package hub

import (
	"log/slog"
	"sync"

	"github.com/BioHazard786/roomrelay/internal/protocol"
)

// DefaultSendBuffer is the per-client outbound queue length.
const DefaultSendBuffer = 256

// Hub manages all connected clients and their group memberships.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	groups  map[string]map[string]*Client

	sendBuffer int
	log        *slog.Logger
}

// New creates a Hub. A non-positive sendBuffer selects DefaultSendBuffer.
func New(sendBuffer int, log *slog.Logger) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		groups:     make(map[string]map[string]*Client),
		sendBuffer: sendBuffer,
		log:        log.With("component", "hub"),
	}
}

// Register makes c addressable.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	n := len(h.clients)
	h.mu.Unlock()

	h.log.Debug("client registered", "conn", c.ID, "clients", n)
}

// Unregister removes the client from the hub and every group, then closes
// its send channel so the write pump exits. Calling it twice is harmless.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		for name, members := range h.groups {
			delete(members, id)
			if len(members) == 0 {
				delete(h.groups, name)
			}
		}
		// Every enqueue happens under the read lock on a registered client,
		// so nothing can send on the channel after this point.
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.log.Debug("client unregistered", "conn", id, "clients", n)
	}
}

// Subscribe adds a registered client to group.
func (h *Hub) Subscribe(group, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[id]
	if !ok {
		return
	}
	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]*Client)
		h.groups[group] = members
	}
	members[id] = c
}

// Unsubscribe removes a client from group.
func (h *Hub) Unsubscribe(group, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, id)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

// SendTo delivers msg to a single client. It reports false if the client is
// gone or had to be evicted.
func (h *Hub) SendTo(id string, msg *protocol.Message) bool {
	h.mu.RLock()
	c, ok := h.clients[id]
	delivered := ok && c.enqueue(msg)
	h.mu.RUnlock()

	if ok && !delivered {
		h.evict(c)
	}
	return delivered
}

// Publish delivers msg to every member of group except the client named by
// except, and returns the number of recipients reached.
func (h *Hub) Publish(group string, msg *protocol.Message, except string) int {
	h.mu.RLock()
	sent, slow := fanOut(h.groups[group], msg, except)
	h.mu.RUnlock()

	for _, c := range slow {
		h.evict(c)
	}
	return sent
}

// Broadcast delivers msg to every registered client.
func (h *Hub) Broadcast(msg *protocol.Message) int {
	h.mu.RLock()
	sent, slow := fanOut(h.clients, msg, "")
	h.mu.RUnlock()

	for _, c := range slow {
		h.evict(c)
	}
	return sent
}

// Len returns the number of registered clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Members returns the ids subscribed to group.
func (h *Hub) Members(group string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.groups[group]))
	for id := range h.groups[group] {
		ids = append(ids, id)
	}
	return ids
}

// Close disconnects every client. Their read pumps return and the usual
// unregister path runs.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.close()
	}
}

// evict disconnects a client whose queue is full. Dropping a single frame
// would leave a gap in that client's ordered stream, so the connection goes
// instead and the usual disconnect cleanup follows.
func (h *Hub) evict(c *Client) {
	h.log.Warn("send buffer full, evicting client", "conn", c.ID)
	c.close()
}

func fanOut(members map[string]*Client, msg *protocol.Message, except string) (int, []*Client) {
	var (
		sent int
		slow []*Client
	)
	for id, c := range members {
		if id == except {
			continue
		}
		if c.enqueue(msg) {
			sent++
		} else {
			slow = append(slow, c)
		}
	}
	return sent, slow
}
