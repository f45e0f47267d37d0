package hub

import (
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/BioHazard786/roomrelay/internal/protocol"
)

// register adds a socketless client whose queue the test can inspect.
func register(h *Hub, id string) *Client {
	c := NewClient(h, id, nil)
	h.Register(c)
	return c
}

func drain(c *Client) []*protocol.Message {
	var out []*protocol.Message
	for {
		select {
		case m, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestPublishExcludesSender(t *testing.T) {
	h := New(8, nil)
	a, b, c := register(h, "a"), register(h, "b"), register(h, "c")

	h.Subscribe("room:1", "a")
	h.Subscribe("room:1", "b")

	msg := &protocol.Message{Type: protocol.TypeMessage}
	if n := h.Publish("room:1", msg, "a"); n != 1 {
		t.Fatalf("Publish reached %d clients, want 1", n)
	}

	if got := drain(a); len(got) != 0 {
		t.Fatalf("sender received its own message: %v", got)
	}
	if got := drain(b); len(got) != 1 || got[0] != msg {
		t.Fatalf("b received %v", got)
	}
	if got := drain(c); len(got) != 0 {
		t.Fatalf("non-member received %v", got)
	}
}

func TestPublishToEmptyGroup(t *testing.T) {
	h := New(8, nil)
	register(h, "a")

	if n := h.Publish("room:404", &protocol.Message{}, "a"); n != 0 {
		t.Fatalf("Publish to empty group reached %d", n)
	}
}

func TestBroadcastAndSendTo(t *testing.T) {
	h := New(8, nil)
	a, b := register(h, "a"), register(h, "b")

	if n := h.Broadcast(&protocol.Message{Type: protocol.TypeRoomsUpdated}); n != 2 {
		t.Fatalf("Broadcast reached %d, want 2", n)
	}
	if !h.SendTo("b", &protocol.Message{Type: protocol.TypeJoined}) {
		t.Fatal("SendTo registered client failed")
	}
	if h.SendTo("ghost", &protocol.Message{}) {
		t.Fatal("SendTo unknown client succeeded")
	}

	if got := drain(a); len(got) != 1 {
		t.Fatalf("a received %d messages, want 1", len(got))
	}
	if got := drain(b); len(got) != 2 || got[1].Type != protocol.TypeJoined {
		t.Fatalf("b received %v", got)
	}
}

func TestUnregisterRemovesFromGroups(t *testing.T) {
	h := New(8, nil)
	a := register(h, "a")
	register(h, "b")
	h.Subscribe("room:1", "a")
	h.Subscribe("room:1", "b")

	h.Unregister("a")
	h.Unregister("a")

	if _, ok := <-a.send; ok {
		t.Fatal("send channel still open after Unregister")
	}
	if got := h.Members("room:1"); !slices.Equal(got, []string{"b"}) {
		t.Fatalf("members = %v, want [b]", got)
	}
	if h.Len() != 1 {
		t.Fatalf("Len = %d, want 1", h.Len())
	}

	// Subscribing a gone client is ignored.
	h.Subscribe("room:2", "a")
	if got := h.Members("room:2"); len(got) != 0 {
		t.Fatalf("room:2 members = %v", got)
	}
}

func TestUnsubscribe(t *testing.T) {
	h := New(8, nil)
	register(h, "a")
	h.Subscribe("room:1", "a")
	h.Unsubscribe("room:1", "a")
	h.Unsubscribe("room:1", "a")

	if n := h.Publish("room:1", &protocol.Message{}, ""); n != 0 {
		t.Fatalf("Publish after unsubscribe reached %d", n)
	}
}

func TestFullQueueIsNotDelivered(t *testing.T) {
	h := New(1, nil)
	register(h, "slow")

	if !h.SendTo("slow", &protocol.Message{Type: "first"}) {
		t.Fatal("first send failed")
	}
	if h.SendTo("slow", &protocol.Message{Type: "second"}) {
		t.Fatal("send into full queue reported success")
	}
}

func TestPerSenderOrder(t *testing.T) {
	const n = 100
	h := New(n, nil)
	register(h, "sender")
	rcv := register(h, "receiver")
	h.Subscribe("room:1", "sender")
	h.Subscribe("room:1", "receiver")

	// Unrelated traffic from other goroutines must not reorder the sender's stream.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 20 {
			h.Broadcast(&protocol.Message{Type: protocol.TypeRoomsUpdated})
		}
	}()
	for i := range n - 20 {
		h.Publish("room:1", &protocol.Message{Type: protocol.TypeMessage, Payload: []byte(fmt.Sprint(i))}, "sender")
	}
	wg.Wait()

	next := 0
	for _, m := range drain(rcv) {
		if m.Type != protocol.TypeMessage {
			continue
		}
		if string(m.Payload) != fmt.Sprint(next) {
			t.Fatalf("got payload %s, want %d", m.Payload, next)
		}
		next++
	}
	if next != n-20 {
		t.Fatalf("received %d relayed messages, want %d", next, n-20)
	}
}
