package ui

import (
	"strings"
	"testing"

	"github.com/BioHazard786/roomrelay/internal/protocol"
)

func TestRoomStatus(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "empty"},
		{1, "waiting"},
		{2, "full"},
	}
	for _, tt := range tests {
		if got := RoomStatus(tt.n, 2); got != tt.want {
			t.Errorf("RoomStatus(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestRoomsTableView(t *testing.T) {
	if got := RoomsTableView(protocol.RoomsUpdatedPayload{}, 2); !strings.Contains(got, "No rooms") {
		t.Errorf("empty listing = %q", got)
	}

	view := RoomsTableView(protocol.RoomsUpdatedPayload{
		Version: 3,
		Rooms: []protocol.RoomInfo{
			{ID: 1, Name: "Lobby", Participants: []string{"a"}},
			{ID: 4, Name: "Games", Participants: []string{"b", "c"}},
		},
	}, 2)
	for _, want := range []string{"Lobby", "Games", "1/2", "2/2", "waiting", "full"} {
		if !strings.Contains(view, want) {
			t.Errorf("table missing %q:\n%s", want, view)
		}
	}
}
