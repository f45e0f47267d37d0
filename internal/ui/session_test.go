package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/BioHazard786/roomrelay/internal/peer"
)

func update(m *JoinModel, msg tea.Msg) (*JoinModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(*JoinModel), cmd
}

func TestJoinModelFollowsState(t *testing.T) {
	m := NewJoinModel(7)
	if !strings.Contains(m.View(), "Joining") {
		t.Fatalf("initial view:\n%s", m.View())
	}

	m, _ = update(m, StateMsg(peer.StateWaiting))
	if !strings.Contains(m.View(), "Waiting for a second participant") {
		t.Fatalf("waiting view:\n%s", m.View())
	}

	m, _ = update(m, HelloMsg(peer.Hello{ConnectionID: "c2", Name: "bob"}))
	m, _ = update(m, StateMsg(peer.StateNegotiated))
	if !strings.Contains(m.View(), "Connected to bob (c2)") {
		t.Fatalf("negotiated view:\n%s", m.View())
	}
}

func TestJoinModelDone(t *testing.T) {
	m := NewJoinModel(1)
	m, cmd := update(m, DoneMsg{Err: errors.New("room is full")})
	if cmd == nil {
		t.Fatal("done did not quit")
	}
	if !strings.Contains(m.View(), "room is full") {
		t.Fatalf("error view:\n%s", m.View())
	}
	if m.Cancelled() {
		t.Fatal("done counted as cancel")
	}
}

func TestJoinModelQuit(t *testing.T) {
	m := NewJoinModel(1)
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil || !m.Cancelled() {
		t.Fatal("q did not quit")
	}
	if m.View() != "" {
		t.Fatal("view not cleared on quit")
	}
}
