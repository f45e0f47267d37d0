package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/BioHazard786/roomrelay/internal/peer"
)

// StateMsg reports a session state change to the join view.
type StateMsg peer.State

// HelloMsg carries the remote peer's hello.
type HelloMsg peer.Hello

// DoneMsg ends the view. Err is nil when the user left.
type DoneMsg struct {
	Err error
}

// JoinModel is the Bubble Tea model shown while a join session runs.
type JoinModel struct {
	roomID   int64
	state    peer.State
	hello    *peer.Hello
	spinner  spinner.Model
	err      error
	done     bool
	quitting bool
}

func NewJoinModel(roomID int64) *JoinModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return &JoinModel{roomID: roomID, spinner: s}
}

// Cancelled reports whether the user quit the view.
func (m *JoinModel) Cancelled() bool {
	return m.quitting
}

func (m *JoinModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *JoinModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StateMsg:
		m.state = peer.State(msg)

	case HelloMsg:
		h := peer.Hello(msg)
		m.hello = &h

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m *JoinModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%s Room %d", IconRoom, m.roomID)))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("%s %v", IconError, m.err)))
	case m.done:
		b.WriteString(MutedStyle.Render("Left the room."))
	default:
		b.WriteString(m.stateLine())
	}

	if !m.done {
		b.WriteString("\n\n" + MutedStyle.Render("Press q to leave"))
	}
	return ContainerStyle.Render(b.String())
}

func (m *JoinModel) stateLine() string {
	switch m.state {
	case peer.StateIdle, peer.StateJoining:
		return fmt.Sprintf("%s Joining room...", m.spinner.View())
	case peer.StateWaiting:
		return fmt.Sprintf("%s Waiting for a second participant...", m.spinner.View())
	case peer.StateNegotiating:
		return fmt.Sprintf("%s %s Negotiating peer connection...", m.spinner.View(), IconConnect)
	case peer.StateNegotiated:
		name := "peer"
		if m.hello != nil {
			name = fmt.Sprintf("%s (%s)", m.hello.Name, m.hello.ConnectionID)
		}
		return SuccessStyle.Render(fmt.Sprintf("%s Connected to %s", IconPeer, name))
	default:
		return MutedStyle.Render("Left the room.")
	}
}
