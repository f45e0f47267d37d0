package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/BioHazard786/roomrelay/internal/protocol"
)

// RoomStatus describes a room by how many seats are taken.
func RoomStatus(participants, capacity int) string {
	switch {
	case participants == 0:
		return "empty"
	case participants >= capacity:
		return "full"
	default:
		return "waiting"
	}
}

// RoomsTableView renders a room listing.
func RoomsTableView(listing protocol.RoomsUpdatedPayload, capacity int) string {
	if len(listing.Rooms) == 0 {
		return MutedStyle.Render("No rooms")
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Color.Header = text.Colors{text.FgCyan, text.Bold}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignCenter},
	})

	t.AppendHeader(table.Row{"ID", "Name", "Seats", "Status"})
	for _, r := range listing.Rooms {
		t.AppendRow(table.Row{
			r.ID,
			r.Name,
			fmt.Sprintf("%d/%d", len(r.Participants), capacity),
			RoomStatus(len(r.Participants), capacity),
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d rooms", len(listing.Rooms)), "", fmt.Sprintf("v%d", listing.Version)})

	return t.Render()
}

func RenderRoomsTable(listing protocol.RoomsUpdatedPayload, capacity int) {
	fmt.Println(RoomsTableView(listing, capacity))
}

// SessionSummary is shown once a join session ends.
type SessionSummary struct {
	Room     int64
	Role     string
	Self     string
	Peer     string
	PeerName string
	Outcome  string
}

func SessionSummaryView(s SessionSummary) string {
	rows := [][]string{
		{"Room", fmt.Sprintf("%d", s.Room)},
		{"Role", s.Role},
		{"You", s.Self},
		{"Peer", strings.TrimSpace(s.PeerName + " " + s.Peer)},
		{"Outcome", s.Outcome},
	}

	tbl := ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("Session", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == ltable.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

// RoomCreatedView renders the box shown after creating a room.
func RoomCreatedView(id int64, name string) string {
	content := fmt.Sprintf("%s Room Created!\n\n%s Room ID:   %s\n%s Name:      %s\n\n%s",
		IconSuccess,
		IconCopy, BoldStyle.Foreground(Primary).Render(fmt.Sprintf("%d", id)),
		IconRoom, name,
		MutedStyle.Render(fmt.Sprintf("Join with: roomrelay join %d", id)),
	)
	return SuccessBoxStyle.Render(content)
}
