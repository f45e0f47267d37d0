package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/BioHazard786/roomrelay/internal/peer"
	"github.com/BioHazard786/roomrelay/internal/ui"
)

var flagName string

var joinCmd = &cobra.Command{
	Use:     "join <room-id>",
	Aliases: []string{"j"},
	Short:   "Join a room and connect to the other participant",
	Long: `Join a room as a WebRTC peer. Once a second participant is in the room the
first one to have joined makes the offer, both sides exchange candidates and
greet each other over a data channel.

Examples:
  roomrelay join 3
  roomrelay join 3 --stun stun:stun.example.com:3478`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRoomID(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadClientConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		conn, err := NewConnectionContext(ctx, cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		return runJoin(ctx, conn, id)
	},
}

// runJoin drives a peer session in room id behind the join view.
func runJoin(ctx context.Context, conn *ConnectionContext, id int64) error {
	sess, err := peer.NewSession(conn.Config.Client, conn.Client, conn.Self, peerName(), slog.Default())
	if err != nil {
		return NewError("create session", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewJoinModel(id)
	program := tea.NewProgram(model)

	var hello *peer.Hello
	runDone := make(chan error, 1)
	forwardDone := make(chan struct{})
	go func() {
		err := sess.Run(ctx, conn.Handler, id)
		runDone <- err
		program.Send(ui.DoneMsg{Err: err})
	}()
	go func() {
		defer close(forwardDone)
		for {
			select {
			case st := <-sess.States():
				program.Send(ui.StateMsg(st))
			case h := <-sess.Hello():
				hello = &h
				program.Send(ui.HelloMsg(h))
			case <-ctx.Done():
				return
			}
		}
	}()

	_, uiErr := program.Run()
	cancel()
	runErr := <-runDone
	<-forwardDone
	if uiErr != nil {
		return NewError("run ui", uiErr)
	}

	summary := ui.SessionSummary{
		Room:    id,
		Role:    "responder",
		Self:    conn.Self,
		Peer:    sess.Remote(),
		Outcome: outcome(runErr, sess.State()),
	}
	if sess.IsInitiator() {
		summary.Role = "initiator"
	}
	if hello != nil {
		summary.PeerName = hello.Name
	}
	fmt.Println(ui.SessionSummaryView(summary))

	if runErr != nil && !errors.Is(runErr, peer.ErrPeerDisconnected) {
		return NewError("join room", runErr)
	}
	return nil
}

func outcome(err error, last peer.State) string {
	switch {
	case errors.Is(err, peer.ErrPeerDisconnected):
		return "peer left"
	case err != nil:
		return err.Error()
	default:
		return "left (" + last.String() + ")"
	}
}

func parseRoomID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, WrapError("parse room id", ErrInvalidRoomID, s)
	}
	return id, nil
}

func peerName() string {
	if flagName != "" {
		return flagName
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return "roomrelay"
}

func init() {
	rootCmd.AddCommand(joinCmd)

	addClientFlags(joinCmd)
	joinCmd.Flags().StringVarP(&flagName, "name", "n", "", "Name announced to the other peer (default: hostname)")
}
