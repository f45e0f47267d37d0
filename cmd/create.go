package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/roomrelay/internal/ui"
)

var flagCreateJoin bool

var createCmd = &cobra.Command{
	Use:     "create <name>",
	Aliases: []string{"c"},
	Short:   "Create a room",
	Long: `Create a room. Names are unique ignoring case. A room nobody joins is removed
after a while.

Examples:
  roomrelay create Lobby
  roomrelay create "Team sync" --join`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		name := strings.Join(args, " ")
		if err := conn.Client.CreateRoom(name); err != nil {
			return NewError("create room", err)
		}
		created, err := await(ctx, conn, "create room", conn.Handler.RoomCreated)
		if err != nil {
			return err
		}

		fmt.Println(ui.RoomCreatedView(created.RoomID, created.Name))

		if !flagCreateJoin {
			return nil
		}
		return runJoin(ctx, conn, created.RoomID)
	},
}

func init() {
	rootCmd.AddCommand(createCmd)

	addClientFlags(createCmd)
	createCmd.Flags().BoolVarP(&flagCreateJoin, "join", "j", false, "Join the room after creating it")
	createCmd.Flags().StringVarP(&flagName, "name", "n", "", "Name announced to the other peer (default: hostname)")
}
