package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/roomrelay/internal/registry"
	"github.com/BioHazard786/roomrelay/internal/ui"
)

var flagWatch bool

var roomsCmd = &cobra.Command{
	Use:     "rooms",
	Aliases: []string{"ls"},
	Short:   "List the rooms on the server",
	Long: `List the rooms on the server.

Examples:
  roomrelay rooms
  roomrelay rooms --watch`,
	Args: cobra.NoArgs,
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

		// The server sends the listing right after its hello.
		listing, err := await(ctx, conn, "list rooms", conn.Handler.Rooms)
		if err != nil {
			return err
		}
		ui.RenderRoomsTable(listing, registry.Capacity)

		if !flagWatch {
			return nil
		}
		for {
			select {
			case <-ctx.Done():
				return nil
			case listing, ok := <-conn.Handler.Rooms:
				if !ok {
					return NewError("watch rooms", ErrUnexpectedClose)
				}
				fmt.Println()
				ui.RenderRoomsTable(listing, registry.Capacity)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(roomsCmd)

	addClientFlags(roomsCmd)
	roomsCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "Keep printing the listing as it changes")
}
