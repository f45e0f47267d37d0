package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/roomrelay/internal/config"
	"github.com/BioHazard786/roomrelay/internal/logging"
	"github.com/BioHazard786/roomrelay/internal/server"
)

var (
	flagAddr    string
	flagOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signaling server",
	Long: `Run the signaling server. Clients connect over WebSocket at /ws; /health and
/rooms are plain HTTP.

Examples:
  roomrelay serve
  roomrelay serve --addr :9000 --origin https://app.example.com
  roomrelay serve --config roomrelay.toml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The server logs at info unless LOG_LEVEL says otherwise.
		logger := logging.Init(slog.LevelInfo)

		cfg, err := LoadConfig(config.Options{
			ConfigFile:     flagConfig,
			Addr:           flagAddr,
			AllowedOrigins: flagOrigins,
		})
		if err != nil {
			return err
		}

		if err := server.New(cfg.Server, logger).Run(cmd.Context()); err != nil {
			return NewError("serve", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&flagAddr, "addr", "a", "", "Listen address (default :8080)")
	serveCmd.Flags().StringSliceVar(&flagOrigins, "origin", nil, "Allowed Origin header, repeatable (default: any)")
}
