package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/roomrelay/internal/client"
	"github.com/BioHazard786/roomrelay/internal/config"
	"github.com/BioHazard786/roomrelay/internal/ui"
)

const (
	connectTimeout = 10 * time.Second
	replyTimeout   = 10 * time.Second
)

// Client flags shared by every client command.
var (
	flagURL      string
	flagSTUN     string
	flagTURN     string
	flagTURNUser string
	flagTURNPass string
)

// ConnectionContext is a live signaling connection with its identity.
type ConnectionContext struct {
	Client  *client.Client
	Handler *client.Handler
	Config  *config.Config
	Self    string
}

func LoadConfig(opts config.Options) (*config.Config, error) {
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, NewError("load config", err)
	}
	return cfg, nil
}

func loadClientConfig() (*config.Config, error) {
	return LoadConfig(config.Options{
		ConfigFile: flagConfig,
		URL:        flagURL,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
	})
}

// NewConnectionContext connects to the server and waits for its hello.
func NewConnectionContext(ctx context.Context, cfg *config.Config) (*ConnectionContext, error) {
	stopSpinner := ui.RunConnectionSpinner("Connecting to server...")
	defer stopSpinner()

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	c := client.New(cfg.Client.URL, slog.Default())
	if err := c.Connect(dialCtx); err != nil {
		return nil, NewError("connect to server", err)
	}

	h := client.NewHandler(c)
	go h.Start()

	self, err := h.WaitConnected(ctx, connectTimeout)
	if err != nil {
		c.Close()
		return nil, NewError("connect to server", err)
	}

	return &ConnectionContext{
		Client:  c,
		Handler: h,
		Config:  cfg,
		Self:    self,
	}, nil
}

func (c *ConnectionContext) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}

// await waits for a value on ch, a server error or the reply timeout.
func await[T any](ctx context.Context, c *ConnectionContext, op string, ch <-chan T) (T, error) {
	var zero T
	timer := time.NewTimer(replyTimeout)
	defer timer.Stop()

	select {
	case v, ok := <-ch:
		if !ok {
			return zero, NewError(op, ErrUnexpectedClose)
		}
		return v, nil
	case serr, ok := <-c.Handler.Error:
		if !ok {
			return zero, NewError(op, ErrUnexpectedClose)
		}
		return zero, NewError(op, serr)
	case <-timer.C:
		return zero, NewError(op, ErrTimeout)
	case <-ctx.Done():
		return zero, NewError(op, ctx.Err())
	}
}

func addClientFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&flagURL, "url", "u", "", "Signaling server WebSocket URL")
	fs.StringVarP(&flagSTUN, "stun", "s", "", "Custom STUN server")
	fs.StringVarP(&flagTURN, "turn", "t", "", "Custom TURN server")
	fs.StringVar(&flagTURNUser, "turn-user", "", "TURN username")
	fs.StringVar(&flagTURNPass, "turn-pass", "", "TURN password")
}
