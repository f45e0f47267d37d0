// Package server exposes the signaling service over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BioHazard786/roomrelay/internal/config"
	"github.com/BioHazard786/roomrelay/internal/hub"
	"github.com/BioHazard786/roomrelay/internal/registry"
	"github.com/BioHazard786/roomrelay/internal/signaling"
)

const shutdownTimeout = 5 * time.Second

// Server owns one hub, one registry and the service binding them.
type Server struct {
	cfg      config.ServerConfig
	hub      *hub.Hub
	svc      *signaling.Service
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// New builds a server from cfg. Nothing listens until Run or Serve.
func New(cfg config.ServerConfig, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	h := hub.New(cfg.SendBuffer, log)
	reg := registry.New(registry.WithMaxNameLength(cfg.MaxNameLength))

	return &Server{
		cfg:      cfg,
		hub:      h,
		svc:      signaling.NewService(reg, h, log),
		upgrader: newUpgrader(cfg.AllowedOrigins),
		log:      log.With("component", "server"),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthCheck)
	mux.HandleFunc("GET /rooms", s.listRooms)
	mux.HandleFunc("/ws", s.ServeWs)
	return mux
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully: the
// listener closes, every websocket is dropped and in-flight HTTP requests get
// a short grace period.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go s.svc.RunJanitor(janitorCtx, s.cfg.EmptyRoomTTL.Duration, 0)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info("signaling server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	// Hijacked websocket connections are not tracked by http.Server.
	s.hub.Close()

	if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return err
}
