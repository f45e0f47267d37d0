package server

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/BioHazard786/roomrelay/internal/hub"
	"github.com/BioHazard786/roomrelay/internal/protocol"
	"github.com/BioHazard786/roomrelay/internal/signaling"
)

func newUpgrader(allowed []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  64 * 1024, // 64 KB
		WriteBufferSize: 64 * 1024, // 64 KB
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			// Non-browser clients send no Origin.
			return origin == "" || slices.Contains(allowed, origin)
		},
	}
}

// ServeWs upgrades the request and runs the connection until it ends.
func (s *Server) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("failed to upgrade connection", "remote", r.RemoteAddr, "err", err)
		return
	}

	id := uuid.NewString()
	client := hub.NewClient(s.hub, id, conn)
	s.hub.Register(client)
	s.svc.Connected(id)

	go client.WritePump()
	go func() {
		client.ReadPump(func(msg *protocol.Message) {
			s.svc.Handle(id, msg)
		})
		// Unregister first so nothing is sent to the closed connection.
		s.hub.Unregister(id)
		s.svc.Disconnected(id)
	}()
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling server is healthy."))
}

func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	listing := signaling.Listing(s.svc.Registry().ListRooms())

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(listing); err != nil {
		s.log.Debug("write room listing", "err", err)
	}
}
