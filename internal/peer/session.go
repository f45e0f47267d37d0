// Package peer runs one side of a room's WebRTC negotiation over the
// signaling server.
package peer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/BioHazard786/roomrelay/internal/client"
	"github.com/BioHazard786/roomrelay/internal/config"
	"github.com/BioHazard786/roomrelay/internal/protocol"
	"github.com/BioHazard786/roomrelay/internal/version"
)

const dataChannelLabel = "roomrelay"

// Sender delivers messages to the signaling server.
type Sender interface {
	Send(msg *protocol.Message) error
}

// Session is one peer's view of a room: its negotiation state and the
// underlying peer connection. The On* methods must be called from a single
// goroutine, in the order the server sent the corresponding messages; Run
// does that.
type Session struct {
	out  Sender
	self string
	name string
	log  *slog.Logger

	pc         *pion.PeerConnection
	candidates candidateQueue

	mu        sync.Mutex
	state     State
	roomID    int64
	initiator bool
	remote    string

	states    chan State
	hello     chan Hello
	failed    chan struct{}
	closeOnce sync.Once
	leaveOnce sync.Once
	failOnce  sync.Once
}

// NewSession creates a session for the connection self. name is announced to
// the remote peer in the hello.
func NewSession(cfg config.ClientConfig, out Sender, self, name string, log *slog.Logger) (*Session, error) {
	if log == nil {
		log = slog.Default()
	}

	pc, err := newPeerConnection(cfg)
	if err != nil {
		return nil, err
	}

	s := &Session{
		out:    out,
		self:   self,
		name:   name,
		log:    log.With("component", "peer", "conn", self),
		pc:     pc,
		states: make(chan State, 8),
		hello:  make(chan Hello, 1),
		failed: make(chan struct{}),
	}
	s.setupHandlers()
	return s, nil
}

func newPeerConnection(cfg config.ClientConfig) (*pion.PeerConnection, error) {
	var iceServers []pion.ICEServer
	if stun := cfg.GetSTUNServers(); stun != nil {
		iceServers = append(iceServers, pion.ICEServer{URLs: stun})
	}
	if turn := cfg.GetTURNServers(); turn != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, pion.ICEServer{
			URLs:       turn,
			Username:   username,
			Credential: password,
		})
	}

	pc, err := pion.NewPeerConnection(pion.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}
	return pc, nil
}

func (s *Session) setupHandlers() {
	s.pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		cand := c.ToJSON()
		if err := s.signal(Signal{Type: SignalCandidate, Candidate: &cand}); err != nil {
			s.log.Debug("send candidate", "err", err)
		}
	})

	s.pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		s.log.Debug("connection state", "state", state.String())
		if state == pion.PeerConnectionStateFailed {
			s.failOnce.Do(func() { close(s.failed) })
		}
	})

	// The responder's data channel is created by the initiator's offer.
	s.pc.OnDataChannel(s.attach)
}

// attach wires the hello exchange onto dc.
func (s *Session) attach(dc *pion.DataChannel) {
	dc.OnOpen(func() {
		data, err := encodeHello(Hello{ConnectionID: s.self, Name: s.name, Version: version.Version})
		if err != nil {
			s.log.Error("encode hello", "err", err)
			return
		}
		if err := dc.Send(data); err != nil {
			s.log.Warn("send hello", "err", err)
		}
	})

	dc.OnMessage(func(msg pion.DataChannelMessage) {
		h, err := decodeHello(msg.Data)
		if err != nil {
			s.log.Warn("bad data channel message", "err", err)
			return
		}
		if err := s.move(StateNegotiated); err != nil {
			s.log.Debug("hello ignored", "err", err)
			return
		}
		select {
		case s.hello <- h:
		default:
		}
	})
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsInitiator reports whether this side makes the offer.
func (s *Session) IsInitiator() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initiator
}

// Remote returns the connection id of the other participant, once known.
func (s *Session) Remote() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remote
}

// States delivers state changes. Slow readers miss intermediate states.
func (s *Session) States() <-chan State {
	return s.states
}

// Hello delivers the remote peer's hello once negotiation completes.
func (s *Session) Hello() <-chan Hello {
	return s.hello
}

func (s *Session) move(to State) error {
	s.mu.Lock()
	from := s.state
	if !from.canMove(to) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	s.state = to
	s.mu.Unlock()

	s.log.Debug("state", "from", from.String(), "to", to.String())
	select {
	case s.states <- to:
	default:
	}
	return nil
}

// Join asks the server to admit this session into room id.
func (s *Session) Join(id int64) error {
	if err := s.move(StateJoining); err != nil {
		return err
	}
	s.mu.Lock()
	s.roomID = id
	s.mu.Unlock()

	return s.out.Send(&protocol.Message{Type: protocol.TypeJoinRoom, RoomID: id})
}

// OnJoined handles the server's join confirmation.
func (s *Session) OnJoined(p protocol.JoinedPayload) error {
	if p.RoomID != s.room() {
		return nil
	}
	return s.move(StateWaiting)
}

// OnReady starts negotiation. The initiator creates the data channel and
// sends the offer; the responder waits for it.
func (s *Session) OnReady(p protocol.ReadyPayload) error {
	if p.RoomID != s.room() {
		return nil
	}
	if err := s.move(StateNegotiating); err != nil {
		return err
	}

	initiator := p.Initiator == s.self
	s.mu.Lock()
	s.initiator = initiator
	s.mu.Unlock()

	if !initiator {
		return nil
	}

	ordered := true
	dc, err := s.pc.CreateDataChannel(dataChannelLabel, &pion.DataChannelInit{Ordered: &ordered})
	if err != nil {
		return fmt.Errorf("create data channel: %w", err)
	}
	s.attach(dc)

	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if err := s.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}
	return s.signal(Signal{Type: SignalOffer, SDP: offer.SDP})
}

// OnSignal applies a negotiation message relayed from the remote peer.
func (s *Session) OnSignal(from string, raw json.RawMessage) error {
	sig, err := ParseSignal(raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.remote = from
	initiator := s.initiator
	s.mu.Unlock()

	switch sig.Type {
	case SignalOffer:
		if initiator {
			return fmt.Errorf("%w: offer sent to the initiator", ErrUnexpectedSignal)
		}
		if err := s.setRemote(pion.SDPTypeOffer, sig.SDP); err != nil {
			return err
		}
		answer, err := s.pc.CreateAnswer(nil)
		if err != nil {
			return fmt.Errorf("create answer: %w", err)
		}
		if err := s.pc.SetLocalDescription(answer); err != nil {
			return fmt.Errorf("set local description: %w", err)
		}
		return s.signal(Signal{Type: SignalAnswer, SDP: answer.SDP})

	case SignalAnswer:
		if !initiator {
			return fmt.Errorf("%w: answer sent to the responder", ErrUnexpectedSignal)
		}
		return s.setRemote(pion.SDPTypeAnswer, sig.SDP)

	default:
		if !s.candidates.add(*sig.Candidate) {
			s.log.Debug("candidate queued", "pending", s.candidates.len())
			return nil
		}
		if err := s.pc.AddICECandidate(*sig.Candidate); err != nil {
			return fmt.Errorf("add ICE candidate: %w", err)
		}
		return nil
	}
}

// setRemote sets the remote description and applies queued candidates.
func (s *Session) setRemote(t pion.SDPType, sdp string) error {
	if err := s.pc.SetRemoteDescription(pion.SessionDescription{Type: t, SDP: sdp}); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}
	for _, c := range s.candidates.release() {
		if err := s.pc.AddICECandidate(c); err != nil {
			s.log.Warn("add queued candidate", "err", err)
		}
	}
	return nil
}

// OnPeerLeft ends the session when the other participant goes away.
func (s *Session) OnPeerLeft(p protocol.PeerLeftPayload) error {
	if p.RoomID != s.room() || p.ConnectionID == s.self {
		return nil
	}
	s.log.Info("peer left", "peer", p.ConnectionID)
	s.Close()
	return ErrPeerDisconnected
}

// Leave tells the server this session is done with its room and closes it.
func (s *Session) Leave() {
	if id := s.room(); id != 0 {
		s.leaveOnce.Do(func() {
			if err := s.out.Send(&protocol.Message{Type: protocol.TypeLeaveRoom, RoomID: id}); err != nil {
				s.log.Debug("send leave", "err", err)
			}
		})
	}
	s.Close()
}

// Close releases the peer connection. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.move(StateLeft)
		if err := s.pc.Close(); err != nil {
			s.log.Debug("close peer connection", "err", err)
		}
	})
}

// Run joins room id and drives the session from h until the peer leaves, the
// server connection ends or ctx is done. It returns nil only when ctx ends.
func (s *Session) Run(ctx context.Context, h *client.Handler, id int64) error {
	defer s.Leave()

	if err := s.Join(id); err != nil {
		return err
	}

	for {
		var err error
		select {
		case <-ctx.Done():
			return nil

		case <-s.failed:
			return ErrConnectionFailed

		case m, ok := <-h.Room:
			if !ok {
				return client.ErrConnectionLost
			}
			err = s.Apply(m)

		case e, ok := <-h.Error:
			if !ok {
				return client.ErrConnectionLost
			}
			return e
		}
		if err != nil {
			return err
		}
	}
}

// Apply feeds one room event from the server into the session.
func (s *Session) Apply(msg *protocol.Message) error {
	switch msg.Type {
	case protocol.TypeJoined:
		var p protocol.JoinedPayload
		if err := msg.DecodePayload(&p); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		return s.OnJoined(p)

	case protocol.TypeReady:
		var p protocol.ReadyPayload
		if err := msg.DecodePayload(&p); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		return s.OnReady(p)

	case protocol.TypeMessage:
		return s.OnSignal(msg.From, msg.Payload)

	case protocol.TypePeerLeft:
		var p protocol.PeerLeftPayload
		if err := msg.DecodePayload(&p); err != nil {
			return fmt.Errorf("decode %s: %w", msg.Type, err)
		}
		return s.OnPeerLeft(p)
	}
	s.log.Debug("ignoring room event", "type", msg.Type)
	return nil
}

func (s *Session) room() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

func (s *Session) signal(sig Signal) error {
	return s.out.Send(protocol.New(protocol.TypeSendMessage, s.room(), sig))
}
