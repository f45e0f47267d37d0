package peer

import (
	"encoding/json"
	"fmt"

	pion "github.com/pion/webrtc/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// Negotiation message discriminators.
const (
	SignalOffer     = "offer"
	SignalAnswer    = "answer"
	SignalCandidate = "candidate"
)

// Signal is the negotiation message relayed through the server.
type Signal struct {
	Type      string                 `json:"type"`
	SDP       string                 `json:"sdp,omitempty"`
	Candidate *pion.ICECandidateInit `json:"candidate,omitempty"`
}

// ParseSignal decodes a relayed payload.
func ParseSignal(raw json.RawMessage) (Signal, error) {
	var s Signal
	if err := json.Unmarshal(raw, &s); err != nil {
		return Signal{}, fmt.Errorf("parse signal: %w", err)
	}
	switch s.Type {
	case SignalOffer, SignalAnswer:
		if s.SDP == "" {
			return Signal{}, fmt.Errorf("%w: %s without sdp", ErrUnexpectedSignal, s.Type)
		}
	case SignalCandidate:
		if s.Candidate == nil {
			return Signal{}, fmt.Errorf("%w: candidate without body", ErrUnexpectedSignal)
		}
	default:
		return Signal{}, fmt.Errorf("%w: %q", ErrUnexpectedSignal, s.Type)
	}
	return s, nil
}

// Hello is the first data channel message each side sends.
type Hello struct {
	ConnectionID string `msgpack:"connectionId"`
	Name         string `msgpack:"name"`
	Version      string `msgpack:"version"`
}

func encodeHello(h Hello) ([]byte, error) {
	return msgpack.Marshal(h)
}

func decodeHello(data []byte) (Hello, error) {
	var h Hello
	if err := msgpack.Unmarshal(data, &h); err != nil {
		return Hello{}, fmt.Errorf("decode hello: %w", err)
	}
	return h, nil
}
