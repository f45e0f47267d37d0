package peer

import "fmt"

// State is where a session is in the room negotiation.
type State int

const (
	StateIdle State = iota
	StateJoining
	StateWaiting
	StateNegotiating
	StateNegotiated
	StateLeft
)

var stateNames = [...]string{
	StateIdle:        "idle",
	StateJoining:     "joining",
	StateWaiting:     "waiting",
	StateNegotiating: "negotiating",
	StateNegotiated:  "negotiated",
	StateLeft:        "left",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// next lists the legal moves out of each state. Any state may move to Left.
var next = map[State][]State{
	StateIdle:        {StateJoining},
	StateJoining:     {StateWaiting},
	StateWaiting:     {StateNegotiating},
	StateNegotiating: {StateNegotiated},
}

func (s State) canMove(to State) bool {
	if to == StateLeft {
		return s != StateLeft
	}
	for _, n := range next[s] {
		if n == to {
			return true
		}
	}
	return false
}
