package peer

import "errors"

var (
	ErrPeerDisconnected  = errors.New("peer disconnected")
	ErrUnexpectedSignal  = errors.New("unexpected signal")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrConnectionFailed  = errors.New("peer connection failed")
)
