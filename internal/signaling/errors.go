package signaling

import (
	"errors"

	"github.com/BioHazard786/roomrelay/internal/protocol"
	"github.com/BioHazard786/roomrelay/internal/registry"
)

var (
	errEmptyPayload = errors.New("message payload is required")
	errUnknownType  = errors.New("unknown message type")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{registry.ErrAlreadyExists, protocol.CodeAlreadyExists},
	{registry.ErrNotFound, protocol.CodeNotFound},
	{registry.ErrRoomFull, protocol.CodeRoomFull},
	{registry.ErrInvalidName, protocol.CodeInvalidName},
	{errUnknownType, protocol.CodeUnknownType},
}

// errorMessage maps err to the error frame reported to the caller.
func errorMessage(err error) *protocol.Message {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return protocol.NewError(e.code, err.Error())
		}
	}
	return protocol.NewError(protocol.CodeBadRequest, err.Error())
}
