package registry

import "errors"

var (
	ErrAlreadyExists = errors.New("room already exists")
	ErrNotFound      = errors.New("room not found")
	ErrRoomFull      = errors.New("room is full")
	ErrInvalidName   = errors.New("invalid room name")
)
