package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeEmptyUsername     = "empty_username"
	ErrCodeRoomRequired      = "room_required"
	ErrCodeAlreadyRegistered = "already_registered"
	ErrCodeNotJoined         = "not_joined"
)

var (
	// ErrEmptyUsername rejects a handshake whose username is empty after trimming.
	ErrEmptyUsername = errors.New("username is required")
	// ErrRoomRequired rejects a handshake that names no room.
	ErrRoomRequired = errors.New("room is required")
	// ErrAlreadyRegistered means the connection already holds a session.
	ErrAlreadyRegistered = errors.New("connection already registered")
	// ErrNotJoined means the connection has no session (never joined or already left).
	ErrNotJoined = errors.New("connection not joined")
)
