package store

import (
	"context"
	"time"
)

// User represents a chat participant known to the system.
type User struct {
	ID       int64
	Username string
	LastSeen *time.Time
}

// Room represents a named chat room.
type Room struct {
	ID   int64
	Name string
}

// Message represents a persisted chat message joined with its sender and
// room names.
type Message struct {
	ID        int64
	Room      string
	Username  string
	Content   string
	CreatedAt time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// EnsureUser returns the user with the given username, creating the row
	// on first sight.
	EnsureUser(ctx context.Context, username string) (*User, error)

	// TouchLastSeen updates the user's last_seen timestamp.
	TouchLastSeen(ctx context.Context, username string, at time.Time) error
}

// RoomStore handles room persistence.
type RoomStore interface {
	// EnsureRoom returns the room with the given name, creating it on the
	// fly when missing.
	EnsureRoom(ctx context.Context, name string) (*Room, error)

	// GetRoomByName retrieves a room by name, or nil when absent.
	GetRoomByName(ctx context.Context, name string) (*Room, error)

	// ListRooms lists all room names sorted alphabetically.
	ListRooms(ctx context.Context) ([]string, error)
}

// MessageStore is the append-only per-room message log.
type MessageStore interface {
	// SaveMessage appends a message to the room's log and returns its id.
	SaveMessage(ctx context.Context, msg *Message) (int64, error)

	// ListRecentMessages returns the most recent limit messages of a room
	// in chronological order.
	ListRecentMessages(ctx context.Context, room string, limit int) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RoomStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
