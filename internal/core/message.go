package core

import "time"

// Message is the domain model for a chat message. Immutable once created;
// the timestamp is assigned by the hub at receipt.
type Message struct {
	ID        int64
	Room      string
	From      string
	Text      string
	CreatedAt time.Time
}
