package core

// EventKind is a notification the hub emits to clients.
type EventKind int

const (
	// EventChat notifies clients about a chat message in a room.
	EventChat EventKind = iota
	// EventUserJoined notifies clients about a user joining a room.
	EventUserJoined
	// EventUserLeft notifies clients about a user leaving a room.
	EventUserLeft
	// EventOnlineList delivers the room's current online usernames.
	EventOnlineList
	// EventTyping notifies clients about a typing start/stop transition.
	EventTyping
)

// Event is sent to clients to describe what happened in a room.
type Event struct {
	Kind     EventKind
	Room     string
	User     string
	Users    []string // for EventOnlineList, first-joined order
	IsTyping bool     // for EventTyping
	Message  Message  // for EventChat
}
