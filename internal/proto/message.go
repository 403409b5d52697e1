package proto

// Frame types carried in the "type" field, both directions.
const (
	TypeChat       = "chat"
	TypeTyping     = "typing"
	TypeJoin       = "join"
	TypeLeave      = "leave"
	TypeOnlineList = "online_list"
)

// Inbound is a client frame. The type tag decides which fields matter;
// unknown tags and unparseable frames are dropped by the transport.
type Inbound struct {
	Type     string `json:"type"`
	Content  string `json:"content,omitempty"`
	IsTyping *bool  `json:"isTyping,omitempty"`
}

// ChatEvent is broadcast for every chat message in a room.
type ChatEvent struct {
	Type      string `json:"type"`
	Room      string `json:"room"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// PresenceEvent announces a user joining or leaving a room.
type PresenceEvent struct {
	Type     string `json:"type"`
	Room     string `json:"room"`
	Username string `json:"username"`
}

// OnlineListEvent carries the room's online usernames in first-joined order.
type OnlineListEvent struct {
	Type  string   `json:"type"`
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// TypingEvent announces a typing start/stop transition. Recipients filter
// out their own username client-side.
type TypingEvent struct {
	Type     string `json:"type"`
	Room     string `json:"room"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}
