package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// HistorySink is the append-only message log the hub writes chat messages
// to. Implementations must be safe for concurrent use.
type HistorySink interface {
	Append(ctx context.Context, msg Message) (int64, error)
}

// Session binds a username to one live connection within one room.
type Session struct {
	Username string
	Room     string
	Client   *Client
}

// Hub is the room session coordinator. It owns the session registry and the
// per-room membership tables, routes inbound events (chat, typing) to the
// right room, and fans out broadcasts. Rooms are created lazily on first
// join and never destroyed.
type Hub struct {
	history HistorySink
	log     *zerolog.Logger

	mu       sync.Mutex
	rooms    map[string]*Room
	sessions map[*Client]*Session
}

const persistTimeout = 5 * time.Second

// NewHub creates a hub. history may be nil, in which case chat messages are
// broadcast but not persisted.
func NewHub(history HistorySink, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		history:  history,
		log:      logger,
		rooms:    make(map[string]*Room),
		sessions: make(map[*Client]*Session),
	}
}

// Join completes the handshake for a connection claiming (username, room):
// it registers the session, adds the connection to the room's membership and
// announces the join followed by the refreshed online list to the whole room,
// the joiner included. The username must be non-empty after trimming and the
// room must be named, otherwise the handshake fails with no state mutated.
func (h *Hub) Join(client *Client, username, roomName string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}
	roomName = strings.TrimSpace(roomName)
	if roomName == "" {
		return ErrRoomRequired
	}

	h.mu.Lock()
	if _, exists := h.sessions[client]; exists {
		h.mu.Unlock()
		return ErrAlreadyRegistered
	}
	if !client.markJoined() {
		h.mu.Unlock()
		return ErrAlreadyRegistered
	}
	h.sessions[client] = &Session{Username: username, Room: roomName, Client: client}
	r := h.rooms[roomName]
	if r == nil {
		r = NewRoom(roomName)
		h.rooms[roomName] = r
	}
	h.mu.Unlock()

	// Holding the room lock across both announcements keeps the
	// join/online_list pair contiguous in the room's event order.
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.addLocked(client, username) {
		h.fanoutLocked(r, &Event{Kind: EventUserJoined, Room: roomName, User: username})
		h.fanoutLocked(r, &Event{Kind: EventOnlineList, Room: roomName, Users: r.onlineLocked()})
	}
	h.log.Debug().Str("client_id", client.ID).Str("username", username).Str("room", roomName).Msg("client joined room")
	return nil
}

// Leave runs disconnect cleanup for a connection: deregisters the session,
// removes the connection from its room, clears lingering typing state and
// announces leave plus the refreshed online list. Safe to call from multiple
// code paths; the connection state machine guarantees the announcements
// happen exactly once.
func (h *Hub) Leave(client *Client) {
	if !client.beginClose() {
		// Never joined, or another path already won the transition.
		if client.State() == StateConnecting {
			client.markClosed()
		}
		return
	}

	h.mu.Lock()
	s := h.sessions[client]
	delete(h.sessions, client)
	var r *Room
	if s != nil {
		r = h.rooms[s.Room]
	}
	h.mu.Unlock()

	if s != nil && r != nil {
		r.mu.Lock()
		if r.removeLocked(client) {
			if _, online := r.counts[s.Username]; !online {
				// Last connection for this user: a lost typing=false must
				// not leave the user stuck "typing" for everyone else.
				if r.typing.clear(s.Username) {
					h.fanoutLocked(r, &Event{Kind: EventTyping, Room: r.Name, User: s.Username, IsTyping: false})
				}
			}
			h.fanoutLocked(r, &Event{Kind: EventUserLeft, Room: r.Name, User: s.Username})
			h.fanoutLocked(r, &Event{Kind: EventOnlineList, Room: r.Name, Users: r.onlineLocked()})
		}
		r.mu.Unlock()
		h.log.Debug().Str("client_id", client.ID).Str("username", s.Username).Str("room", s.Room).Msg("client left room")
	}

	client.markClosed()
}

// Chat routes an inbound chat event: assigns the server timestamp, fans the
// message out to the room and appends it to the history sink in the
// background. Empty or whitespace-only content is dropped silently — no
// broadcast, no persistence. The broadcast never waits on persistence;
// append failures are logged and not retried.
func (h *Hub) Chat(client *Client, content string) error {
	s := h.sessionOf(client)
	if s == nil {
		return ErrNotJoined
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	msg := Message{
		Room:      s.Room,
		From:      s.Username,
		Text:      content,
		CreatedAt: time.Now().UTC(),
	}

	r := h.room(s.Room)
	if r == nil {
		return ErrNotJoined
	}
	r.mu.Lock()
	h.fanoutLocked(r, &Event{Kind: EventChat, Room: s.Room, User: s.Username, Message: msg})
	r.mu.Unlock()

	if h.history != nil {
		go h.persist(msg)
	}
	return nil
}

// Typing routes an inbound typing signal through the room's debounce
// tracker and broadcasts only start/stop transitions, sender included.
func (h *Hub) Typing(client *Client, isTyping bool) error {
	s := h.sessionOf(client)
	if s == nil {
		return ErrNotJoined
	}
	r := h.room(s.Room)
	if r == nil {
		return ErrNotJoined
	}

	r.mu.Lock()
	if r.typing.set(s.Username, isTyping) {
		h.fanoutLocked(r, &Event{Kind: EventTyping, Room: s.Room, User: s.Username, IsTyping: isTyping})
	}
	r.mu.Unlock()
	return nil
}

// Online returns the distinct usernames currently joined to the room, in
// first-joined order. Unknown or empty rooms yield an empty list.
func (h *Hub) Online(roomName string) []string {
	r := h.room(roomName)
	if r == nil {
		return []string{}
	}
	return r.Online()
}

func (h *Hub) sessionOf(client *Client) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[client]
}

func (h *Hub) room(name string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[name]
}

// fanoutLocked broadcasts under the room lock and schedules deregistration
// for every recipient the send failed for. Cleanup runs on its own goroutine
// so the broadcast never blocks on a bad recipient.
func (h *Hub) fanoutLocked(r *Room, ev *Event) {
	for _, c := range r.broadcastLocked(ev) {
		go h.Leave(c)
	}
}

func (h *Hub) persist(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if _, err := h.history.Append(ctx, msg); err != nil {
		h.log.Error().Err(err).Str("room", msg.Room).Str("username", msg.From).Msg("persist chat message")
	}
}
