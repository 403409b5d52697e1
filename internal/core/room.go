package core

import "sync"

// Room is the membership table and broadcaster for one named channel. Each
// room has its own lock; unrelated rooms never contend. All methods suffixed
// Locked require mu to be held — the hub holds it across a whole join/leave/
// send sequence so every recipient observes the same event order.
type Room struct {
	Name string

	mu      sync.Mutex
	clients map[*Client]string // connection -> username
	counts  map[string]int     // username -> live connection count
	order   []string           // distinct usernames, first-joined order
	typing  *typingTracker
}

// NewRoom constructs an empty room. Rooms are never destroyed; an empty room
// stays valid and joinable for the process lifetime.
func NewRoom(name string) *Room {
	return &Room{
		Name:    name,
		clients: make(map[*Client]string),
		counts:  make(map[string]int),
		typing:  newTypingTracker(),
	}
}

// addLocked inserts a client into the room. Idempotent: returns false if the
// client is already present, in which case the caller must not announce a
// second join.
func (r *Room) addLocked(c *Client, username string) bool {
	if _, exists := r.clients[c]; exists {
		return false
	}
	r.clients[c] = username
	r.counts[username]++
	if r.counts[username] == 1 {
		r.order = append(r.order, username)
	}
	return true
}

// removeLocked deletes a client from the room; no-op if absent.
func (r *Room) removeLocked(c *Client) bool {
	username, exists := r.clients[c]
	if !exists {
		return false
	}
	delete(r.clients, c)
	r.counts[username]--
	if r.counts[username] == 0 {
		delete(r.counts, username)
		for i, u := range r.order {
			if u == username {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	return true
}

// onlineLocked returns a snapshot of distinct online usernames in
// first-joined order. The copy is the caller's to keep.
func (r *Room) onlineLocked() []string {
	users := make([]string, len(r.order))
	copy(users, r.order)
	return users
}

// broadcastLocked delivers an event to every client currently in the room,
// best-effort and non-blocking per recipient. A failed send never aborts
// delivery to the rest; the clients it failed for are returned so the hub
// can schedule their deregistration.
func (r *Room) broadcastLocked(ev *Event) []*Client {
	var failed []*Client
	for c := range r.clients {
		if !c.send(ev) {
			failed = append(failed, c)
		}
	}
	return failed
}

// Online returns the room's online usernames snapshot.
func (r *Room) Online() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.onlineLocked()
}
