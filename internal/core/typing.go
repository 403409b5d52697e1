package core

import "time"

// typingWindow is how long a typing mark stays fresh without a refresh.
// It mirrors the client's display window; the server never runs its own
// expiry timer — a stale mark is simply treated as absent on the next signal.
const typingWindow = 1500 * time.Millisecond

// typingTracker holds per-user ephemeral typing state for one room and
// collapses keystroke-driven signals into start/stop transitions. Not safe
// for concurrent use on its own; the owning room's lock serializes access.
type typingTracker struct {
	expiry map[string]time.Time
	now    func() time.Time
}

func newTypingTracker() *typingTracker {
	return &typingTracker{
		expiry: make(map[string]time.Time),
		now:    time.Now,
	}
}

// set records a typing signal for username. Returns true when the signal is
// a transition that should be broadcast: the first true after being idle
// (or after the previous mark went stale), or a false while marked typing.
// A repeated true only refreshes the expiry; a false while idle is a no-op.
func (t *typingTracker) set(username string, isTyping bool) bool {
	deadline, marked := t.expiry[username]
	if marked && t.now().After(deadline) {
		marked = false
	}

	if isTyping {
		t.expiry[username] = t.now().Add(typingWindow)
		return !marked
	}

	delete(t.expiry, username)
	return marked
}

// clear drops any typing mark for username, reporting whether one was live.
// Used on disconnect so a lost final false does not leave the user stuck
// "typing" for everyone else.
func (t *typingTracker) clear(username string) bool {
	deadline, marked := t.expiry[username]
	if !marked {
		return false
	}
	delete(t.expiry, username)
	return !t.now().After(deadline)
}
