package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errSinkDown = errors.New("sink down")

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
			return nil
		}
	}
}

func mustNoEvent(t *testing.T, ch <-chan *Event, wait time.Duration) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("expected no event, got %+v", ev)
	case <-time.After(wait):
	}
}

func mustJoin(t *testing.T, hub *Hub, client *Client, username, room string) {
	t.Helper()

	if err := hub.Join(client, username, room); err != nil {
		t.Fatalf("join %s to %s: %v", username, room, err)
	}
}

func equalUsers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// recordingSink captures appended messages for assertions.
type recordingSink struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (r *recordingSink) Append(_ context.Context, msg Message) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	r.msgs = append(r.msgs, msg)
	return int64(len(r.msgs)), nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func (r *recordingSink) waitForCount(t *testing.T, n int) []Message {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.count() >= n {
			r.mu.Lock()
			defer r.mu.Unlock()
			out := make([]Message, len(r.msgs))
			copy(out, r.msgs)
			return out
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d persisted messages, have %d", n, r.count())
	return nil
}
