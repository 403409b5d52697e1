package core

import (
	"testing"
	"time"
)

func TestTypingTrackerCollapsesBursts(t *testing.T) {
	tr := newTypingTracker()

	if !tr.set("alice", true) {
		t.Fatal("first typing=true should be a start transition")
	}
	if tr.set("alice", true) {
		t.Fatal("repeated typing=true should be suppressed")
	}
	if !tr.set("alice", false) {
		t.Fatal("typing=false while marked should be a stop transition")
	}
	if tr.set("alice", false) {
		t.Fatal("typing=false while idle should be a no-op")
	}
}

func TestTypingTrackerStaleMarkCountsAsAbsent(t *testing.T) {
	tr := newTypingTracker()
	now := time.Now()
	tr.now = func() time.Time { return now }

	if !tr.set("alice", true) {
		t.Fatal("expected start transition")
	}

	now = now.Add(typingWindow + time.Millisecond)
	if !tr.set("alice", true) {
		t.Fatal("typing=true after the window should be a fresh start")
	}

	// A refresh inside the window extends it.
	now = now.Add(typingWindow / 2)
	if tr.set("alice", true) {
		t.Fatal("refresh inside the window should be suppressed")
	}
}

func TestTypingTrackerStaleFalseIsNoop(t *testing.T) {
	tr := newTypingTracker()
	now := time.Now()
	tr.now = func() time.Time { return now }

	tr.set("alice", true)
	now = now.Add(typingWindow + time.Millisecond)

	if tr.set("alice", false) {
		t.Fatal("typing=false after the mark went stale should be a no-op")
	}
}

func TestTypingTrackerClear(t *testing.T) {
	tr := newTypingTracker()
	now := time.Now()
	tr.now = func() time.Time { return now }

	if tr.clear("alice") {
		t.Fatal("clear of unmarked user should report no live mark")
	}

	tr.set("alice", true)
	if !tr.clear("alice") {
		t.Fatal("clear of a live mark should report it")
	}
	if tr.clear("alice") {
		t.Fatal("second clear should be a no-op")
	}

	tr.set("bob", true)
	now = now.Add(typingWindow + time.Millisecond)
	if tr.clear("bob") {
		t.Fatal("clear of a stale mark should report no live mark")
	}
}

func TestHubTypingStartStopTransitions(t *testing.T) {
	hub := NewHub(nil, nil)

	alice := NewClient("a")
	bob := NewClient("b")
	mustJoin(t, hub, alice, "alice", "general")
	mustJoin(t, hub, bob, "bob", "general")
	mustEvent(t, bob.Events, EventOnlineList)

	// Two rapid trues collapse to one start event.
	if err := hub.Typing(alice, true); err != nil {
		t.Fatalf("typing: %v", err)
	}
	if err := hub.Typing(alice, true); err != nil {
		t.Fatalf("typing: %v", err)
	}

	ev := mustEvent(t, bob.Events, EventTyping)
	if ev.User != "alice" || !ev.IsTyping {
		t.Fatalf("unexpected typing event: %+v", ev)
	}
	mustNoEvent(t, bob.Events, 100*time.Millisecond)

	// One false produces exactly one stop event.
	if err := hub.Typing(alice, false); err != nil {
		t.Fatalf("typing: %v", err)
	}
	ev = mustEvent(t, bob.Events, EventTyping)
	if ev.User != "alice" || ev.IsTyping {
		t.Fatalf("unexpected typing event: %+v", ev)
	}

	if err := hub.Typing(alice, false); err != nil {
		t.Fatalf("typing: %v", err)
	}
	mustNoEvent(t, bob.Events, 100*time.Millisecond)
}

func TestHubTypingClearedOnDisconnect(t *testing.T) {
	hub := NewHub(nil, nil)

	alice := NewClient("a")
	bob := NewClient("b")
	mustJoin(t, hub, alice, "alice", "general")
	mustJoin(t, hub, bob, "bob", "general")
	mustEvent(t, bob.Events, EventOnlineList)

	if err := hub.Typing(alice, true); err != nil {
		t.Fatalf("typing: %v", err)
	}
	mustEvent(t, bob.Events, EventTyping)

	// Abrupt disconnect: the lost typing=false is synthesized before leave.
	hub.Leave(alice)

	ev := mustEvent(t, bob.Events, EventTyping)
	if ev.User != "alice" || ev.IsTyping {
		t.Fatalf("expected synthesized typing stop, got %+v", ev)
	}
	mustEvent(t, bob.Events, EventUserLeft)
	listEv := mustEvent(t, bob.Events, EventOnlineList)
	if !equalUsers(listEv.Users, []string{"bob"}) {
		t.Fatalf("unexpected online list: %v", listEv.Users)
	}
}
