package core

import (
	"testing"
	"time"
)

func TestHubJoinAnnouncesJoinThenOnlineList(t *testing.T) {
	hub := NewHub(nil, nil)

	alice := NewClient("a")
	mustJoin(t, hub, alice, "alice", "general")

	// The joiner sees its own join echo followed by the online list.
	joinEv := mustEvent(t, alice.Events, EventUserJoined)
	if joinEv.User != "alice" || joinEv.Room != "general" {
		t.Fatalf("unexpected join event: %+v", joinEv)
	}
	listEv := mustEvent(t, alice.Events, EventOnlineList)
	if !equalUsers(listEv.Users, []string{"alice"}) {
		t.Fatalf("unexpected online list: %v", listEv.Users)
	}

	bob := NewClient("b")
	mustJoin(t, hub, bob, "bob", "general")

	// Both sides observe bob's join and the refreshed list, in that order.
	for _, events := range []chan *Event{alice.Events, bob.Events} {
		joinEv = mustEvent(t, events, EventUserJoined)
		if joinEv.User != "bob" {
			t.Fatalf("unexpected join event: %+v", joinEv)
		}
		listEv = mustEvent(t, events, EventOnlineList)
		if !equalUsers(listEv.Users, []string{"alice", "bob"}) {
			t.Fatalf("unexpected online list: %v", listEv.Users)
		}
	}
}

func TestHubJoinValidation(t *testing.T) {
	hub := NewHub(nil, nil)

	if err := hub.Join(NewClient("a"), "   ", "general"); err != ErrEmptyUsername {
		t.Fatalf("expected ErrEmptyUsername, got %v", err)
	}
	if err := hub.Join(NewClient("b"), "alice", ""); err != ErrRoomRequired {
		t.Fatalf("expected ErrRoomRequired, got %v", err)
	}

	alice := NewClient("c")
	mustJoin(t, hub, alice, "alice", "general")
	if err := hub.Join(alice, "alice", "general"); err != ErrAlreadyRegistered {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestHubJoinTrimsUsername(t *testing.T) {
	hub := NewHub(nil, nil)

	alice := NewClient("a")
	mustJoin(t, hub, alice, "  alice  ", "general")

	joinEv := mustEvent(t, alice.Events, EventUserJoined)
	if joinEv.User != "alice" {
		t.Fatalf("username not trimmed: %q", joinEv.User)
	}
}

func TestHubChatBroadcastAndPersist(t *testing.T) {
	sink := &recordingSink{}
	hub := NewHub(sink, nil)

	alice := NewClient("a")
	bob := NewClient("b")
	mustJoin(t, hub, alice, "alice", "general")
	mustJoin(t, hub, bob, "bob", "general")

	if err := hub.Chat(alice, "hi"); err != nil {
		t.Fatalf("chat: %v", err)
	}

	for _, events := range []chan *Event{alice.Events, bob.Events} {
		ev := mustEvent(t, events, EventChat)
		if ev.User != "alice" || ev.Message.Text != "hi" || ev.Room != "general" {
			t.Fatalf("unexpected chat event: %+v", ev)
		}
		if ev.Message.CreatedAt.IsZero() {
			t.Fatal("chat event missing server timestamp")
		}
	}

	msgs := sink.waitForCount(t, 1)
	if msgs[0].From != "alice" || msgs[0].Text != "hi" || msgs[0].Room != "general" {
		t.Fatalf("unexpected persisted message: %+v", msgs[0])
	}
}

func TestHubEmptyChatDroppedSilently(t *testing.T) {
	sink := &recordingSink{}
	hub := NewHub(sink, nil)

	alice := NewClient("a")
	bob := NewClient("b")
	mustJoin(t, hub, alice, "alice", "general")
	mustJoin(t, hub, bob, "bob", "general")

	// Drain the join/list events first.
	mustEvent(t, bob.Events, EventOnlineList)

	for _, content := range []string{"", "   ", "\n\t"} {
		if err := hub.Chat(alice, content); err != nil {
			t.Fatalf("chat(%q): %v", content, err)
		}
	}

	mustNoEvent(t, bob.Events, 100*time.Millisecond)
	if sink.count() != 0 {
		t.Fatalf("empty messages were persisted: %d", sink.count())
	}
}

func TestHubChatWithoutJoinRejected(t *testing.T) {
	hub := NewHub(nil, nil)

	if err := hub.Chat(NewClient("a"), "hi"); err != ErrNotJoined {
		t.Fatalf("expected ErrNotJoined, got %v", err)
	}
}

func TestHubLeaveAnnouncesOnceUnderRepeatedCalls(t *testing.T) {
	hub := NewHub(nil, nil)

	alice := NewClient("a")
	bob := NewClient("b")
	mustJoin(t, hub, alice, "alice", "general")
	mustJoin(t, hub, bob, "bob", "general")
	mustEvent(t, alice.Events, EventOnlineList) // drain alice's own join
	mustEvent(t, alice.Events, EventOnlineList) // drain bob's join

	// Disconnect detected from several code paths at once.
	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		go func() {
			hub.Leave(bob)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 3; i++ {
		<-done
	}

	leftEv := mustEvent(t, alice.Events, EventUserLeft)
	if leftEv.User != "bob" {
		t.Fatalf("unexpected leave event: %+v", leftEv)
	}
	listEv := mustEvent(t, alice.Events, EventOnlineList)
	if !equalUsers(listEv.Users, []string{"alice"}) {
		t.Fatalf("unexpected online list after leave: %v", listEv.Users)
	}
	mustNoEvent(t, alice.Events, 100*time.Millisecond)

	if bob.State() != StateClosed {
		t.Fatalf("expected bob closed, state: %v", bob.State())
	}
}

func TestHubOnlineListFirstJoinedOrder(t *testing.T) {
	hub := NewHub(nil, nil)

	clients := map[string]*Client{}
	for _, name := range []string{"alice", "bob", "carol"} {
		c := NewClient(name)
		clients[name] = c
		mustJoin(t, hub, c, name, "general")
	}

	if got := hub.Online("general"); !equalUsers(got, []string{"alice", "bob", "carol"}) {
		t.Fatalf("unexpected online order: %v", got)
	}

	hub.Leave(clients["bob"])
	if got := hub.Online("general"); !equalUsers(got, []string{"alice", "carol"}) {
		t.Fatalf("unexpected online order after leave: %v", got)
	}

	if got := hub.Online("ghost"); len(got) != 0 {
		t.Fatalf("unknown room should be empty, got %v", got)
	}
}

func TestHubSameUsernameTwoConnections(t *testing.T) {
	hub := NewHub(nil, nil)

	first := NewClient("a1")
	second := NewClient("a2")
	observer := NewClient("o")
	mustJoin(t, hub, observer, "olga", "general")
	mustJoin(t, hub, first, "alice", "general")
	mustJoin(t, hub, second, "alice", "general")

	// Two join announcements, but the list stays distinct.
	mustEvent(t, observer.Events, EventUserJoined)
	mustEvent(t, observer.Events, EventUserJoined)
	listEv := mustEvent(t, observer.Events, EventOnlineList)
	if !equalUsers(listEv.Users, []string{"olga", "alice"}) {
		t.Fatalf("unexpected online list: %v", listEv.Users)
	}

	// Dropping one connection keeps the username online.
	hub.Leave(first)
	mustEvent(t, observer.Events, EventUserLeft)
	listEv = mustEvent(t, observer.Events, EventOnlineList)
	if !equalUsers(listEv.Users, []string{"olga", "alice"}) {
		t.Fatalf("username went offline too early: %v", listEv.Users)
	}

	hub.Leave(second)
	mustEvent(t, observer.Events, EventUserLeft)
	listEv = mustEvent(t, observer.Events, EventOnlineList)
	if !equalUsers(listEv.Users, []string{"olga"}) {
		t.Fatalf("unexpected online list after both left: %v", listEv.Users)
	}
}

func TestHubRoomsAreIndependent(t *testing.T) {
	hub := NewHub(nil, nil)

	alice := NewClient("a")
	bob := NewClient("b")
	mustJoin(t, hub, alice, "alice", "general")
	mustJoin(t, hub, bob, "bob", "random")
	mustEvent(t, bob.Events, EventOnlineList) // drain bob's own join

	if err := hub.Chat(alice, "hi general"); err != nil {
		t.Fatalf("chat: %v", err)
	}

	mustEvent(t, alice.Events, EventChat)
	mustNoEvent(t, bob.Events, 100*time.Millisecond)
}

func TestHubPerRoomEventOrderIsIdenticalForAllRecipients(t *testing.T) {
	hub := NewHub(nil, nil)

	alice := NewClient("a")
	bob := NewClient("b")
	mustJoin(t, hub, alice, "alice", "general")
	mustJoin(t, hub, bob, "bob", "general")

	const n = 10
	for i := 0; i < n; i++ {
		if err := hub.Chat(alice, string(rune('a'+i))); err != nil {
			t.Fatalf("chat %d: %v", i, err)
		}
	}

	var aliceSeen, bobSeen []string
	for i := 0; i < n; i++ {
		aliceSeen = append(aliceSeen, mustEvent(t, alice.Events, EventChat).Message.Text)
		bobSeen = append(bobSeen, mustEvent(t, bob.Events, EventChat).Message.Text)
	}
	if !equalUsers(aliceSeen, bobSeen) {
		t.Fatalf("recipients observed different orders:\n%v\n%v", aliceSeen, bobSeen)
	}
}

func TestHubSlowConsumerIsDeregistered(t *testing.T) {
	hub := NewHub(nil, nil)

	alice := NewClient("a")
	bob := NewClient("b") // never drained
	mustJoin(t, hub, alice, "alice", "general")
	mustJoin(t, hub, bob, "bob", "general")

	// Collect alice's events in the background so she never backs up.
	collected := make(chan *Event, 1024)
	go func() {
		for ev := range alice.Events {
			collected <- ev
		}
	}()

	// Overflow bob's buffer; the failed sends must schedule his cleanup
	// without breaking delivery to alice.
	for i := 0; i < 2*cap(bob.Events); i++ {
		if err := hub.Chat(alice, "spam"); err != nil {
			t.Fatalf("chat %d: %v", i, err)
		}
	}

	leftEv := mustEvent(t, collected, EventUserLeft)
	if leftEv.User != "bob" {
		t.Fatalf("unexpected leave event: %+v", leftEv)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := hub.Online("general"); equalUsers(got, []string{"alice"}) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("slow consumer still online: %v", hub.Online("general"))
}

func TestHubPersistFailureDoesNotBlockBroadcast(t *testing.T) {
	sink := &recordingSink{err: errSinkDown}
	hub := NewHub(sink, nil)

	alice := NewClient("a")
	mustJoin(t, hub, alice, "alice", "general")

	if err := hub.Chat(alice, "hi"); err != nil {
		t.Fatalf("chat: %v", err)
	}

	// Live delivery still happens even though the append fails.
	ev := mustEvent(t, alice.Events, EventChat)
	if ev.Message.Text != "hi" {
		t.Fatalf("unexpected chat event: %+v", ev)
	}
}
