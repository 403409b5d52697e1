package core

import (
	"sync"
	"sync/atomic"
)

// ConnState is the lifecycle state of a client connection.
type ConnState int32

const (
	// StateConnecting is the initial state before the handshake completes.
	StateConnecting ConnState = iota
	// StateJoined means the client holds a session and receives broadcasts.
	StateJoined
	// StateClosing means disconnect cleanup is in progress.
	StateClosing
	// StateClosed is terminal; no further events are delivered.
	StateClosed
)

// Client is one live duplex connection as seen by the hub. Events carries
// outbound broadcasts; the transport's write pump drains it. The state
// machine guards exactly-once cleanup: only the transition Joined -> Closing
// succeeds once, no matter how many paths detect the disconnect.
type Client struct {
	ID     string
	Events chan *Event

	state     atomic.Int32
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a client in the Connecting state.
func NewClient(id string) *Client {
	return &Client{
		ID:     id,
		Events: make(chan *Event, 16),
		done:   make(chan struct{}),
	}
}

// Done is closed when the client reaches the terminal state, so the
// transport's write pump stops even when the hub initiated the close.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// State returns the current lifecycle state.
func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

// markJoined moves Connecting -> Joined. Returns false if the client is not
// in Connecting (e.g. a second handshake on the same connection).
func (c *Client) markJoined() bool {
	return c.state.CompareAndSwap(int32(StateConnecting), int32(StateJoined))
}

// beginClose moves Joined -> Closing. Exactly one caller wins; everyone else
// sees false and must not run cleanup again.
func (c *Client) beginClose() bool {
	return c.state.CompareAndSwap(int32(StateJoined), int32(StateClosing))
}

// markClosed moves the client to the terminal state and releases Done.
func (c *Client) markClosed() {
	c.state.Store(int32(StateClosed))
	c.closeOnce.Do(func() { close(c.done) })
}

// send delivers an event without blocking. Returns false when the client is
// past Joined or its buffer is full (slow consumer); the caller treats false
// as a signal to reconcile membership, never as a hard error.
func (c *Client) send(ev *Event) bool {
	if c.State() != StateJoined {
		return false
	}
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}
