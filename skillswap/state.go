package skillswap

import (
	"context"
	"sync"
)

// ConnectionState represents the current state of the transport session.
// Transitions are driven only by the Client; everything else reads.
type ConnectionState int

const (
	// StateDisconnected means no live transport session exists.
	StateDisconnected ConnectionState = iota

	// StateConnecting means a session is being established.
	StateConnecting

	// StateConnected means the session is live and events flow.
	StateConnected
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// gate is a resettable one-shot signal: wait blocks until open or the
// context expires. It replaces fixed-interval readiness polling.
type gate struct {
	mu   sync.Mutex
	ch   chan struct{}
	open bool
}

func newGate() *gate {
	return &gate{ch: make(chan struct{})}
}

func (g *gate) set(open bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if open == g.open {
		return
	}
	g.open = open
	if open {
		close(g.ch)
	} else {
		g.ch = make(chan struct{})
	}
}

func (g *gate) wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.ch
	open := g.open
	g.mu.Unlock()
	if open {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
