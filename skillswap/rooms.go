package skillswap

import (
	"context"
	"sync"
	"time"
)

// RoomTracker keeps the transport's room membership equal to the
// currently open conversation (or empty). It owns the "which room am I
// in" bookkeeping so navigation code cannot get the leave/join order
// wrong.
type RoomTracker struct {
	tr       Transport
	logger   Logger
	joinWait time.Duration

	mu     sync.Mutex
	active string
}

// NewRoomTracker constructs a tracker over the given transport.
func NewRoomTracker(tr Transport, cfg Config) *RoomTracker {
	return &RoomTracker{
		tr:       tr,
		logger:   noopLogger{},
		joinWait: cfg.JoinWait,
	}
}

// SetLogger overrides the logger (optional).
func (r *RoomTracker) SetLogger(l Logger) {
	if l == nil {
		return
	}
	r.logger = l
}

// Active returns the conversation id whose room is currently joined.
func (r *RoomTracker) Active() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, r.active != ""
}

// JoinConversation requests room membership for the conversation. When
// the transport is still connecting it waits up to JoinWait for the
// session to come up; past that bound the join is abandoned with
// ErrorJoinSkipped rather than blocking indefinitely.
func (r *RoomTracker) JoinConversation(ctx context.Context, conversationID string) error {
	waitCtx := ctx
	if r.joinWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, r.joinWait)
		defer cancel()
	}
	if err := r.tr.WaitConnected(waitCtx); err != nil {
		r.logger.Warn("join skipped", map[string]any{"matchId": conversationID, "error": err.Error()})
		return WrapError(ErrorJoinSkipped, "transport not connected within join bound", err)
	}
	if err := r.tr.Emit(ctx, emitJoinMatch, RoomPayload{MatchID: conversationID}); err != nil {
		return err
	}
	r.mu.Lock()
	r.active = conversationID
	r.mu.Unlock()
	return nil
}

// LeaveConversation requests removal from the conversation's room. It
// is a no-op when the room was never joined or the transport is down;
// a dead session has no memberships left to leave.
func (r *RoomTracker) LeaveConversation(ctx context.Context, conversationID string) error {
	r.mu.Lock()
	if r.active == conversationID {
		r.active = ""
	}
	r.mu.Unlock()
	if r.tr.State() != StateConnected {
		return nil
	}
	if err := r.tr.Emit(ctx, emitLeaveMatch, RoomPayload{MatchID: conversationID}); err != nil {
		if CodeOf(err) == ErrorConnectionLost {
			return nil
		}
		return err
	}
	return nil
}

// SwitchActiveConversation leaves the previously active room, if any,
// then joins the new one, keeping the membership set at exactly one.
func (r *RoomTracker) SwitchActiveConversation(ctx context.Context, conversationID string) error {
	r.mu.Lock()
	prev := r.active
	r.mu.Unlock()
	if prev == conversationID {
		return nil
	}
	if prev != "" {
		if err := r.LeaveConversation(ctx, prev); err != nil {
			return err
		}
	}
	return r.JoinConversation(ctx, conversationID)
}
