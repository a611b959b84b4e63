package skillswap

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// HistoryFetcher loads persisted messages for a conversation. The REST
// client satisfies it through NewRESTHistory; tests inject fakes.
type HistoryFetcher interface {
	MessageHistory(ctx context.Context, conversationID string) ([]Message, error)
}

type timelineState int

const (
	timelineEmpty timelineState = iota
	timelineLoading
	timelineLoaded
)

type conversationCache struct {
	state timelineState
	tl    Timeline
}

// Engine merges three message sources per conversation — REST history,
// locally-originated optimistic sends, and inbound real-time events —
// into one ordered, de-duplicated timeline, and manages the ephemeral
// typing state. Timelines live for the session only; nothing persists.
//
// Transport callbacks fire on the read-loop goroutine while sends come
// from callers, so all timeline state sits behind one mutex.
type Engine struct {
	tr     Transport
	fetch  HistoryFetcher
	rooms  *RoomTracker
	cfg    Config
	local  User
	logger Logger

	group  singleflight.Group
	dog    *watchdog
	typing *typingState
	emit   *typingEmitter

	mu       sync.Mutex
	open     string
	cache    map[string]*conversationCache
	onChange func(conversationID string)
}

// NewEngine constructs the reconciliation engine over the transport,
// the history fetcher, and the room tracker.
func NewEngine(tr Transport, fetch HistoryFetcher, rooms *RoomTracker, cfg Config) *Engine {
	e := &Engine{
		tr:     tr,
		fetch:  fetch,
		rooms:  rooms,
		cfg:    cfg,
		local:  cfg.LocalUser,
		logger: noopLogger{},
		dog:    newWatchdog(),
		cache:  make(map[string]*conversationCache),
	}
	e.typing = newTypingState(cfg.TypingExpiry, func(matchID string) {
		e.notifyChange(matchID)
	})
	e.emit = newTypingEmitter(tr, cfg.TypingDebounce, noopLogger{})
	return e
}

// SetLogger overrides the logger (optional).
func (e *Engine) SetLogger(l Logger) {
	if l == nil {
		return
	}
	e.logger = l
	e.emit.logger = l
}

// SetOnChange registers the observer invoked after the open
// conversation's visible timeline or typing state changes.
func (e *Engine) SetOnChange(fn func(conversationID string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = fn
}

// Bind subscribes the engine to the client's message and typing
// streams.
func (e *Engine) Bind(c *Client) {
	c.OnMessage(e.OnIncomingMessage)
	c.OnTyping(e.OnTypingEvent)
}

// Open returns the currently open conversation id.
func (e *Engine) Open() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open, e.open != ""
}

// Timeline returns a copy of the conversation's current timeline.
func (e *Engine) Timeline(conversationID string) []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.cache[conversationID]
	if !ok {
		return nil
	}
	return entry.tl.Messages()
}

// TypingUser returns the display name of the other participant if they
// are currently typing in the conversation.
func (e *Engine) TypingUser(conversationID string) (string, bool) {
	return e.typing.typing(conversationID)
}

// OpenConversation makes conversationID the open conversation: room
// membership is switched over, typing state of the previous
// conversation is dropped, and the timeline is served from the session
// cache or loaded from REST on first open. A skipped room join is
// surfaced through the logger but does not fail the open; history still
// loads and the caller may retry navigation.
func (e *Engine) OpenConversation(ctx context.Context, conversationID string) ([]Message, error) {
	e.mu.Lock()
	prev := e.open
	e.open = conversationID
	e.mu.Unlock()

	if prev != "" && prev != conversationID {
		e.typing.clear(prev)
		e.emit.stop(prev)
	}

	if err := e.rooms.SwitchActiveConversation(ctx, conversationID); err != nil {
		if CodeOf(err) != ErrorJoinSkipped {
			return nil, err
		}
		e.logger.Warn("conversation open without room membership", map[string]any{
			"matchId": conversationID,
		})
	}

	return e.LoadHistory(ctx, conversationID)
}

// CloseConversation leaves the open conversation's room and clears its
// ephemeral state. The session timeline cache is kept, so re-opening
// does not refetch.
func (e *Engine) CloseConversation(ctx context.Context) error {
	e.mu.Lock()
	id := e.open
	e.open = ""
	e.mu.Unlock()
	if id == "" {
		return nil
	}
	e.typing.clear(id)
	e.emit.stop(id)
	return e.rooms.LeaveConversation(ctx, id)
}

// Invalidate drops the cached timeline so the next open refetches.
func (e *Engine) Invalidate(conversationID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.cache, conversationID)
}

// LoadHistory returns the conversation's timeline, fetching it over
// REST at most once per session. Concurrent loads for the same
// conversation are coalesced; fetched messages merge into whatever the
// socket already delivered instead of overwriting it. A result that
// lands after the user has navigated elsewhere is cached but not
// announced.
func (e *Engine) LoadHistory(ctx context.Context, conversationID string) ([]Message, error) {
	e.mu.Lock()
	entry := e.entryLocked(conversationID)
	if entry.state == timelineLoaded {
		msgs := entry.tl.Messages()
		e.mu.Unlock()
		return msgs, nil
	}
	entry.state = timelineLoading
	e.mu.Unlock()

	_, err, _ := e.group.Do(conversationID, func() (any, error) {
		e.mu.Lock()
		if e.entryLocked(conversationID).state == timelineLoaded {
			e.mu.Unlock()
			return nil, nil
		}
		e.mu.Unlock()

		fetched, err := e.fetch.MessageHistory(ctx, conversationID)
		if err != nil {
			return nil, err
		}

		e.mu.Lock()
		entry := e.entryLocked(conversationID)
		for _, m := range fetched {
			if m.ID != "" && entry.tl.Contains(m.ID) {
				continue
			}
			m.Status = StatusConfirmed
			entry.tl.Insert(m)
		}
		entry.state = timelineLoaded
		e.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		e.mu.Lock()
		entry := e.entryLocked(conversationID)
		if entry.state == timelineLoading {
			entry.state = timelineEmpty
		}
		e.mu.Unlock()
		return nil, WrapError(ErrorFetchFailed, "history load failed", err)
	}

	e.mu.Lock()
	msgs := e.entryLocked(conversationID).tl.Messages()
	e.mu.Unlock()
	e.notifyChange(conversationID)
	return msgs, nil
}

// SendMessage validates and optimistically inserts the message, emits
// it over the transport, and arms the confirmation watchdog. The
// returned Message carries the provisional id and StatusOptimistic; the
// confirmed counterpart replaces it when the server echoes it back.
func (e *Engine) SendMessage(ctx context.Context, conversationID, text string) (Message, error) {
	content := strings.TrimSpace(text)
	if content == "" {
		return Message{}, NewError(ErrorEmptyMessage, "message is empty")
	}
	if e.tr.State() != StateConnected {
		return Message{}, NewError(ErrorConnectionLost, "transport not connected")
	}

	msg := Message{
		ID:        "temp_" + uuid.NewString(),
		MatchID:   conversationID,
		Sender:    e.local,
		Content:   content,
		Type:      "text",
		CreatedAt: time.Now(),
		Status:    StatusOptimistic,
	}

	e.mu.Lock()
	e.entryLocked(conversationID).tl.Insert(msg)
	e.mu.Unlock()
	e.notifyChange(conversationID)

	payload := SendMessagePayload{MatchID: conversationID, Content: content, Type: msg.Type}
	if err := e.tr.Emit(ctx, emitSendMessage, payload); err != nil {
		e.mu.Lock()
		e.entryLocked(conversationID).tl.Remove(msg.ID)
		e.mu.Unlock()
		e.notifyChange(conversationID)
		return Message{}, WrapError(ErrorSendFailed, "emit failed", err)
	}

	// Sending ends the local typing burst.
	e.emit.stop(conversationID)

	e.dog.schedule(msg.ID, e.cfg.SendWatchdog, func() {
		e.expireProvisional(conversationID, msg)
	})
	return msg, nil
}

// expireProvisional runs when the watchdog for one optimistic message
// fires. If the confirmed counterpart arrived in the meantime the
// provisional entry is dropped (normally OnIncomingMessage already did
// both and this is a no-op); otherwise it flips to failed and stays
// visible.
func (e *Engine) expireProvisional(conversationID string, msg Message) {
	e.mu.Lock()
	entry := e.entryLocked(conversationID)
	var changed bool
	if entry.tl.HasConfirmed(msg.Sender.ID, msg.Content) {
		changed = entry.tl.Remove(msg.ID)
	} else {
		changed = entry.tl.MarkFailed(msg.ID)
	}
	e.mu.Unlock()
	if changed {
		e.logger.Warn("message send unconfirmed", map[string]any{
			"matchId": conversationID,
			"tempId":  msg.ID,
		})
		e.notifyChange(conversationID)
	}
}

// OnIncomingMessage reconciles a confirmed message from the event
// stream: the optimistic counterpart (same author and content) is
// removed and its watchdog cancelled, then the message is inserted at
// its sorted position unless its server id is already present
// (at-least-once delivery). Conversations never opened this session are
// ignored here; their events reach the UI through the notification
// stream instead.
func (e *Engine) OnIncomingMessage(ev MessageEvent) {
	msg := ev.Message
	if msg.MatchID == "" {
		msg.MatchID = ev.MatchID
	}

	e.mu.Lock()
	entry, ok := e.cache[ev.MatchID]
	if !ok {
		e.mu.Unlock()
		return
	}
	changed := false
	if removed, had := entry.tl.RemoveOptimistic(msg.Sender.ID, msg.Content); had {
		e.dog.cancel(removed.ID)
		changed = true
	}
	if msg.ID == "" || !entry.tl.Contains(msg.ID) {
		msg.Status = StatusConfirmed
		entry.tl.Insert(msg)
		changed = true
	}
	e.mu.Unlock()
	if changed {
		e.notifyChange(ev.MatchID)
	}
}

// OnTypingEvent updates the typing flag for the open conversation.
// Self-echo and events for other conversations are ignored.
func (e *Engine) OnTypingEvent(ev TypingEvent) {
	if ev.UserID == e.local.ID {
		return
	}
	e.mu.Lock()
	open := e.open
	e.mu.Unlock()
	if ev.MatchID != open {
		return
	}
	if ev.IsTyping {
		e.typing.set(ev.MatchID, ev.UserName)
	} else {
		e.typing.clear(ev.MatchID)
	}
	e.notifyChange(ev.MatchID)
}

// Composing notes a local keystroke in the conversation's input,
// feeding the debounced typing_start / typing_stop emission.
func (e *Engine) Composing(ctx context.Context, conversationID string) {
	e.emit.keystroke(ctx, conversationID)
}

// StopComposing force-ends the local typing burst, e.g. when the input
// is cleared without sending.
func (e *Engine) StopComposing(conversationID string) {
	e.emit.stop(conversationID)
}

func (e *Engine) entryLocked(conversationID string) *conversationCache {
	entry, ok := e.cache[conversationID]
	if !ok {
		entry = &conversationCache{}
		e.cache[conversationID] = entry
	}
	return entry
}

// notifyChange fans a state change out to the observer, but only for
// the conversation the user is looking at.
func (e *Engine) notifyChange(conversationID string) {
	e.mu.Lock()
	fn := e.onChange
	visible := e.open == conversationID
	e.mu.Unlock()
	if fn != nil && visible {
		fn(conversationID)
	}
}
