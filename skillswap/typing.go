package skillswap

import (
	"context"
	"sync"
	"time"
)

// typingState holds the per-conversation "other participant is typing"
// flag with auto-expiry. A fresh event resets the timer rather than
// stacking a second one. Never persisted.
type typingState struct {
	mu      sync.Mutex
	expiry  time.Duration
	entries map[string]*typingEntry
	expired func(matchID string)
}

type typingEntry struct {
	userName string
	timer    *time.Timer
}

func newTypingState(expiry time.Duration, expired func(matchID string)) *typingState {
	return &typingState{
		expiry:  expiry,
		entries: make(map[string]*typingEntry),
		expired: expired,
	}
}

// set records that userName is typing in matchID and (re)arms the
// expiry.
func (s *typingState) set(matchID, userName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[matchID]; ok {
		e.userName = userName
		e.timer.Reset(s.expiry)
		return
	}
	e := &typingEntry{userName: userName}
	e.timer = time.AfterFunc(s.expiry, func() {
		if s.clear(matchID) && s.expired != nil {
			s.expired(matchID)
		}
	})
	s.entries[matchID] = e
}

// clear drops the flag for matchID. Reports whether one existed.
func (s *typingState) clear(matchID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[matchID]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.entries, matchID)
	return true
}

// typing returns the name of the participant typing in matchID, if any.
func (s *typingState) typing(matchID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[matchID]
	if !ok {
		return "", false
	}
	return e.userName, true
}

func (s *typingState) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, id)
	}
}

// typingEmitter debounces local keystrokes into at most one
// typing_start per burst and one typing_stop after the configured
// pause, so the transport is not flooded with an event per keystroke.
type typingEmitter struct {
	tr       Transport
	logger   Logger
	debounce time.Duration

	mu      sync.Mutex
	matchID string
	timer   *time.Timer
}

func newTypingEmitter(tr Transport, debounce time.Duration, logger Logger) *typingEmitter {
	return &typingEmitter{tr: tr, logger: logger, debounce: debounce}
}

// keystroke notes local composing activity in matchID. The first
// keystroke of a burst emits typing_start; each one pushes the
// typing_stop deadline out by the debounce window.
func (e *typingEmitter) keystroke(ctx context.Context, matchID string) {
	if e.tr.State() != StateConnected {
		return
	}
	e.mu.Lock()
	fresh := e.matchID != matchID || e.timer == nil
	if e.timer != nil && e.matchID == matchID {
		e.timer.Reset(e.debounce)
	} else {
		if e.timer != nil {
			e.timer.Stop()
		}
		e.matchID = matchID
		e.timer = time.AfterFunc(e.debounce, func() { e.stop(matchID) })
	}
	e.mu.Unlock()

	if fresh {
		if err := e.tr.Emit(ctx, emitTypingStart, RoomPayload{MatchID: matchID}); err != nil {
			e.logger.Debug("typing_start dropped", map[string]any{"matchId": matchID, "error": err.Error()})
		}
	}
}

// stop ends the burst for matchID immediately, emitting typing_stop.
// Used by the debounce timer and on send.
func (e *typingEmitter) stop(matchID string) {
	e.mu.Lock()
	if e.matchID != matchID || e.timer == nil {
		e.mu.Unlock()
		return
	}
	e.timer.Stop()
	e.timer = nil
	e.matchID = ""
	e.mu.Unlock()

	if e.tr.State() != StateConnected {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := e.tr.Emit(ctx, emitTypingStop, RoomPayload{MatchID: matchID}); err != nil {
		e.logger.Debug("typing_stop dropped", map[string]any{"matchId": matchID, "error": err.Error()})
	}
}
