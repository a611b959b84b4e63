package skillswap

import "sync"

// Dispatcher routes server events to registered callbacks. Each event
// category keeps an ordered list of handlers; registering appends rather
// than replacing, so independent consumers (reconciliation engine,
// notification badge, unread counters) can all observe the same stream.
type Dispatcher struct {
	mu            sync.RWMutex
	onMessage     []func(MessageEvent)
	onTyping      []func(TypingEvent)
	onNotify      []func(NotificationEvent)
	onMatchStatus []func(MatchStatusEvent)
	onError       []func(error)
}

func (d *Dispatcher) OnMessage(fn func(MessageEvent)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onMessage = append(d.onMessage, fn)
}

func (d *Dispatcher) OnTyping(fn func(TypingEvent)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onTyping = append(d.onTyping, fn)
}

func (d *Dispatcher) OnNotification(fn func(NotificationEvent)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onNotify = append(d.onNotify, fn)
}

func (d *Dispatcher) OnMatchStatus(fn func(MatchStatusEvent)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onMatchStatus = append(d.onMatchStatus, fn)
}

func (d *Dispatcher) OnError(fn func(error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onError = append(d.onError, fn)
}

// Dispatch decodes the envelope and fans it out to every handler of the
// matching category, in registration order.
func (d *Dispatcher) Dispatch(out Outbound) {
	if out.Event == eventError && out.Error != nil {
		d.fireError(FromProtocolError(out.Error))
		return
	}
	switch out.Event {
	case eventNewMessage:
		handlers := d.messageHandlers()
		if len(handlers) == 0 {
			return
		}
		var ev MessageEvent
		if err := UnmarshalData(out.Data, &ev); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal new_message event", err))
			return
		}
		for _, fn := range handlers {
			fn(ev)
		}
	case eventUserTyping:
		handlers := d.typingHandlers()
		if len(handlers) == 0 {
			return
		}
		var ev TypingEvent
		if err := UnmarshalData(out.Data, &ev); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal user_typing event", err))
			return
		}
		for _, fn := range handlers {
			fn(ev)
		}
	case eventNewNotification:
		handlers := d.notifyHandlers()
		if len(handlers) == 0 {
			return
		}
		var ev NotificationEvent
		if err := UnmarshalData(out.Data, &ev); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal new_notification event", err))
			return
		}
		for _, fn := range handlers {
			fn(ev)
		}
	case eventMatchStatus:
		handlers := d.matchStatusHandlers()
		if len(handlers) == 0 {
			return
		}
		var ev MatchStatusEvent
		if err := UnmarshalData(out.Data, &ev); err != nil {
			d.fireError(WrapError(ErrorSerialization, "failed to unmarshal match_status_changed event", err))
			return
		}
		for _, fn := range handlers {
			fn(ev)
		}
	}
}

func (d *Dispatcher) messageHandlers() []func(MessageEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.onMessage
}

func (d *Dispatcher) typingHandlers() []func(TypingEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.onTyping
}

func (d *Dispatcher) notifyHandlers() []func(NotificationEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.onNotify
}

func (d *Dispatcher) matchStatusHandlers() []func(MatchStatusEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.onMatchStatus
}

func (d *Dispatcher) fireError(err error) {
	if err == nil {
		return
	}
	d.mu.RLock()
	handlers := d.onError
	d.mu.RUnlock()
	for _, fn := range handlers {
		fn(err)
	}
}
