package skillswap

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDispatcherMessage(t *testing.T) {
	var got MessageEvent
	var errCalled bool
	var d Dispatcher
	d.OnMessage(func(ev MessageEvent) { got = ev })
	d.OnError(func(err error) { errCalled = true })

	raw, _ := json.Marshal(MessageEvent{
		MatchID: "c1",
		Message: Message{ID: "m1", Sender: User{ID: "u1", Name: "Ana"}, Content: "hi", CreatedAt: time.Now()},
	})
	d.Dispatch(Outbound{Event: eventNewMessage, Data: raw})

	if got.MatchID != "c1" || got.Message.ID != "m1" || got.Message.Content != "hi" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if errCalled {
		t.Fatal("unexpected error callback")
	}
}

func TestDispatcherMultipleSubscribersInOrder(t *testing.T) {
	var order []int
	var d Dispatcher
	d.OnTyping(func(TypingEvent) { order = append(order, 1) })
	d.OnTyping(func(TypingEvent) { order = append(order, 2) })
	d.OnTyping(func(TypingEvent) { order = append(order, 3) })

	raw, _ := json.Marshal(TypingEvent{MatchID: "c1", UserID: "u2", IsTyping: true})
	d.Dispatch(Outbound{Event: eventUserTyping, Data: raw})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("handlers ran as %v, want [1 2 3]", order)
	}
}

func TestDispatcherProtocolError(t *testing.T) {
	var errGot error
	var d Dispatcher
	d.OnError(func(err error) { errGot = err })

	d.Dispatch(Outbound{Event: eventError, Error: &ProtocolError{Code: "unauthorized", Msg: "no token"}})
	if errGot == nil {
		t.Fatal("expected error callback")
	}
	if CodeOf(errGot) != ErrorUnauthorized {
		t.Fatalf("want ErrorUnauthorized, got %v", errGot)
	}
}

func TestDispatcherMalformedPayloadFiresError(t *testing.T) {
	var errGot error
	var d Dispatcher
	d.OnMessage(func(MessageEvent) { t.Fatal("handler must not run on bad payload") })
	d.OnError(func(err error) { errGot = err })

	d.Dispatch(Outbound{Event: eventNewMessage, Data: json.RawMessage(`{"matchId":`)})
	if CodeOf(errGot) != ErrorSerialization {
		t.Fatalf("want ErrorSerialization, got %v", errGot)
	}
}

func TestDispatcherUnknownEventIgnored(t *testing.T) {
	var d Dispatcher
	d.OnError(func(err error) { t.Fatalf("unexpected error: %v", err) })
	d.Dispatch(Outbound{Event: "some_future_event", Data: json.RawMessage(`{}`)})
}
