package skillswap

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeTransport satisfies Transport for engine and room tracker tests.
type fakeTransport struct {
	ready *gate

	mu      sync.Mutex
	state   ConnectionState
	emitted []Inbound
	emitErr error
}

func newFakeTransport(state ConnectionState) *fakeTransport {
	f := &fakeTransport{state: state, ready: newGate()}
	if state == StateConnected {
		f.ready.set(true)
	}
	return f
}

func (f *fakeTransport) State() ConnectionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeTransport) WaitConnected(ctx context.Context) error {
	return f.ready.wait(ctx)
}

func (f *fakeTransport) Emit(ctx context.Context, event string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateConnected {
		return NewError(ErrorConnectionLost, "not connected")
	}
	if f.emitErr != nil {
		return f.emitErr
	}
	f.emitted = append(f.emitted, Inbound{Event: event, Data: data})
	return nil
}

func (f *fakeTransport) connect() {
	f.mu.Lock()
	f.state = StateConnected
	f.mu.Unlock()
	f.ready.set(true)
}

func (f *fakeTransport) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.emitted))
	for i, in := range f.emitted {
		out[i] = in.Event
	}
	return out
}

// fakeFetcher serves canned history and counts fetches.
type fakeFetcher struct {
	mu    sync.Mutex
	msgs  map[string][]Message
	calls map[string]int
	err   error
	block map[string]chan struct{} // fetch waits on the channel if set
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		msgs:  make(map[string][]Message),
		calls: make(map[string]int),
		block: make(map[string]chan struct{}),
	}
}

func (f *fakeFetcher) MessageHistory(ctx context.Context, id string) ([]Message, error) {
	f.mu.Lock()
	f.calls[id]++
	gate := f.block[id]
	err := f.err
	msgs := append([]Message(nil), f.msgs[id]...)
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (f *fakeFetcher) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.LocalUser = User{ID: "me", Name: "Me"}
	cfg.SendWatchdog = 25 * time.Millisecond
	cfg.JoinWait = 50 * time.Millisecond
	cfg.TypingExpiry = 30 * time.Millisecond
	cfg.TypingDebounce = 20 * time.Millisecond
	return cfg
}

func newTestEngine(tr *fakeTransport, fetch *fakeFetcher) *Engine {
	cfg := testConfig()
	return NewEngine(tr, fetch, NewRoomTracker(tr, cfg), cfg)
}

func TestSendMessageWhileDisconnected(t *testing.T) {
	tr := newFakeTransport(StateDisconnected)
	e := newTestEngine(tr, newFakeFetcher())

	_, err := e.SendMessage(context.Background(), "c1", "hello")
	if !errors.Is(err, NewError(ErrorConnectionLost, "")) {
		t.Fatalf("want ConnectionLost, got %v", err)
	}
	if got := e.Timeline("c1"); len(got) != 0 {
		t.Fatalf("timeline mutated on failed send: %+v", got)
	}
}

func TestSendMessageRejectsWhitespace(t *testing.T) {
	tr := newFakeTransport(StateConnected)
	e := newTestEngine(tr, newFakeFetcher())

	_, err := e.SendMessage(context.Background(), "c1", "   \n\t ")
	if CodeOf(err) != ErrorEmptyMessage {
		t.Fatalf("want ErrorEmptyMessage, got %v", err)
	}
	if len(tr.events()) != 0 {
		t.Fatalf("network contacted for empty text: %v", tr.events())
	}
}

func TestOptimisticConvergesToSingleConfirmed(t *testing.T) {
	tr := newFakeTransport(StateConnected)
	e := newTestEngine(tr, newFakeFetcher())
	ctx := context.Background()

	sent, err := e.SendMessage(ctx, "c1", "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	got := e.Timeline("c1")
	if len(got) != 1 || got[0].Status != StatusOptimistic || got[0].Content != "hello" {
		t.Fatalf("want one optimistic hello, got %+v", got)
	}

	e.OnIncomingMessage(MessageEvent{
		MatchID: "c1",
		Message: Message{
			ID:        "m1",
			MatchID:   "c1",
			Sender:    User{ID: "me", Name: "Me"},
			Content:   "hello",
			CreatedAt: sent.CreatedAt.Add(50 * time.Millisecond),
		},
	})

	got = e.Timeline("c1")
	if len(got) != 1 {
		t.Fatalf("want exactly one entry after echo, got %d: %+v", len(got), got)
	}
	if got[0].ID != "m1" || got[0].Status != StatusConfirmed {
		t.Fatalf("want confirmed m1, got %+v", got[0])
	}

	// The watchdog must now be a no-op: the confirmed entry survives.
	time.Sleep(3 * testConfig().SendWatchdog)
	got = e.Timeline("c1")
	if len(got) != 1 || got[0].ID != "m1" || got[0].Status != StatusConfirmed {
		t.Fatalf("watchdog disturbed a confirmed message: %+v", got)
	}
}

func TestWatchdogFlipsUnconfirmedToFailed(t *testing.T) {
	tr := newFakeTransport(StateConnected)
	e := newTestEngine(tr, newFakeFetcher())

	sent, err := e.SendMessage(context.Background(), "c1", "lost")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	time.Sleep(3 * testConfig().SendWatchdog)
	got := e.Timeline("c1")
	if len(got) != 1 {
		t.Fatalf("failed entry must stay visible, got %+v", got)
	}
	if got[0].ID != sent.ID || got[0].Status != StatusFailed {
		t.Fatalf("want failed %s, got %+v", sent.ID, got[0])
	}
}

func TestSynchronousEmitFailureRollsBack(t *testing.T) {
	tr := newFakeTransport(StateConnected)
	tr.emitErr = errors.New("transport not ready")
	e := newTestEngine(tr, newFakeFetcher())

	_, err := e.SendMessage(context.Background(), "c1", "hello")
	if CodeOf(err) != ErrorSendFailed {
		t.Fatalf("want ErrorSendFailed, got %v", err)
	}
	if got := e.Timeline("c1"); len(got) != 0 {
		t.Fatalf("provisional entry not rolled back: %+v", got)
	}
}

func TestHistoryFetchedOncePerSession(t *testing.T) {
	tr := newFakeTransport(StateConnected)
	fetch := newFakeFetcher()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	fetch.msgs["a"] = []Message{
		msgAt("m1", "u2", "hey", base, StatusConfirmed),
		msgAt("m2", "me", "hi", base.Add(time.Minute), StatusConfirmed),
	}
	fetch.msgs["b"] = []Message{
		msgAt("m3", "u3", "yo", base, StatusConfirmed),
	}
	e := newTestEngine(tr, fetch)
	ctx := context.Background()

	first, err := e.OpenConversation(ctx, "a")
	if err != nil {
		t.Fatalf("open a: %v", err)
	}
	if _, err := e.OpenConversation(ctx, "b"); err != nil {
		t.Fatalf("open b: %v", err)
	}
	again, err := e.OpenConversation(ctx, "a")
	if err != nil {
		t.Fatalf("re-open a: %v", err)
	}

	if fetch.callCount("a") != 1 {
		t.Fatalf("conversation a fetched %d times, want 1", fetch.callCount("a"))
	}
	if len(again) != len(first) {
		t.Fatalf("re-open changed the message set: %d vs %d", len(again), len(first))
	}
	for i := range again {
		if again[i].ID != first[i].ID {
			t.Fatalf("re-open reordered messages at %d: %q vs %q", i, again[i].ID, first[i].ID)
		}
	}
}

func TestFetchFailureSurfacesAndAllowsRetry(t *testing.T) {
	tr := newFakeTransport(StateConnected)
	fetch := newFakeFetcher()
	fetch.err = errors.New("boom")
	e := newTestEngine(tr, fetch)
	ctx := context.Background()

	if _, err := e.LoadHistory(ctx, "a"); CodeOf(err) != ErrorFetchFailed {
		t.Fatalf("want ErrorFetchFailed, got %v", err)
	}

	fetch.mu.Lock()
	fetch.err = nil
	fetch.mu.Unlock()
	if _, err := e.LoadHistory(ctx, "a"); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if fetch.callCount("a") != 2 {
		t.Fatalf("retry did not refetch, calls=%d", fetch.callCount("a"))
	}
}

func TestStaleHistoryResultNotAnnounced(t *testing.T) {
	tr := newFakeTransport(StateConnected)
	fetch := newFakeFetcher()
	release := make(chan struct{})
	fetch.block["a"] = release
	fetch.msgs["a"] = []Message{msgAt("m1", "u2", "old", time.Now(), StatusConfirmed)}
	e := newTestEngine(tr, fetch)
	ctx := context.Background()

	var mu sync.Mutex
	var announced []string
	e.SetOnChange(func(id string) {
		mu.Lock()
		announced = append(announced, id)
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = e.OpenConversation(ctx, "a")
	}()

	time.Sleep(10 * time.Millisecond) // let the fetch for a start and block
	if _, err := e.OpenConversation(ctx, "b"); err != nil {
		t.Fatalf("open b: %v", err)
	}
	close(release)
	<-done

	mu.Lock()
	defer mu.Unlock()
	for _, id := range announced {
		if id == "a" {
			t.Fatalf("stale result for a was announced: %v", announced)
		}
	}
	// The late result still lands in the session cache for re-open.
	if got := e.Timeline("a"); len(got) != 1 {
		t.Fatalf("stale result not cached: %+v", got)
	}
}

func TestDuplicateDeliveryInsertsOnce(t *testing.T) {
	tr := newFakeTransport(StateConnected)
	e := newTestEngine(tr, newFakeFetcher())
	ctx := context.Background()
	if _, err := e.OpenConversation(ctx, "c1"); err != nil {
		t.Fatalf("open: %v", err)
	}

	ev := MessageEvent{
		MatchID: "c1",
		Message: Message{ID: "m1", MatchID: "c1", Sender: User{ID: "u2"}, Content: "hi", CreatedAt: time.Now()},
	}
	e.OnIncomingMessage(ev)
	e.OnIncomingMessage(ev)

	if got := e.Timeline("c1"); len(got) != 1 {
		t.Fatalf("duplicate delivery duplicated the entry: %+v", got)
	}
}

func TestIncomingForUnopenedConversationIgnored(t *testing.T) {
	tr := newFakeTransport(StateConnected)
	e := newTestEngine(tr, newFakeFetcher())

	e.OnIncomingMessage(MessageEvent{
		MatchID: "never-opened",
		Message: Message{ID: "m1", Sender: User{ID: "u2"}, Content: "hi", CreatedAt: time.Now()},
	})
	if got := e.Timeline("never-opened"); got != nil {
		t.Fatalf("event for unopened conversation created state: %+v", got)
	}
}

func TestTypingExpiresAfterSilence(t *testing.T) {
	tr := newFakeTransport(StateConnected)
	e := newTestEngine(tr, newFakeFetcher())
	ctx := context.Background()
	if _, err := e.OpenConversation(ctx, "c1"); err != nil {
		t.Fatalf("open: %v", err)
	}

	e.OnTypingEvent(TypingEvent{MatchID: "c1", UserID: "u2", UserName: "Bea", IsTyping: true})
	if name, ok := e.TypingUser("c1"); !ok || name != "Bea" {
		t.Fatalf("typing flag not set: %q %v", name, ok)
	}

	time.Sleep(3 * testConfig().TypingExpiry)
	if _, ok := e.TypingUser("c1"); ok {
		t.Fatal("typing flag did not expire")
	}
}

func TestTypingStopEventClearsImmediately(t *testing.T) {
	tr := newFakeTransport(StateConnected)
	e := newTestEngine(tr, newFakeFetcher())
	ctx := context.Background()
	if _, err := e.OpenConversation(ctx, "c1"); err != nil {
		t.Fatalf("open: %v", err)
	}

	e.OnTypingEvent(TypingEvent{MatchID: "c1", UserID: "u2", UserName: "Bea", IsTyping: true})
	e.OnTypingEvent(TypingEvent{MatchID: "c1", UserID: "u2", UserName: "Bea", IsTyping: false})
	if _, ok := e.TypingUser("c1"); ok {
		t.Fatal("stop event did not clear the flag")
	}
}

func TestTypingIgnoresSelfAndOtherConversations(t *testing.T) {
	tr := newFakeTransport(StateConnected)
	e := newTestEngine(tr, newFakeFetcher())
	ctx := context.Background()
	if _, err := e.OpenConversation(ctx, "c1"); err != nil {
		t.Fatalf("open: %v", err)
	}

	e.OnTypingEvent(TypingEvent{MatchID: "c1", UserID: "me", UserName: "Me", IsTyping: true})
	if _, ok := e.TypingUser("c1"); ok {
		t.Fatal("self-typing echoed back")
	}

	e.OnTypingEvent(TypingEvent{MatchID: "c2", UserID: "u2", UserName: "Bea", IsTyping: true})
	if _, ok := e.TypingUser("c2"); ok {
		t.Fatal("typing recorded for a conversation that is not open")
	}
}

func TestComposingDebouncesToOneBurst(t *testing.T) {
	tr := newFakeTransport(StateConnected)
	e := newTestEngine(tr, newFakeFetcher())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		e.Composing(ctx, "c1")
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(4 * testConfig().TypingDebounce)

	var starts, stops int
	for _, ev := range tr.events() {
		switch ev {
		case emitTypingStart:
			starts++
		case emitTypingStop:
			stops++
		}
	}
	if starts != 1 || stops != 1 {
		t.Fatalf("want one typing_start and one typing_stop, got %d/%d (%v)", starts, stops, tr.events())
	}
}

func TestOpenConversationSurvivesJoinSkipped(t *testing.T) {
	tr := newFakeTransport(StateDisconnected)
	fetch := newFakeFetcher()
	fetch.msgs["c1"] = []Message{msgAt("m1", "u2", "hey", time.Now(), StatusConfirmed)}
	cfg := testConfig()
	cfg.JoinWait = 20 * time.Millisecond
	e := NewEngine(tr, fetch, NewRoomTracker(tr, cfg), cfg)

	msgs, err := e.OpenConversation(context.Background(), "c1")
	if err != nil {
		t.Fatalf("open with skipped join must not fail: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("history not loaded despite skipped join: %+v", msgs)
	}
	if len(tr.events()) != 0 {
		t.Fatalf("join emitted while disconnected: %v", tr.events())
	}
}
