package skillswap

import (
	"sync"
	"time"
)

// watchdog schedules one bounded expiry task per provisional message,
// keyed by the message's temporary id. Confirmation cancels the entry
// explicitly instead of leaving a timer to fire into stale state.
type watchdog struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newWatchdog() *watchdog {
	return &watchdog{timers: make(map[string]*time.Timer)}
}

// schedule arms an expiry for id, replacing any existing one. fn runs
// once after d unless cancel is called first.
func (w *watchdog) schedule(id string, d time.Duration, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if old, ok := w.timers[id]; ok {
		old.Stop()
	}
	w.timers[id] = time.AfterFunc(d, func() {
		w.mu.Lock()
		delete(w.timers, id)
		w.mu.Unlock()
		fn()
	})
}

// cancel disarms the expiry for id. Reports whether one was pending.
func (w *watchdog) cancel(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.timers[id]
	if !ok {
		return false
	}
	t.Stop()
	delete(w.timers, id)
	return true
}

// stopAll disarms every pending expiry.
func (w *watchdog) stopAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, t := range w.timers {
		t.Stop()
		delete(w.timers, id)
	}
}
