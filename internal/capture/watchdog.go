package capture

import (
	"sync"
	"time"
)

// Watchdog is a single resettable deferred callback that auto-pauses an
// active capture after a quiet period. A window of zero disables it.
type Watchdog struct {
	mu     sync.Mutex
	window time.Duration
	timer  *time.Timer
	fire   func()
}

// NewWatchdog builds a watchdog firing fire after window of quiet.
func NewWatchdog(window time.Duration, fire func()) *Watchdog {
	return &Watchdog{window: window, fire: fire}
}

// Bump reschedules the firing for window from now, cancelling any prior
// scheduled firing. Callers re-arm on finalized chunks only, so active
// dictation never self-pauses mid-utterance.
func (w *Watchdog) Bump() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if w.window <= 0 {
		return
	}
	w.timer = time.AfterFunc(w.window, w.fire)
}

// Clear cancels any scheduled firing outright.
func (w *Watchdog) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
