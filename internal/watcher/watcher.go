// Package watcher detects clipboard changes by polling.
//
// The watcher is a function of three values: the last text it saw, the text
// on the clipboard now, and the current front of the history. It does not
// care how often it is called; the engine drives it from a ticker.
package watcher

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.klb.dev/cliphist/internal/clip"
	"go.klb.dev/cliphist/internal/history"
)

// DefaultInterval is the poll cadence. Lower is more responsive, higher is
// cheaper on CPU and battery.
const DefaultInterval = 250 * time.Millisecond

// Head gives the watcher the most recent history entry so it can suppress
// content that is already at the front.
type Head interface {
	Front() (history.Snapshot, bool)
}

// Watcher turns clipboard reads into snapshots.
type Watcher struct {
	backend clip.Backend
	head    Head
	now     func() time.Time

	mu          sync.Mutex
	lastSeen    string
	lastCount   int64
	countPrimed bool
}

// New returns a watcher reading from backend. now may be nil, in which case
// time.Now is used.
func New(backend clip.Backend, head Head, now func() time.Time) *Watcher {
	if now == nil {
		now = time.Now
	}
	return &Watcher{backend: backend, head: head, now: now}
}

// Poll reads the clipboard once. It returns a snapshot only when the text is
// non-empty, differs from the previous successful read and differs from the
// front of the history. Failed and empty reads leave the watcher untouched.
func (w *Watcher) Poll() (history.Snapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	cc, counted := w.backend.(clip.ChangeCounter)
	var count int64
	if counted {
		count = cc.ChangeCount()
		// 0 means the platform could not report a count (Windows without
		// window-station access); read every tick then.
		if w.countPrimed && count == w.lastCount && count != 0 {
			return history.Snapshot{}, false
		}
	}

	text, err := w.backend.ReadText()
	if err != nil {
		if !errors.Is(err, clip.ErrNotText) {
			slog.Debug("clipboard read failed, retrying next tick", "err", err)
		}
		return history.Snapshot{}, false
	}
	if counted {
		w.lastCount, w.countPrimed = count, true
	}
	if text == "" || text == w.lastSeen {
		return history.Snapshot{}, false
	}
	w.lastSeen = text

	if front, ok := w.head.Front(); ok && front.Content == text {
		return history.Snapshot{}, false
	}
	return history.Snapshot{Content: text, CapturedAt: w.now()}, true
}

// Suppress marks content as written by us so the next poll that observes it
// does not report it. It returns the previous value for Restore.
func (w *Watcher) Suppress(content string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev := w.lastSeen
	w.lastSeen = content
	return prev
}

// Restore undoes Suppress after a failed clipboard write. It only rolls back
// if nothing has been observed since.
func (w *Watcher) Restore(suppressed, prev string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lastSeen == suppressed {
		w.lastSeen = prev
	}
}

// LastSeen returns the last clipboard text observed or suppressed.
func (w *Watcher) LastSeen() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}
