// Package engine runs the clipboard history: it polls the clipboard through
// a watcher, records changes in the history store, checkpoints the store with
// a debounce, and serves list/select requests from the UI side.
//
// Lifecycle:
//
//	Stopped → Starting (load checkpoint) → Running (poll loop) → Stopping (final save) → Stopped
//
// A single goroutine owns polling and debounced saving. UI calls (List,
// Select, Remove, …) may arrive from any goroutine; the store serialises
// them. Shutdown waits for calls already in progress, and none start after
// it, so the final checkpoint holds every change that was reported as done.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.klb.dev/cliphist/internal/clip"
	"go.klb.dev/cliphist/internal/history"
	"go.klb.dev/cliphist/internal/hub"
	"go.klb.dev/cliphist/internal/watcher"
)

// DefaultSaveDebounce is how long the engine waits after a change before
// writing the checkpoint; further changes in that window share one write.
const DefaultSaveDebounce = time.Second

// saveRetryDelay spaces out retries after a failed checkpoint write.
const saveRetryDelay = 30 * time.Second

var (
	ErrNotRunning      = errors.New("history engine is not running")
	ErrAlreadyStarted  = errors.New("history engine already started")
	ErrUnknownEntry    = errors.New("no such history entry")
	ErrIndexOutOfRange = errors.New("history index out of range")
	ErrEmptyContent    = errors.New("refusing to record empty content")
)

// State is the engine lifecycle state.
type State int

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Persister is the checkpoint store. Load never fails; it degrades to an
// empty history.
type Persister interface {
	Path() string
	Load() []history.Snapshot
	Save(entries []history.Snapshot) error
}

// Config tunes the engine. Zero values select defaults.
type Config struct {
	PollInterval time.Duration
	SaveDebounce time.Duration
	// Now stamps snapshots; defaults to time.Now.
	Now func() time.Time
}

// Status is a point-in-time view of the engine for "cliphist status".
type Status struct {
	State        State
	Backend      string
	HistoryFile  string
	Entries      int
	Capacity     int
	PollInterval time.Duration
	SaveDebounce time.Duration
	StartedAt    time.Time
	LastSave     time.Time
	LastSaveErr  string
	Subscribers  int
}

// Engine orchestrates watcher, store and persistence.
type Engine struct {
	cfg     Config
	backend clip.Backend
	file    Persister
	events  *hub.Hub
	store   *history.Store
	watcher *watcher.Watcher

	dirty chan struct{}

	// ops is held for reading from the running check to the end of each
	// operation that touches the store, and for writing while Shutdown
	// leaves Running.
	ops sync.RWMutex

	mu        sync.Mutex // guards state, cancel, done, startedAt
	state     State
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time

	saveMu      sync.Mutex // serialises checkpoint writes; guards lastSave*
	lastSave    time.Time
	lastSaveErr error
}

// New wires an engine. events may be nil when nobody subscribes.
func New(cfg Config, backend clip.Backend, file Persister, events *hub.Hub) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = watcher.DefaultInterval
	}
	if cfg.SaveDebounce <= 0 {
		cfg.SaveDebounce = DefaultSaveDebounce
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if events == nil {
		events = hub.New()
	}
	store := history.New(history.DefaultCapacity)
	return &Engine{
		cfg:     cfg,
		backend: backend,
		file:    file,
		events:  events,
		store:   store,
		watcher: watcher.New(backend, store, cfg.Now),
		dirty:   make(chan struct{}, 1),
	}
}

// Events returns the hub that history changes are published on.
func (e *Engine) Events() *hub.Hub { return e.events }

// Start loads the checkpoint into the store and starts the poll loop. The
// loop runs until Shutdown; ctx is only used as the parent of the loop
// context.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state != Stopped {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	e.state = Starting
	e.mu.Unlock()

	loaded := e.file.Load()
	if dropped := e.store.Restore(loaded); dropped > 0 {
		slog.Warn("history checkpoint repaired", "dropped", dropped, "kept", e.store.Len())
	}
	slog.Info("history loaded", "path", e.file.Path(), "entries", e.store.Len())

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	e.mu.Lock()
	e.cancel = cancel
	e.done = done
	e.startedAt = e.cfg.Now()
	e.state = Running
	e.mu.Unlock()

	go e.loop(loopCtx, done)
	return nil
}

// Shutdown stops polling and writes a final checkpoint. It is a no-op on an
// engine that is not running.
func (e *Engine) Shutdown() error {
	e.ops.Lock()
	e.mu.Lock()
	if e.state != Running {
		e.mu.Unlock()
		e.ops.Unlock()
		return nil
	}
	e.state = Stopping
	cancel, done := e.cancel, e.done
	e.mu.Unlock()
	e.ops.Unlock()

	cancel()
	<-done

	err := e.flush()

	e.mu.Lock()
	e.state = Stopped
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	slog.Info("history engine stopped", "entries", e.store.Len())
	return err
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()
	// pending: a save is scheduled. failed: the last save failed and the
	// timer holds the slow retry, which the next change brings forward.
	pending, failed := false, false

	slog.Info("history engine running",
		"backend", e.backend.Name(),
		"poll_interval", e.cfg.PollInterval,
		"save_debounce", e.cfg.SaveDebounce,
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.OnTick()
		case <-e.dirty:
			if !pending || failed {
				debounce.Reset(e.cfg.SaveDebounce)
				pending, failed = true, false
			}
		case <-debounce.C:
			pending = false
			if err := e.flush(); err != nil {
				debounce.Reset(saveRetryDelay)
				pending, failed = true, true
			}
		}
	}
}

// OnTick runs one poll. The loop calls it on every tick; tests call it
// directly. It does nothing unless the engine is running.
func (e *Engine) OnTick() {
	e.ops.RLock()
	defer e.ops.RUnlock()
	if e.State() != Running {
		return
	}
	snap, ok := e.watcher.Poll()
	if !ok {
		return
	}
	outcome, evicted := e.store.Insert(snap)
	if outcome == history.Ignored {
		return
	}
	events := []hub.Event{{Kind: kindOf(outcome), Content: snap.Content, CapturedAt: snap.CapturedAt}}
	for _, ev := range evicted {
		events = append(events, hub.Event{Kind: hub.KindEvicted, Content: ev.Content, CapturedAt: ev.CapturedAt})
	}
	e.publish(events...)
	e.markDirty()
}

// List returns the history, most recent first.
func (e *Engine) List() ([]history.Snapshot, error) {
	e.ops.RLock()
	defer e.ops.RUnlock()
	if err := e.requireRunning(); err != nil {
		return nil, err
	}
	return e.store.Entries(), nil
}

// Entry returns the history entry at index i.
func (e *Engine) Entry(i int) (history.Snapshot, error) {
	e.ops.RLock()
	defer e.ops.RUnlock()
	if err := e.requireRunning(); err != nil {
		return history.Snapshot{}, err
	}
	snap, ok := e.store.At(i)
	if !ok {
		return history.Snapshot{}, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, i, e.store.Len())
	}
	return snap, nil
}

// Select writes a history entry back to the clipboard and moves it to the
// front. The watcher is told about the write so the next poll does not
// record it a second time.
func (e *Engine) Select(content string) error {
	e.ops.RLock()
	defer e.ops.RUnlock()
	if err := e.requireRunning(); err != nil {
		return err
	}
	if !e.store.Contains(content) {
		return ErrUnknownEntry
	}
	return e.writeBack(content, hub.KindSelected)
}

// Copy writes new content to the clipboard and records it as if the user
// had copied it.
func (e *Engine) Copy(content string) error {
	e.ops.RLock()
	defer e.ops.RUnlock()
	if err := e.requireRunning(); err != nil {
		return err
	}
	if content == "" {
		return ErrEmptyContent
	}
	return e.writeBack(content, hub.KindAdded)
}

func (e *Engine) writeBack(content string, kind hub.Kind) error {
	prev := e.watcher.Suppress(content)
	if err := e.backend.WriteText(content); err != nil {
		e.watcher.Restore(content, prev)
		return fmt.Errorf("clipboard write: %w", err)
	}

	snap := history.Snapshot{Content: content, CapturedAt: e.cfg.Now()}
	outcome, evicted := e.store.Insert(snap)
	if kind == hub.KindAdded && outcome != history.Added {
		kind = hub.KindPromoted
	}
	events := []hub.Event{{Kind: kind, Content: content, CapturedAt: snap.CapturedAt}}
	for _, ev := range evicted {
		events = append(events, hub.Event{Kind: hub.KindEvicted, Content: ev.Content, CapturedAt: ev.CapturedAt})
	}
	e.publish(events...)
	e.markDirty()
	return nil
}

// Remove deletes an entry. It reports whether the entry existed.
func (e *Engine) Remove(content string) (bool, error) {
	e.ops.RLock()
	defer e.ops.RUnlock()
	if err := e.requireRunning(); err != nil {
		return false, err
	}
	if !e.store.Remove(content) {
		return false, nil
	}
	e.publish(hub.Event{Kind: hub.KindRemoved, Content: content})
	e.markDirty()
	return true, nil
}

// Clear deletes every entry and returns how many were removed.
func (e *Engine) Clear() (int, error) {
	e.ops.RLock()
	defer e.ops.RUnlock()
	if err := e.requireRunning(); err != nil {
		return 0, err
	}
	n := e.store.Clear()
	if n > 0 {
		e.publish(hub.Event{Kind: hub.KindCleared})
		e.markDirty()
	}
	return n, nil
}

// Status returns a snapshot of engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	st := Status{
		State:        e.state,
		StartedAt:    e.startedAt,
		Backend:      e.backend.Name(),
		HistoryFile:  e.file.Path(),
		Capacity:     e.store.Cap(),
		PollInterval: e.cfg.PollInterval,
		SaveDebounce: e.cfg.SaveDebounce,
	}
	e.mu.Unlock()

	st.Entries = e.store.Len()
	st.Subscribers = e.events.Count()

	e.saveMu.Lock()
	st.LastSave = e.lastSave
	if e.lastSaveErr != nil {
		st.LastSaveErr = e.lastSaveErr.Error()
	}
	e.saveMu.Unlock()
	return st
}

// flush writes a point-in-time copy of the store. The copy is taken under
// the store lock; the write happens outside it.
func (e *Engine) flush() error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	entries := e.store.Entries()
	err := e.file.Save(entries)
	if err != nil {
		e.lastSaveErr = err
		slog.Error("history save failed", "path", e.file.Path(), "err", err)
		return err
	}
	e.lastSave = e.cfg.Now()
	e.lastSaveErr = nil
	slog.Debug("history saved", "path", e.file.Path(), "entries", len(entries))
	return nil
}

// markDirty schedules a debounced save. Never blocks.
func (e *Engine) markDirty() {
	select {
	case e.dirty <- struct{}{}:
	default:
	}
}

func (e *Engine) publish(events ...hub.Event) {
	for _, ev := range events {
		hub.LogEvent(ev)
	}
	e.events.Publish(events...)
}

func (e *Engine) requireRunning() error {
	if e.State() != Running {
		return ErrNotRunning
	}
	return nil
}

func kindOf(o history.Outcome) hub.Kind {
	if o == history.Added {
		return hub.KindAdded
	}
	return hub.KindPromoted
}
