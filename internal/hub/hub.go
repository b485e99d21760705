// Package hub fans history changes out to live subscribers.
// It is transport-agnostic: subscribers register, receive events through a
// non-blocking Send, and unregister when their consumer goes away. The IPC
// "watch" stream and the terminal picker are the subscribers in practice.
package hub

import (
	"log/slog"
	"sync"
	"time"
)

// Kind names what happened to the history.
type Kind string

const (
	KindAdded    Kind = "added"
	KindPromoted Kind = "promoted"
	KindSelected Kind = "selected"
	KindEvicted  Kind = "evicted"
	KindRemoved  Kind = "removed"
	KindCleared  Kind = "cleared"
)

// Event is one history change. Content is empty for KindCleared.
type Event struct {
	Kind       Kind
	Content    string
	CapturedAt time.Time
}

// Subscriber is anything that can receive history events from the hub.
type Subscriber interface {
	ID() string
	// Send delivers an event to the subscriber. Must be non-blocking.
	Send(Event)
}

// Hub routes history events to all registered subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]Subscriber
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{subs: make(map[string]Subscriber)}
}

// Register adds a subscriber. Registering the same ID again replaces it.
func (h *Hub) Register(s Subscriber) {
	h.mu.Lock()
	h.subs[s.ID()] = s
	total := len(h.subs)
	h.mu.Unlock()

	slog.Debug("subscriber registered", "id", s.ID(), "total", total)
}

// Unregister removes a subscriber.
func (h *Hub) Unregister(s Subscriber) {
	h.mu.Lock()
	delete(h.subs, s.ID())
	total := len(h.subs)
	h.mu.Unlock()

	slog.Debug("subscriber unregistered", "id", s.ID(), "total", total)
}

// Publish delivers events to every subscriber in order. Subscribers are
// called outside the lock.
func (h *Hub) Publish(events ...Event) {
	if len(events) == 0 {
		return
	}
	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		for _, ev := range events {
			s.Send(ev)
		}
	}
}

// Count returns the number of registered subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ChanSubscriber is a Subscriber backed by a buffered channel. Events that do
// not fit are dropped with a warning.
type ChanSubscriber struct {
	id string
	C  chan Event
}

// NewChanSubscriber returns a subscriber with a buffer of size events.
func NewChanSubscriber(id string, size int) *ChanSubscriber {
	return &ChanSubscriber{id: id, C: make(chan Event, size)}
}

func (c *ChanSubscriber) ID() string { return c.id }

func (c *ChanSubscriber) Send(ev Event) {
	select {
	case c.C <- ev:
	default:
		slog.Warn("subscriber channel full, dropping", "id", c.id, "kind", ev.Kind)
	}
}
