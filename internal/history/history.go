// Package history holds the bounded, deduplicated clipboard history.
//
// The store is ordered most-recently-used first: index 0 is the entry that
// was copied (or re-copied, or selected) last. Content equality is exact
// byte equality; no whitespace or case normalisation is applied.
//
// The store does no I/O and reads no clock. Callers stamp snapshots before
// inserting them.
package history

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// DefaultCapacity is the maximum number of entries kept.
const DefaultCapacity = 50

// Snapshot is one captured clipboard value.
type Snapshot struct {
	Content    string
	CapturedAt time.Time
}

// Outcome describes what Insert did.
type Outcome int

const (
	// Ignored means the snapshot had empty content and was dropped.
	Ignored Outcome = iota
	// Added means the content was new and is now at index 0.
	Added
	// Promoted means the content existed further down and moved to index 0.
	Promoted
	// Refreshed means the content was already at index 0; only the
	// timestamp changed.
	Refreshed
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Promoted:
		return "promoted"
	case Refreshed:
		return "refreshed"
	default:
		return "ignored"
	}
}

// Store is a fixed-capacity MRU list of unique snapshots. It is safe for
// concurrent use; every method is a single critical section.
type Store struct {
	mu       sync.RWMutex
	entries  []Snapshot
	capacity int
}

// New returns an empty store. A non-positive capacity selects DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		entries:  make([]Snapshot, 0, capacity+1),
		capacity: capacity,
	}
}

// Insert records s as the most recent entry. An existing entry with the same
// content is moved to the front and takes s.CapturedAt. When a new entry
// pushes the store over capacity the least recently used entries are evicted
// and returned.
func (s *Store) Insert(snap Snapshot) (Outcome, []Snapshot) {
	if snap.Content == "" {
		return Ignored, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(snap.Content); i >= 0 {
		if i == 0 {
			s.entries[0].CapturedAt = snap.CapturedAt
			return Refreshed, nil
		}
		copy(s.entries[1:i+1], s.entries[:i])
		s.entries[0] = snap
		return Promoted, nil
	}

	s.entries = append(s.entries, Snapshot{})
	copy(s.entries[1:], s.entries[:len(s.entries)-1])
	s.entries[0] = snap

	if len(s.entries) <= s.capacity {
		return Added, nil
	}
	evicted := make([]Snapshot, len(s.entries)-s.capacity)
	copy(evicted, s.entries[s.capacity:])
	clear(s.entries[s.capacity:])
	s.entries = s.entries[:s.capacity]
	return Added, evicted
}

// Entries returns a copy of the history, most recent first.
func (s *Store) Entries() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Snapshot, len(s.entries))
	copy(out, s.entries)
	return out
}

// Front returns the most recent entry.
func (s *Store) Front() (Snapshot, bool) {
	return s.At(0)
}

// At returns the entry at index i.
func (s *Store) At(i int) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.entries) {
		return Snapshot{}, false
	}
	return s.entries[i], true
}

// Contains reports whether content is in the history.
func (s *Store) Contains(content string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(content) >= 0
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Cap returns the store capacity.
func (s *Store) Cap() int { return s.capacity }

// Remove deletes the entry with the given content. It reports whether an
// entry was removed.
func (s *Store) Remove(content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(content)
	if i < 0 {
		return false
	}
	copy(s.entries[i:], s.entries[i+1:])
	s.entries[len(s.entries)-1] = Snapshot{}
	s.entries = s.entries[:len(s.entries)-1]
	return true
}

// Clear removes every entry and returns how many there were.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	clear(s.entries)
	s.entries = s.entries[:0]
	return n
}

// Restore replaces the whole history with seq, which must be ordered most
// recent first. Empty contents, repeated contents (the first occurrence wins)
// and anything beyond capacity are dropped. Restore returns the number of
// snapshots dropped.
func (s *Store) Restore(seq []Snapshot) int {
	kept := make([]Snapshot, 0, s.capacity+1)
	seen := make(map[string]struct{}, len(seq))
	for _, snap := range seq {
		if len(kept) == s.capacity {
			break
		}
		if snap.Content == "" {
			continue
		}
		if _, dup := seen[snap.Content]; dup {
			continue
		}
		seen[snap.Content] = struct{}{}
		kept = append(kept, snap)
	}

	s.mu.Lock()
	s.entries = kept
	s.mu.Unlock()
	return len(seq) - len(kept)
}

// indexLocked does a linear scan; at DefaultCapacity this beats maintaining
// a map alongside the slice. Must be called with s.mu held.
func (s *Store) indexLocked(content string) int {
	for i := range s.entries {
		if s.entries[i].Content == content {
			return i
		}
	}
	return -1
}

// Preview renders content as a single line of at most width runes, showing
// newlines as ↵ and marking truncation with …. A non-positive width
// disables truncation.
func Preview(content string, width int) string {
	line := strings.NewReplacer("\r\n", "↵", "\n", "↵", "\r", "↵", "\t", " ").Replace(content)
	if width <= 0 || utf8.RuneCountInString(line) <= width {
		return line
	}
	runes := []rune(line)
	return string(runes[:width]) + "…"
}
