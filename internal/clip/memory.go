package clip

import (
	"errors"
	"sync"
)

// ErrUnavailable is returned by Memory when a read or write failure has been
// injected with FailReads or FailWrites.
var ErrUnavailable = errors.New("clipboard unavailable")

// Memory is an in-process clipboard. It backs headless hosts and stands in
// for the OS clipboard in tests.
type Memory struct {
	name string

	mu         sync.Mutex
	text       string
	writes     int
	failReads  bool
	failWrites bool
}

// NewMemory returns an empty in-process clipboard.
func NewMemory(name string) *Memory {
	if name == "" {
		name = "memory"
	}
	return &Memory{name: name}
}

func (m *Memory) Name() string { return m.name }

func (m *Memory) ReadText() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReads {
		return "", ErrUnavailable
	}
	return m.text, nil
}

func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return ErrUnavailable
	}
	m.text = text
	m.writes++
	return nil
}

func (m *Memory) Close() {}

// Set simulates another application copying text.
func (m *Memory) Set(text string) {
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()
}

// Writes returns how many WriteText calls succeeded.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// FailReads makes subsequent ReadText calls fail until reset.
func (m *Memory) FailReads(fail bool) {
	m.mu.Lock()
	m.failReads = fail
	m.mu.Unlock()
}

// FailWrites makes subsequent WriteText calls fail until reset.
func (m *Memory) FailWrites(fail bool) {
	m.mu.Lock()
	m.failWrites = fail
	m.mu.Unlock()
}
