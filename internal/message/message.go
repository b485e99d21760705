// Package message defines the cliphist control protocol spoken over the
// local IPC socket.
//
// All messages are newline-delimited JSON. A client sends one request and
// reads one response, except WATCH, after which the daemon streams EVENT
// messages until either side closes the connection.
package message

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies the kind of message.
type Type string

const (
	// Requests.
	TypeList   Type = "LIST"
	TypeSelect Type = "SELECT"
	TypeCopy   Type = "COPY"
	TypeRemove Type = "REMOVE"
	TypeClear  Type = "CLEAR"
	TypeStatus Type = "STATUS"
	TypeWatch  Type = "WATCH"

	// Responses.
	TypeEntries        Type = "ENTRIES"
	TypeOK             Type = "OK"
	TypeStatusResponse Type = "STATUS_RESPONSE"
	TypeEvent          Type = "EVENT"
	TypeError          Type = "ERROR"
)

// Entry is one history entry as shown to clients. Index 0 is the most
// recent.
type Entry struct {
	Index      int       `json:"index" yaml:"index"`
	Content    string    `json:"content" yaml:"content"`
	CapturedAt time.Time `json:"captured_at" yaml:"captured_at"`
}

// Event mirrors a hub event on the wire.
type Event struct {
	Kind       string    `json:"kind"`
	Content    string    `json:"content,omitempty"`
	CapturedAt time.Time `json:"captured_at,omitzero"`
}

// Status carries daemon metadata for STATUS_RESPONSE.
type Status struct {
	Version      string    `json:"version"`
	PID          int       `json:"pid"`
	State        string    `json:"state"`
	Backend      string    `json:"backend"`
	HistoryFile  string    `json:"history_file"`
	Entries      int       `json:"entries"`
	Capacity     int       `json:"capacity"`
	PollInterval string    `json:"poll_interval"`
	SaveDebounce string    `json:"save_debounce"`
	StartedAt    time.Time `json:"started_at"`
	LastSave     time.Time `json:"last_save,omitzero"`
	LastSaveErr  string    `json:"last_save_error,omitempty"`
	Subscribers  int       `json:"subscribers"`
}

// Message is the top-level wire envelope.
type Message struct {
	// Always present
	Type Type `json:"type"`

	// SELECT / REMOVE address an entry by Index or by Content; Index wins
	// when both are set. COPY uses Content.
	Index   *int   `json:"index,omitempty"`
	Content string `json:"content,omitempty"`

	// LIST: 0 means everything.
	Limit int `json:"limit,omitempty"`

	// ENTRIES
	Entries []Entry `json:"entries,omitempty"`

	// OK: REMOVE and CLEAR report how many entries went away.
	Removed int `json:"removed,omitempty"`

	// STATUS_RESPONSE
	Status *Status `json:"status,omitempty"`

	// EVENT
	Event *Event `json:"event,omitempty"`

	// ERROR
	Error string `json:"error,omitempty"`
}

// IndexPtr is a convenience for building SELECT/REMOVE requests.
func IndexPtr(i int) *int { return &i }

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	if m.Type == "" {
		return nil, fmt.Errorf("message decode: missing type")
	}
	return &m, nil
}

// Errorf builds an ERROR response.
func Errorf(format string, args ...any) *Message {
	return &Message{Type: TypeError, Error: fmt.Sprintf(format, args...)}
}

// Err returns the ERROR text as an error, or nil for any other type.
func (m *Message) Err() error {
	if m.Type != TypeError {
		return nil
	}
	return &RemoteError{Msg: m.Error}
}

// RemoteError is an error reported by the daemon.
type RemoteError struct {
	Msg string
}

func (e *RemoteError) Error() string { return "cliphist daemon: " + e.Msg }
