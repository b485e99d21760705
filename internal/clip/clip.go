// Package clip provides text access to the system clipboard across
// platforms. Build constraints select the implementation:
//
//	clip_darwin.go   — macOS via golang.design/x/clipboard + cgo changeCount
//	clip_windows.go  — Windows via golang.design/x/clipboard + GetClipboardSequenceNumber
//	clip_linux.go    — Linux via golang.design/x/clipboard, plain reads
//	clip_other.go    — everything else: in-process Memory clipboard
//
// When the display server is unavailable New falls back to Memory so the
// daemon still runs (history is then fed only by "cliphist copy").
package clip

import "errors"

// ErrNotText is returned by ReadText when the clipboard holds bytes that are
// not valid UTF-8 text.
var ErrNotText = errors.New("clipboard does not hold text")

// Backend is the interface that all platform clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// ReadText returns the current clipboard text. It returns "", nil when
	// the clipboard is empty or holds only non-text formats.
	ReadText() (string, error)

	// WriteText replaces the clipboard contents with text.
	WriteText(text string) error

	// Close releases any resources held by the backend.
	Close()
}

// ChangeCounter is implemented by backends whose platform exposes a
// clipboard change counter. The counter increases on every clipboard write
// by any application, so an unchanged value means a read can be skipped.
type ChangeCounter interface {
	ChangeCount() int64
}
