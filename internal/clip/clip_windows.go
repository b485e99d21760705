//go:build windows

package clip

import (
	"golang.org/x/sys/windows"
)

var procGetClipboardSequenceNumber = windows.NewLazySystemDLL("user32.dll").NewProc("GetClipboardSequenceNumber")

type windowsBackend struct {
	desktopBackend
}

// New returns the Windows clipboard backend. GetClipboardSequenceNumber lets
// the watcher skip reads while nothing has been copied.
func New() Backend {
	if !initDesktop() {
		return NewMemory("headless (in-process)")
	}
	return &windowsBackend{desktopBackend{name: "Windows Clipboard"}}
}

func (b *windowsBackend) ChangeCount() int64 {
	// GetClipboardSequenceNumber returns 0 when the caller lacks access to the
	// window station; the watcher then reads on every tick.
	seq, _, _ := procGetClipboardSequenceNumber.Call()
	return int64(uint32(seq))
}
