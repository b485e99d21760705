//go:build darwin || linux || windows

package clip

import (
	"log/slog"
	"unicode/utf8"

	"golang.design/x/clipboard"
)

// desktopBackend is the golang.design/x/clipboard implementation shared by
// the platform files.
type desktopBackend struct {
	name string
}

// initDesktop calls clipboard.Init. It is called from New rather than init()
// so that CLI sub-commands (list, select, status) that never construct a
// Backend don't log spurious warnings on headless systems.
func initDesktop() bool {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, using in-process clipboard", "err", err)
		return false
	}
	return true
}

func (b *desktopBackend) Name() string { return b.name }

func (b *desktopBackend) ReadText() (string, error) {
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		return "", nil
	}
	if !utf8.Valid(data) {
		return "", ErrNotText
	}
	return string(data), nil
}

func (b *desktopBackend) WriteText(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (b *desktopBackend) Close() {}
