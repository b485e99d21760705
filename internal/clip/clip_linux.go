//go:build linux

package clip

// New returns the Linux clipboard backend, or a Memory backend if the
// display environment is unavailable (a headless server without X11 or
// Wayland). Linux offers no change counter, so every poll reads.
func New() Backend {
	if !initDesktop() {
		return NewMemory("headless (in-process)")
	}
	return &desktopBackend{name: "Linux clipboard (poll)"}
}
