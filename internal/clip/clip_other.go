//go:build !darwin && !windows && !linux

package clip

// New returns an in-process clipboard for platforms without a supported
// display clipboard (BSDs, containers, CI).
func New() Backend {
	return NewMemory("headless (in-process)")
}
