//go:build darwin

package clip

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
//
// NSInteger cliphist_changeCount() {
//     return [[NSPasteboard generalPasteboard] changeCount];
// }
import "C"

type darwinBackend struct {
	desktopBackend
}

// New returns the macOS clipboard backend. NSPasteboard's changeCount lets
// the watcher skip reads while nothing has been copied.
func New() Backend {
	if !initDesktop() {
		return NewMemory("headless (in-process)")
	}
	return &darwinBackend{desktopBackend{name: "macOS NSPasteboard"}}
}

func (b *darwinBackend) ChangeCount() int64 {
	return int64(C.cliphist_changeCount())
}
