// Package ipc provides the local control channel between the cliphist daemon
// and the CLI tools (list/select/copy/status/watch/pick).
//
// The channel carries newline-delimited JSON messages (see package wire) over
// a Unix domain socket, or a named pipe on Windows. The daemon listens; CLI
// sub-commands dial, send one request and read the response.
package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
)

// ErrNotRunning is returned by Dial when nothing listens on the socket.
var ErrNotRunning = errors.New("cliphist daemon is not running")

// SocketPath returns the platform-appropriate path for the IPC socket.
//
//   - $CLIPHIST_SOCKET when set
//   - Linux / macOS: $XDG_RUNTIME_DIR/cliphist.sock, else $TMPDIR/cliphist.sock
//   - Windows:       \\.\pipe\cliphist
func SocketPath() string {
	if s := os.Getenv("CLIPHIST_SOCKET"); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a daemon appears to be listening on path. It
// does a cheap dial-and-close; no data is exchanged.
func IsRunning(path string) bool {
	c, err := dialIPC(path)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a listener on path. A stale socket left by a crashed run is
// removed first; a live one makes Listen fail so two daemons never share a
// socket.
func Listen(path string) (net.Listener, error) {
	if IsRunning(path) {
		return nil, fmt.Errorf("listen %s: another cliphist daemon is already running", path)
	}
	ln, err := listenIPC(path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}
	return ln, nil
}

// Dial connects to the daemon at path.
func Dial(path string) (net.Conn, error) {
	c, err := dialIPC(path)
	if err != nil {
		return nil, fmt.Errorf("%w (%s): %w", ErrNotRunning, path, err)
	}
	return c, nil
}
