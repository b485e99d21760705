package persist

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const (
	appDir   = "cliphist"
	fileName = "history.json"
)

// DefaultPath returns the per-user checkpoint location:
//
//   - Linux / BSD: $XDG_DATA_HOME/cliphist/history.json (~/.local/share if unset)
//   - macOS:       ~/Library/Application Support/cliphist/history.json
//   - Windows:     %LocalAppData%\cliphist\history.json
func DefaultPath() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", appDir, fileName), nil
	case "windows":
		if dir := os.Getenv("LocalAppData"); dir != "" {
			return filepath.Join(dir, appDir, fileName), nil
		}
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appDir, fileName), nil
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" && filepath.IsAbs(dir) {
		return filepath.Join(dir, appDir, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if home == "" {
		return "", errors.New("cannot determine home directory")
	}
	return filepath.Join(home, ".local", "share", appDir, fileName), nil
}
