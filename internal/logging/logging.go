// Package logging configures the global slog logger for the cliphist binary.
//
// The daemon logs to stderr: colourised tinter output on a terminal, JSON
// otherwise (launchd, systemd and friends capture stderr).
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pwntr/tinter"
)

// Format selects the log output format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat maps the --log-format value (or CLIPHIST_LOG_FORMAT) to a
// Format. "tint" and "human" are accepted as spellings of text; anything
// unrecognised leaves the choice to the terminal check.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "text", "tint", "human":
		return FormatText
	case "json":
		return FormatJSON
	default:
		return FormatAuto
	}
}

// ParseLevel maps --log-level to a slog.Level. Unknown or empty values give
// Info, the daemon's level when it runs under a service manager; Resolve
// handles the empty case for interactive runs.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// IsTTY reports whether w is a terminal, including Cygwin/MSYS consoles.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// NewHandler returns the handler Setup would install, writing to w.
func NewHandler(w io.Writer, format Format, level slog.Level) slog.Handler {
	useTint := format == FormatText || (format == FormatAuto && IsTTY(w))
	if useTint {
		return tinter.NewHandler(w, &tinter.Options{
			Level:      level,
			TimeFormat: "15:04:05.000",
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// Setup installs the global slog logger on stderr. The daemon calls it once,
// after its flags and config file are bound.
func Setup(format Format, level slog.Level) {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, format, level)))
}

// Resolve picks the level when none was given (debug when interactive, info
// for a background service) and installs the logger.
func Resolve(interactive bool, formatStr, levelStr string) {
	level := ParseLevel(levelStr)
	if levelStr == "" && interactive {
		level = slog.LevelDebug
	}
	Setup(ParseFormat(formatStr), level)
}
