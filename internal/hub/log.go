package hub

import (
	"context"
	"log/slog"

	"go.klb.dev/cliphist/internal/history"
)

const previewWidth = 120

// LogEvent logs a history change at INFO (kind, size) and the content
// preview at DEBUG. Clipboard content is never logged at INFO: it routinely
// holds secrets.
func LogEvent(ev Event) {
	slog.Info("history "+string(ev.Kind), "bytes", len(ev.Content))

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) || ev.Content == "" {
		return
	}
	slog.Debug("history entry", "kind", ev.Kind, "preview", history.Preview(ev.Content, previewWidth))
}
