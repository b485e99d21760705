// Package persist checkpoints the clipboard history to a single JSON file.
//
// Every save rewrites the whole file: the document is written to a temporary
// file in the same directory, synced, and renamed over the previous
// checkpoint, so a crash mid-write leaves the old checkpoint intact.
//
// File format (version 1):
//
//	{
//	  "version": 1,
//	  "saved_at": "2026-10-18T10:00:00Z",
//	  "entries": [{"content": "...", "captured_at": "..."}]
//	}
//
// Entries are ordered most recent first. The pre-versioned format, a bare
// array of {"content", "timestamp"} with Unix seconds, is still read.
package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.klb.dev/cliphist/internal/history"
)

// SchemaVersion is the newest file version this build writes and reads.
const SchemaVersion = 1

var (
	// ErrCorrupt means the checkpoint exists but cannot be decoded.
	ErrCorrupt = errors.New("history file is corrupt")
	// ErrUnsupportedVersion means the checkpoint was written by a newer build.
	ErrUnsupportedVersion = errors.New("history file version not supported")
)

type document struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Entries []record  `json:"entries"`
}

type record struct {
	Content    string    `json:"content"`
	CapturedAt time.Time `json:"captured_at"`
}

type legacyRecord struct {
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// File reads and writes the history checkpoint at a fixed path.
type File struct {
	path string
	now  func() time.Time
}

// NewFile returns a File for path. The directory is created on first save.
func NewFile(path string) *File {
	return &File{path: path, now: time.Now}
}

// Path returns the checkpoint path.
func (f *File) Path() string { return f.path }

// Save writes entries as the new checkpoint.
func (f *File) Save(entries []history.Snapshot) error {
	doc := document{
		Version: SchemaVersion,
		SavedAt: f.now().UTC(),
		Entries: make([]record, len(entries)),
	}
	for i, e := range entries {
		doc.Entries[i] = record{Content: e.Content, CapturedAt: e.CapturedAt.UTC()}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("persist: marshal: %w", err)
	}
	data = append(data, '\n')
	return writeFileAtomic(f.path, data)
}

// Read loads the checkpoint strictly. A missing file is not an error and
// yields no entries.
func (f *File) Read() ([]history.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persist: read %s: %w", f.path, err)
	}
	return decode(data, f.path)
}

// Load reads the checkpoint and never fails: an unreadable, corrupt or
// too-new file is logged and treated as empty history. A corrupt file is
// moved aside to <path>.corrupt so the next save does not overwrite it.
func (f *File) Load() []history.Snapshot {
	entries, err := f.Read()
	if err == nil {
		return entries
	}
	slog.Warn("history checkpoint unreadable, starting empty", "path", f.path, "err", err)
	if errors.Is(err, ErrCorrupt) || errors.Is(err, ErrUnsupportedVersion) {
		aside := f.path + ".corrupt"
		if rerr := os.Rename(f.path, aside); rerr != nil {
			slog.Warn("could not move checkpoint aside", "path", f.path, "err", rerr)
		} else {
			slog.Info("checkpoint moved aside", "path", aside)
		}
	}
	return nil
}

func decode(data []byte, path string) ([]history.Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%s: %w: empty file", path, ErrCorrupt)
	}

	if trimmed[0] == '[' {
		var legacy []legacyRecord
		if err := json.Unmarshal(trimmed, &legacy); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", path, ErrCorrupt, err)
		}
		out := make([]history.Snapshot, len(legacy))
		for i, r := range legacy {
			out[i] = history.Snapshot{Content: r.Content, CapturedAt: time.Unix(r.Timestamp, 0).UTC()}
		}
		return out, nil
	}

	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrCorrupt, err)
	}
	if doc.Version < 1 {
		return nil, fmt.Errorf("%s: %w: missing version", path, ErrCorrupt)
	}
	if doc.Version > SchemaVersion {
		return nil, fmt.Errorf("%s: %w: version %d > %d", path, ErrUnsupportedVersion, doc.Version, SchemaVersion)
	}
	out := make([]history.Snapshot, len(doc.Entries))
	for i, r := range doc.Entries {
		out[i] = history.Snapshot{Content: r.Content, CapturedAt: r.CapturedAt}
	}
	return out, nil
}

// writeFileAtomic writes data to a temp file next to path and renames it into
// place. The file is private to the user: clipboard history routinely holds
// passwords and tokens.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("persist: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("persist: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("persist: write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Chmod(0o600); err != nil {
		return fmt.Errorf("persist: chmod %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("persist: sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("persist: close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("persist: rename to %s: %w", path, err)
	}
	return nil
}
