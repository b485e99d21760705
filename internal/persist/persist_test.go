package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/cliphist/internal/history"
)

var t0 = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func sample(n int) []history.Snapshot {
	out := make([]history.Snapshot, n)
	for i := range out {
		out[i] = history.Snapshot{
			Content:    fmt.Sprintf("entry %d\nwith a second line", i),
			CapturedAt: t0.Add(-time.Duration(i) * time.Minute),
		}
	}
	return out
}

func TestSaveLoadRoundTrip(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "nested", "history.json"))
	want := sample(50)
	want[3].Content = "unicode ✓ and \"quotes\""

	require.NoError(t, f.Save(want))

	got, err := f.Read()
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, want, f.Load())
}

func TestSaveIsPrivateAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f := NewFile(filepath.Join(dir, "history.json"))
	require.NoError(t, f.Save(sample(3)))
	require.NoError(t, f.Save(sample(5)))

	ents, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, ents, 1)
	assert.Equal(t, "history.json", ents[0].Name())

	if runtime.GOOS != "windows" {
		info, err := os.Stat(f.Path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestReadMissingFile(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "absent.json"))
	got, err := f.Read()
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, f.Load())
}

func TestCorruptFilesLoadEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "truncated", content: `{"version":1,"entries":[{"content":"a","capt`, wantErr: ErrCorrupt},
		{name: "garbage", content: "\x00\x01not json", wantErr: ErrCorrupt},
		{name: "empty", content: "", wantErr: ErrCorrupt},
		{name: "no version", content: `{"entries":[]}`, wantErr: ErrCorrupt},
		{name: "future version", content: `{"version":99,"entries":[]}`, wantErr: ErrUnsupportedVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "history.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			f := NewFile(path)

			_, err := f.Read()
			require.ErrorIs(t, err, tt.wantErr)

			assert.Empty(t, f.Load())
			_, statErr := os.Stat(path + ".corrupt")
			assert.NoError(t, statErr, "corrupt file moved aside")
			_, statErr = os.Stat(path)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestReadLegacyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	legacy := `[{"content":"newest","timestamp":1760778000},{"content":"older","timestamp":1760774400}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	got, err := NewFile(path).Read()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "newest", got[0].Content)
	assert.Equal(t, time.Unix(1760778000, 0).UTC(), got[0].CapturedAt)
	assert.Equal(t, "older", got[1].Content)
}

func TestFailedSaveKeepsPreviousCheckpoint(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("directory permissions behave differently on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	f := NewFile(filepath.Join(dir, "history.json"))
	first := sample(2)
	require.NoError(t, f.Save(first))

	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

	assert.Error(t, f.Save(sample(7)))

	got, err := f.Read()
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestDefaultPath(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("XDG lookup is only used on unix-likes")
	}
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg/data", "cliphist", "history.json"), p)

	t.Setenv("XDG_DATA_HOME", "relative/ignored")
	t.Setenv("HOME", "/home/someone")
	p, err = DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/someone", ".local", "share", "cliphist", "history.json"), p)
}
