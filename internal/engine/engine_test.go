package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"go.klb.dev/cliphist/internal/clip"
	"go.klb.dev/cliphist/internal/history"
	"go.klb.dev/cliphist/internal/hub"
	"go.klb.dev/cliphist/internal/persist"
)

// recordingFile wraps a persist.File and counts saves.
type recordingFile struct {
	*persist.File

	mu    sync.Mutex
	saves int
	fail  error
}

func (r *recordingFile) Save(entries []history.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.saves++
	return r.File.Save(entries)
}

func (r *recordingFile) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func (r *recordingFile) setFail(err error) {
	r.mu.Lock()
	r.fail = err
	r.mu.Unlock()
}

type fixture struct {
	eng  *Engine
	clip *clip.Memory
	file *recordingFile
}

// newFixture builds an engine whose ticker never fires on its own; tests
// drive polling with OnTick.
func newFixture(t *testing.T, debounce time.Duration) *fixture {
	t.Helper()
	mem := clip.NewMemory("fake")
	file := &recordingFile{File: persist.NewFile(filepath.Join(t.TempDir(), "history.json"))}
	eng := New(Config{PollInterval: time.Hour, SaveDebounce: debounce}, mem, file, hub.New())
	return &fixture{eng: eng, clip: mem, file: file}
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.eng.Start(context.Background()))
	t.Cleanup(func() { _ = f.eng.Shutdown() })
}

func (f *fixture) copyText(text string) {
	f.clip.Set(text)
	f.eng.OnTick()
}

func listContents(t *testing.T, e *Engine) []string {
	t.Helper()
	entries, err := e.List()
	require.NoError(t, err)
	out := make([]string, len(entries))
	for i, s := range entries {
		out[i] = s.Content
	}
	return out
}

func TestLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t, time.Hour)
	assert.Equal(t, Stopped, f.eng.State())

	_, err := f.eng.List()
	require.ErrorIs(t, err, ErrNotRunning)
	require.ErrorIs(t, f.eng.Select("x"), ErrNotRunning)

	require.NoError(t, f.eng.Start(context.Background()))
	assert.Equal(t, Running, f.eng.State())
	require.ErrorIs(t, f.eng.Start(context.Background()), ErrAlreadyStarted)

	require.NoError(t, f.eng.Shutdown())
	assert.Equal(t, Stopped, f.eng.State())
	require.NoError(t, f.eng.Shutdown(), "second shutdown is a no-op")

	_, err = f.eng.List()
	require.ErrorIs(t, err, ErrNotRunning)
}

func TestScenarioFromCopies(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.start(t)

	f.copyText("a")
	f.copyText("b")
	f.copyText("c")
	if diff := cmp.Diff([]string{"c", "b", "a"}, listContents(t, f.eng)); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}

	f.copyText("b")
	if diff := cmp.Diff([]string{"b", "c", "a"}, listContents(t, f.eng)); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}

	for i := range 48 {
		f.copyText(fmt.Sprintf("n%d", i))
	}
	got := listContents(t, f.eng)
	require.Len(t, got, history.DefaultCapacity)
	assert.Equal(t, "n47", got[0])
	assert.NotContains(t, got, "a", "a was least recently touched")
	assert.Equal(t, "b", got[len(got)-2])
	assert.Equal(t, "c", got[len(got)-1])
}

func TestEmptyClipboardNeverRecorded(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.start(t)

	f.copyText("kept")
	before := listContents(t, f.eng)

	f.copyText("")
	f.eng.OnTick()
	assert.Equal(t, before, listContents(t, f.eng))
}

func TestTransientReadFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.start(t)

	f.clip.Set("later")
	f.clip.FailReads(true)
	f.eng.OnTick()
	assert.Empty(t, listContents(t, f.eng))

	f.clip.FailReads(false)
	f.eng.OnTick()
	assert.Equal(t, []string{"later"}, listContents(t, f.eng))
}

func TestSelectWritesBackWithoutDuplicating(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.start(t)

	f.copyText("first")
	f.copyText("second")
	f.copyText("third")

	require.NoError(t, f.eng.Select("first"))
	text, err := f.clip.ReadText()
	require.NoError(t, err)
	assert.Equal(t, "first", text)
	assert.Equal(t, []string{"first", "third", "second"}, listContents(t, f.eng))

	front, err := f.eng.Entry(0)
	require.NoError(t, err)
	stamped := front.CapturedAt

	// The poll that observes our own write changes nothing.
	f.eng.OnTick()
	f.eng.OnTick()
	assert.Equal(t, []string{"first", "third", "second"}, listContents(t, f.eng))
	front, _ = f.eng.Entry(0)
	assert.Equal(t, stamped, front.CapturedAt)

	require.ErrorIs(t, f.eng.Select("never copied"), ErrUnknownEntry)
}

func TestSelectWriteFailureLeavesHistoryAlone(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.start(t)

	f.copyText("one")
	f.copyText("two")

	f.clip.FailWrites(true)
	err := f.eng.Select("one")
	require.ErrorIs(t, err, clip.ErrUnavailable)
	assert.Equal(t, []string{"two", "one"}, listContents(t, f.eng))
	f.clip.FailWrites(false)

	// A real user copy of "one" after the failed write is still recorded.
	f.copyText("one")
	assert.Equal(t, []string{"one", "two"}, listContents(t, f.eng))
}

func TestCopyRecordsNewContent(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.start(t)

	require.ErrorIs(t, f.eng.Copy(""), ErrEmptyContent)
	require.NoError(t, f.eng.Copy("from stdin"))
	assert.Equal(t, []string{"from stdin"}, listContents(t, f.eng))
	assert.Equal(t, 1, f.clip.Writes())

	f.eng.OnTick()
	assert.Equal(t, []string{"from stdin"}, listContents(t, f.eng))
}

func TestRemoveAndClear(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.start(t)

	f.copyText("a")
	f.copyText("b")
	f.copyText("c")

	ok, err := f.eng.Remove("b")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = f.eng.Remove("b")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"c", "a"}, listContents(t, f.eng))

	n, err := f.eng.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, listContents(t, f.eng))
}

func TestEntryOutOfRange(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.start(t)
	f.copyText("only")

	_, err := f.eng.Entry(1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = f.eng.Entry(-1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestDebouncedSaveCoalesces(t *testing.T) {
	defer goleak.VerifyNone(t)

	const debounce = 50 * time.Millisecond
	f := newFixture(t, debounce)
	require.NoError(t, f.eng.Start(context.Background()))

	for i := range 10 {
		f.copyText(fmt.Sprintf("burst %d", i))
	}

	require.Eventually(t, func() bool { return f.file.Saves() == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(4 * debounce)
	assert.Equal(t, 1, f.file.Saves(), "one write for the whole burst")

	saved, err := f.file.Read()
	require.NoError(t, err)
	require.Len(t, saved, 10)
	assert.Equal(t, "burst 9", saved[0].Content)

	require.NoError(t, f.eng.Shutdown())
	assert.Equal(t, 2, f.file.Saves(), "shutdown always flushes")
}

func TestShutdownFlushesAndRestartRestores(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t, time.Hour)
	require.NoError(t, f.eng.Start(context.Background()))
	f.copyText("a")
	f.copyText("b")
	f.copyText("c")
	require.NoError(t, f.eng.Shutdown())

	// Same checkpoint, fresh process.
	mem := clip.NewMemory("fake")
	mem.Set("c")
	next := New(Config{PollInterval: time.Hour}, mem, f.file.File, nil)
	require.NoError(t, next.Start(context.Background()))
	defer func() { require.NoError(t, next.Shutdown()) }()

	assert.Equal(t, []string{"c", "b", "a"}, listContents(t, next))

	// The clipboard still holds the restored front entry: nothing new.
	next.OnTick()
	assert.Equal(t, []string{"c", "b", "a"}, listContents(t, next))
}

func TestSaveFailureIsReportedNotFatal(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.start(t)
	f.copyText("survives in memory")

	diskFull := errors.New("no space left on device")
	f.file.setFail(diskFull)
	require.ErrorIs(t, f.eng.flush(), diskFull)

	st := f.eng.Status()
	assert.Equal(t, diskFull.Error(), st.LastSaveErr)
	assert.Equal(t, []string{"survives in memory"}, listContents(t, f.eng))

	f.file.setFail(nil)
	require.NoError(t, f.eng.flush())
	assert.Empty(t, f.eng.Status().LastSaveErr)
}

func TestEventsArePublished(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.start(t)

	sub := hub.NewChanSubscriber("test", 16)
	f.eng.Events().Register(sub)
	defer f.eng.Events().Unregister(sub)

	f.copyText("x")
	f.copyText("y")
	require.NoError(t, f.eng.Select("x"))
	_, err := f.eng.Remove("y")
	require.NoError(t, err)

	var kinds []hub.Kind
	for len(sub.C) > 0 {
		kinds = append(kinds, (<-sub.C).Kind)
	}
	assert.Equal(t, []hub.Kind{hub.KindAdded, hub.KindAdded, hub.KindSelected, hub.KindRemoved}, kinds)
}

func TestStatus(t *testing.T) {
	f := newFixture(t, 2*time.Second)
	f.start(t)
	f.copyText("a")

	st := f.eng.Status()
	assert.Equal(t, Running, st.State)
	assert.Equal(t, "fake", st.Backend)
	assert.Equal(t, f.file.Path(), st.HistoryFile)
	assert.Equal(t, 1, st.Entries)
	assert.Equal(t, history.DefaultCapacity, st.Capacity)
	assert.Equal(t, time.Hour, st.PollInterval)
	assert.Equal(t, 2*time.Second, st.SaveDebounce)
	assert.False(t, st.StartedAt.IsZero())
}

func TestConcurrentUICallsDuringPolling(t *testing.T) {
	mem := clip.NewMemory("fake")
	file := persist.NewFile(filepath.Join(t.TempDir(), "history.json"))
	eng := New(Config{PollInterval: time.Millisecond, SaveDebounce: 5 * time.Millisecond}, mem, file, nil)
	require.NoError(t, eng.Start(context.Background()))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 200 {
			mem.Set(fmt.Sprintf("v%d", i))
			time.Sleep(100 * time.Microsecond)
		}
	}()
	go func() {
		defer wg.Done()
		for range 200 {
			entries, err := eng.List()
			if !assert.NoError(t, err) {
				return
			}
			assert.LessOrEqual(t, len(entries), history.DefaultCapacity)
			if len(entries) > 0 {
				_ = eng.Select(entries[len(entries)-1].Content)
			}
		}
	}()
	wg.Wait()

	require.NoError(t, eng.Shutdown())
	saved := file.Load()
	assert.LessOrEqual(t, len(saved), history.DefaultCapacity)
	seen := make(map[string]bool)
	for _, s := range saved {
		assert.False(t, seen[s.Content], "duplicate %q in checkpoint", s.Content)
		seen[s.Content] = true
	}
}

// blockingClip holds every clipboard write until release is closed.
type blockingClip struct {
	*clip.Memory
	entered chan struct{}
	release chan struct{}
}

func (b *blockingClip) WriteText(text string) error {
	b.entered <- struct{}{}
	<-b.release
	return b.Memory.WriteText(text)
}

func TestShutdownWaitsForInFlightSelect(t *testing.T) {
	defer goleak.VerifyNone(t)

	mem := clip.NewMemory("fake")
	slow := &blockingClip{Memory: mem, entered: make(chan struct{}, 1), release: make(chan struct{})}
	file := &recordingFile{File: persist.NewFile(filepath.Join(t.TempDir(), "history.json"))}
	eng := New(Config{PollInterval: time.Hour, SaveDebounce: time.Hour}, slow, file, nil)
	require.NoError(t, eng.Start(context.Background()))

	mem.Set("a")
	eng.OnTick()
	mem.Set("b")
	eng.OnTick()

	selected := make(chan error, 1)
	go func() { selected <- eng.Select("a") }()
	<-slow.entered

	stopped := make(chan error, 1)
	go func() { stopped <- eng.Shutdown() }()
	select {
	case err := <-stopped:
		t.Fatalf("Shutdown returned (%v) while a select was still writing", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(slow.release)
	require.NoError(t, <-selected)
	require.NoError(t, <-stopped)
	assert.Equal(t, Stopped, eng.State())

	saved, err := file.Read()
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "a", saved[0].Content, "final checkpoint includes the select")

	require.ErrorIs(t, eng.Select("b"), ErrNotRunning)
	_, err = eng.Remove("b")
	require.ErrorIs(t, err, ErrNotRunning)
}

func TestOnTickAfterShutdownRecordsNothing(t *testing.T) {
	f := newFixture(t, time.Hour)
	require.NoError(t, f.eng.Start(context.Background()))
	f.copyText("a")
	require.NoError(t, f.eng.Shutdown())

	f.copyText("late")
	saved, err := f.file.Read()
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 1, f.eng.Status().Entries)
}

func TestFailedSaveRetriesOnNextChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	const debounce = 20 * time.Millisecond
	f := newFixture(t, debounce)
	require.NoError(t, f.eng.Start(context.Background()))

	f.file.setFail(errors.New("disk full"))
	f.copyText("a")
	require.Eventually(t, func() bool { return f.eng.Status().LastSaveErr != "" }, 2*time.Second, 5*time.Millisecond)

	f.file.setFail(nil)
	f.copyText("b")
	// Well inside saveRetryDelay: the change itself schedules the retry.
	require.Eventually(t, func() bool { return f.file.Saves() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, f.eng.Status().LastSaveErr)

	saved, err := f.file.Read()
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, []string{"b", "a"}, []string{saved[0].Content, saved[1].Content})

	require.NoError(t, f.eng.Shutdown())
}
