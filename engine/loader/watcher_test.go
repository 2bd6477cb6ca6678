package loader

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changeLog struct {
	mu    sync.Mutex
	calls [][]string
}

func (c *changeLog) record(paths []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, paths)
}

func (c *changeLog) snapshot() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]string(nil), c.calls...)
}

func TestWatcherCoalescesWritesToWatchedFiles(t *testing.T) {
	dir := t.TempDir()
	model := writeFile(t, dir, "model.ply", []byte(asciiQuadPLY))
	other := writeFile(t, dir, "notes.txt", []byte("x"))

	log := &changeLog{}
	w, err := NewWatcher(log.record, WithDebounce(100*time.Millisecond), WithWatcherLogger(quiet()))
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Add(model))

	for i := range 5 {
		require.NoError(t, os.WriteFile(model, []byte(asciiQuadPLY+string(rune('a'+i))), 0o644))
	}
	require.NoError(t, os.WriteFile(other, []byte("y"), 0o644))

	abs, err := filepath.Abs(model)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(log.snapshot()) > 0 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)

	calls := log.snapshot()
	assert.Len(t, calls, 1, "a burst of writes is reported once")
	assert.Equal(t, []string{abs}, calls[0], "unwatched files in the same directory are ignored")
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	w, err := NewWatcher(func([]string) {}, WithWatcherLogger(quiet()))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	assert.Error(t, w.Add(filepath.Join(t.TempDir(), "late.ply")))
}

func TestNewWatcherRequiresCallback(t *testing.T) {
	assert.Panics(t, func() { _, _ = NewWatcher(nil) })
}
