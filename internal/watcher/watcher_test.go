package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu      sync.Mutex
	batches [][]FileEvent
	changes []Change
}

func (c *collector) flush(events []FileEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, events)
}

func (c *collector) change(changes []Change) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, changes...)
}

func (c *collector) batchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.batches)
}

func (c *collector) roots() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, ch := range c.changes {
		out = append(out, ch.Root)
	}
	return out
}

func TestDebouncerCoalescesWithinWindow(t *testing.T) {
	c := &collector{}
	d := NewDebouncer(50*time.Millisecond, 100, c.flush)

	d.Add(FileEvent{Path: "/a", Type: EventCreate})
	d.Add(FileEvent{Path: "/a", Type: EventModify})
	d.Add(FileEvent{Path: "/b", Type: EventCreate})

	require.Eventually(t, func() bool { return c.batchCount() == 1 }, time.Second, 10*time.Millisecond)
	c.mu.Lock()
	batch := c.batches[0]
	c.mu.Unlock()
	assert.Len(t, batch, 2)
	for _, ev := range batch {
		if ev.Path == "/a" {
			assert.Equal(t, EventModify, ev.Type, "latest event per path wins")
		}
	}
}

func TestDebouncerFlushesAtMaxBatch(t *testing.T) {
	c := &collector{}
	d := NewDebouncer(time.Hour, 2, c.flush)

	d.Add(FileEvent{Path: "/a"})
	assert.Zero(t, c.batchCount())
	d.Add(FileEvent{Path: "/b"})
	assert.Equal(t, 1, c.batchCount())
}

func TestDebouncerStopFlushes(t *testing.T) {
	c := &collector{}
	d := NewDebouncer(time.Hour, 100, c.flush)

	d.Add(FileEvent{Path: "/a"})
	d.Stop()
	assert.Equal(t, 1, c.batchCount())

	d.Add(FileEvent{Path: "/b"})
	d.Flush()
	assert.Equal(t, 1, c.batchCount(), "events after Stop are dropped")
}

func TestGroupByRoot(t *testing.T) {
	roots := []string{"/usr/share/applications", "/home/u", "/home/u/.local/share/applications"}
	changes := groupByRoot(roots, []FileEvent{
		{Path: "/usr/share/applications/firefox.desktop"},
		{Path: "/home/u/.local/share/applications/vim.desktop"},
		{Path: "/home/u/notes.txt"},
		{Path: "/etc/passwd"},
		{Path: "/usr/share/applications-extra/x"},
	})

	require.Len(t, changes, 3)
	assert.Equal(t, "/usr/share/applications", changes[0].Root)
	assert.Len(t, changes[0].Events, 1)
	assert.Equal(t, "/home/u", changes[1].Root)
	assert.Len(t, changes[1].Events, 2)
	assert.Equal(t, "/home/u/.local/share/applications", changes[2].Root)
	assert.Len(t, changes[2].Events, 1)
}

func TestGroupByRootNested(t *testing.T) {
	changes := groupByRoot([]string{"/home/u", "/home/u/Apps"}, []FileEvent{
		{Path: "/home/u/Apps/x.desktop"},
	})

	require.Len(t, changes, 2)
	assert.Equal(t, "/home/u", changes[0].Root)
	assert.Equal(t, "/home/u/Apps", changes[1].Root)
	for _, ch := range changes {
		assert.Equal(t, []FileEvent{{Path: "/home/u/Apps/x.desktop"}}, ch.Events)
	}
}

func TestShouldIgnore(t *testing.T) {
	w := &Watcher{config: WatcherConfig{IgnorePatterns: []string{"**/*.tmp"}}}
	assert.True(t, w.shouldIgnore("/apps/.hidden.desktop"))
	assert.True(t, w.shouldIgnore("/apps/x.tmp"))
	assert.False(t, w.shouldIgnore("/apps/x.desktop"))

	w.config.WatchHidden = true
	assert.False(t, w.shouldIgnore("/apps/.hidden.desktop"))
}

func TestWatcherReportsChangesPerRoot(t *testing.T) {
	apps := t.TempDir()
	docs := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(apps, "sub"), 0o755))

	c := &collector{}
	cfg := DefaultWatcherConfig()
	cfg.DebounceWindow = 50 * time.Millisecond

	w, err := New(cfg, c.change)
	require.NoError(t, err)
	require.NoError(t, w.AddRoot(apps))
	require.NoError(t, w.AddRoot(docs))
	require.NoError(t, w.AddRoot(filepath.Join(apps, "missing")))
	assert.Len(t, w.Roots(), 2)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(apps, "sub", "new.desktop"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		roots := c.roots()
		return len(roots) > 0 && roots[0] == apps
	}, 5*time.Second, 20*time.Millisecond)
	assert.NotContains(t, c.roots(), docs)
}
