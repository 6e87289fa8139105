// Package watcher reports changes under a set of root directories, batched
// and attributed to the root they happened in.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/alucardeht/poki-launcher/internal/logger"
)

var log = logger.ForComponent("watcher")

// ChangeFunc receives every flushed batch, one Change per affected root.
type ChangeFunc func([]Change)

type Watcher struct {
	config      WatcherConfig
	fsWatcher   *fsnotify.Watcher
	fsWatcherMu sync.Mutex
	debouncer   *Debouncer
	onChange    ChangeFunc
	roots       []string
	mu          sync.RWMutex
	running     bool
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
}

func New(config WatcherConfig, onChange ChangeFunc) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		config:    config,
		fsWatcher: fsWatcher,
		onChange:  onChange,
	}
	w.debouncer = NewDebouncer(config.DebounceWindow, config.MaxBatchSize, w.onFlush)
	return w, nil
}

func (w *Watcher) addToWatcher(path string) error {
	w.fsWatcherMu.Lock()
	defer w.fsWatcherMu.Unlock()
	return w.fsWatcher.Add(path)
}

// AddRoot watches path and every directory below it. A root that does not
// exist yet is skipped without error.
func (w *Watcher) AddRoot(path string) error {
	path = filepath.Clean(path)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		log.Debug("watch root does not exist", "path", path)
		return nil
	}

	w.mu.Lock()
	if slices.Contains(w.roots, path) {
		w.mu.Unlock()
		return nil
	}
	w.roots = append(w.roots, path)
	w.mu.Unlock()

	if err := w.addToWatcher(path); err != nil {
		return err
	}
	w.watchTree(path)

	log.Info("watching root", "path", path)
	return nil
}

// watchTree adds every directory below path. fsnotify is not recursive.
func (w *Watcher) watchTree(path string) {
	entries, err := os.ReadDir(path)
	if err != nil {
		log.Debug("failed to read directory", "path", path, "error", err)
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		full := filepath.Join(path, entry.Name())
		if w.shouldIgnore(full) {
			continue
		}
		if err := w.addToWatcher(full); err != nil {
			log.Debug("failed to watch directory", "path", full, "error", err)
			continue
		}
		w.watchTree(full)
	}
}

func (w *Watcher) Roots() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.roots)
}

func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.mu.Unlock()

	log.Info("starting file watcher", "roots", len(w.Roots()))
	go w.handleEvents()
	return nil
}

func (w *Watcher) handleEvents() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			log.Debug("file event", "path", event.Name, "op", event.Op.String())

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !w.shouldIgnore(event.Name) {
					if err := w.addToWatcher(event.Name); err == nil {
						w.watchTree(event.Name)
					}
				}
			}

			if fileEvent := w.convertEvent(event); fileEvent != nil {
				w.debouncer.Add(*fileEvent)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) convertEvent(event fsnotify.Event) *FileEvent {
	if w.shouldIgnore(event.Name) {
		return nil
	}

	var eventType EventType
	switch {
	case event.Has(fsnotify.Create):
		eventType = EventCreate
	case event.Has(fsnotify.Write):
		eventType = EventModify
	case event.Has(fsnotify.Remove):
		eventType = EventDelete
	case event.Has(fsnotify.Rename):
		eventType = EventRename
	default:
		return nil
	}

	return &FileEvent{
		Path:      event.Name,
		Type:      eventType,
		Timestamp: time.Now(),
	}
}

func (w *Watcher) onFlush(events []FileEvent) {
	changes := groupByRoot(w.Roots(), events)
	if len(changes) == 0 || w.onChange == nil {
		return
	}
	log.Info("flushing changes", "events", len(events), "roots", len(changes))
	w.onChange(changes)
}

func (w *Watcher) shouldIgnore(path string) bool {
	if !w.config.WatchHidden && strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	for _, pattern := range w.config.IgnorePatterns {
		if match, _ := doublestar.PathMatch(pattern, path); match {
			return true
		}
	}
	return false
}

// Stop ends event handling and flushes anything still pending.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.cancel()
	done := w.done
	w.mu.Unlock()

	log.Info("stopping file watcher")
	<-done
	w.debouncer.Stop()

	w.fsWatcherMu.Lock()
	defer w.fsWatcherMu.Unlock()
	return w.fsWatcher.Close()
}
