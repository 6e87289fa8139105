package watcher

import (
	"sync"
	"time"
)

// Debouncer collects events and hands them over in one batch once no new
// event has arrived for window, or as soon as maxBatch distinct paths are
// pending. Only the latest event per path is kept.
type Debouncer struct {
	window   time.Duration
	maxBatch int
	events   map[string]FileEvent
	mu       sync.Mutex
	timer    *time.Timer
	onFlush  func([]FileEvent)
	stopped  bool
}

func NewDebouncer(window time.Duration, maxBatch int, onFlush func([]FileEvent)) *Debouncer {
	if maxBatch <= 0 {
		maxBatch = 1
	}
	return &Debouncer{
		window:   window,
		maxBatch: maxBatch,
		events:   make(map[string]FileEvent),
		onFlush:  onFlush,
	}
}

func (d *Debouncer) Add(event FileEvent) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}

	d.events[event.Path] = event
	if len(d.events) >= d.maxBatch {
		d.flushLocked()
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.Flush)
	d.mu.Unlock()
}

// Flush hands over whatever is pending right away.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	d.flushLocked()
}

// flushLocked must be called with d.mu held and releases it before
// invoking the callback.
func (d *Debouncer) flushLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if len(d.events) == 0 {
		d.mu.Unlock()
		return
	}

	events := make([]FileEvent, 0, len(d.events))
	for _, event := range d.events {
		events = append(events, event)
	}
	d.events = make(map[string]FileEvent)
	d.mu.Unlock()

	if d.onFlush != nil {
		d.onFlush(events)
	}
}

// Stop flushes pending events and ignores any added afterwards.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.flushLocked()
}
