// Package rescan refreshes a frecency store from a source scan in the
// background. Requests that arrive while a scan is running collapse into a
// single follow-up scan.
package rescan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alucardeht/poki-launcher/internal/frecency"
	"github.com/alucardeht/poki-launcher/internal/logger"
)

var log = logger.ForComponent("rescan")

// ScanFunc enumerates the current items. Per-item failures are returned
// alongside the items that did scan and never abort the merge.
type ScanFunc[T frecency.Item] func(ctx context.Context) ([]T, []error)

// Merger is the part of frecency.Store a rescan needs.
type Merger[T frecency.Item] interface {
	Merge(ctx context.Context, items []T) (frecency.MergeStats, error)
}

type Stats struct {
	Runs       int64               `json:"runs"`
	Failed     int64               `json:"failed"`
	ScanErrors int                 `json:"scan_errors"`
	Items      int                 `json:"items"`
	Merge      frecency.MergeStats `json:"merge"`
	LastRun    time.Time           `json:"last_run"`
	Duration   time.Duration       `json:"duration"`
	IsRunning  bool                `json:"is_running"`
}

type Rescanner[T frecency.Item] struct {
	name  string
	store Merger[T]
	scan  ScanFunc[T]

	requests chan struct{}
	runMu    sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stats   Stats
	statsMu sync.RWMutex
}

func New[T frecency.Item](name string, store Merger[T], scan ScanFunc[T]) *Rescanner[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Rescanner[T]{
		name:     name,
		store:    store,
		scan:     scan,
		requests: make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (r *Rescanner[T]) Start() {
	r.wg.Add(1)
	go r.worker()
	log.Debug("rescanner started", "plugin", r.name)
}

// Stop cancels any scan in flight and waits for the worker to exit.
func (r *Rescanner[T]) Stop() {
	r.cancel()
	r.wg.Wait()
	log.Debug("rescanner stopped", "plugin", r.name)
}

// Trigger asks for a background scan and returns immediately. If a scan is
// already queued the request is absorbed by it.
func (r *Rescanner[T]) Trigger() {
	select {
	case r.requests <- struct{}{}:
	default:
		log.Debug("rescan already pending", "plugin", r.name)
	}
}

func (r *Rescanner[T]) worker() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.requests:
			if _, err := r.Run(r.ctx); err != nil && r.ctx.Err() == nil {
				log.Error("rescan failed", "plugin", r.name, "error", err)
			}
		}
	}
}

// Run scans and merges synchronously. The store is only locked for the
// merge, so searches keep working while the scan walks the disk.
func (r *Rescanner[T]) Run(ctx context.Context) (frecency.MergeStats, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	r.setRunning(true)
	defer r.setRunning(false)

	start := time.Now()
	items, errs := r.scan(ctx)
	for _, err := range errs {
		log.Warn("scan error", "plugin", r.name, "error", err)
	}
	if err := ctx.Err(); err != nil {
		r.record(start, len(items), len(errs), frecency.MergeStats{}, err)
		return frecency.MergeStats{}, fmt.Errorf("rescan %s: %w", r.name, err)
	}

	stats, err := r.store.Merge(ctx, items)
	r.record(start, len(items), len(errs), stats, err)
	if err != nil {
		return stats, fmt.Errorf("rescan %s: %w", r.name, err)
	}

	log.Info("rescan complete",
		"plugin", r.name,
		"items", len(items),
		"kept", stats.Kept,
		"added", stats.Added,
		"removed", stats.Removed,
		"errors", len(errs),
		"duration", time.Since(start),
	)
	return stats, nil
}

func (r *Rescanner[T]) setRunning(running bool) {
	r.statsMu.Lock()
	r.stats.IsRunning = running
	r.statsMu.Unlock()
}

func (r *Rescanner[T]) record(start time.Time, items, scanErrors int, merge frecency.MergeStats, err error) {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	r.stats.Runs++
	if err != nil {
		r.stats.Failed++
	}
	r.stats.Items = items
	r.stats.ScanErrors = scanErrors
	r.stats.Merge = merge
	r.stats.LastRun = start
	r.stats.Duration = time.Since(start)
}

func (r *Rescanner[T]) GetStats() Stats {
	r.statsMu.RLock()
	defer r.statsMu.RUnlock()
	return r.stats
}
