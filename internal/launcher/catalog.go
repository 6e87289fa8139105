package launcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alucardeht/poki-launcher/internal/frecency"
	"github.com/alucardeht/poki-launcher/internal/rescan"
)

type CatalogConfig[T frecency.Item] struct {
	Name  string
	Store frecency.Store[T]
	Scan  rescan.ScanFunc[T]
	// Prefix selects this catalog; an empty prefix matches any input.
	Prefix   string
	Open     func(ctx context.Context, item T) error
	Describe func(item T) Entry
	Watch    []string

	RebaselineAfter time.Duration
	Now             func() time.Time
}

// Catalog is a Plugin over any item type.
type Catalog[T frecency.Item] struct {
	cfg       CatalogConfig[T]
	rescanner *rescan.Rescanner[T]
}

func NewCatalog[T frecency.Item](cfg CatalogConfig[T]) *Catalog[T] {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Catalog[T]{
		cfg:       cfg,
		rescanner: rescan.New[T](cfg.Name, cfg.Store, cfg.Scan),
	}
}

func (c *Catalog[T]) Name() string { return c.cfg.Name }

func (c *Catalog[T]) Matches(input string) (string, bool) {
	if c.cfg.Prefix == "" {
		return input, true
	}
	if rest, ok := strings.CutPrefix(input, c.cfg.Prefix); ok {
		return strings.TrimLeft(rest, " "), true
	}
	return "", false
}

func (c *Catalog[T]) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	items, err := c.cfg.Store.RankedList(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.cfg.Name, err)
	}
	out := make([]Entry, len(items))
	for i, item := range items {
		out[i] = c.describe(item)
	}
	return out, nil
}

func (c *Catalog[T]) describe(item frecency.Container[T]) Entry {
	var e Entry
	if c.cfg.Describe != nil {
		e = c.cfg.Describe(item.Item)
	} else {
		e.Name = item.Item.SortString()
	}
	e.Plugin = c.cfg.Name
	e.ID = item.ID
	return e
}

// Launch opens the item and, once it has started, bumps its score.
func (c *Catalog[T]) Launch(ctx context.Context, id frecency.ID) error {
	item, err := c.cfg.Store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", c.cfg.Name, err)
	}
	if err := c.cfg.Open(ctx, item.Item); err != nil {
		return fmt.Errorf("%s: launch %q: %w", c.cfg.Name, item.Item.SortString(), err)
	}
	if err := c.cfg.Store.UpdateScore(ctx, id, LaunchWeight); err != nil {
		// The item is running; a missed bump only costs ranking accuracy.
		log.Warn("failed to update score", "plugin", c.cfg.Name, "id", id, "error", err)
	}
	return nil
}

func (c *Catalog[T]) Rescan(ctx context.Context) (frecency.MergeStats, error) {
	return c.rescanner.Run(ctx)
}

func (c *Catalog[T]) Reload() {
	c.rescanner.Trigger()
}

func (c *Catalog[T]) WatchPaths() []string { return c.cfg.Watch }

func (c *Catalog[T]) Stats(ctx context.Context) (PluginStats, error) {
	st, err := c.cfg.Store.Stats(ctx)
	if err != nil {
		return PluginStats{}, fmt.Errorf("%s: %w", c.cfg.Name, err)
	}
	return PluginStats{Name: c.cfg.Name, Store: st, Rescan: c.rescanner.GetStats()}, nil
}

// Start rebaselines a stale store, then starts background rescans with an
// initial one queued.
func (c *Catalog[T]) Start(ctx context.Context) error {
	if c.cfg.RebaselineAfter > 0 {
		st, err := c.cfg.Store.Stats(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", c.cfg.Name, err)
		}
		if age := c.cfg.Now().Sub(st.ReferenceTime); age > c.cfg.RebaselineAfter {
			if err := c.cfg.Store.Rebaseline(ctx); err != nil {
				return fmt.Errorf("%s: rebaseline: %w", c.cfg.Name, err)
			}
			log.Info("rebaselined scores", "plugin", c.cfg.Name, "age", age)
		}
	}

	c.rescanner.Start()
	c.rescanner.Trigger()
	return nil
}

func (c *Catalog[T]) Close() error {
	c.rescanner.Stop()
	if err := c.cfg.Store.Close(); err != nil {
		return fmt.Errorf("%s: close: %w", c.cfg.Name, err)
	}
	return nil
}
