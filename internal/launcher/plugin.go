// Package launcher dispatches searches and launches to plugins, each backed
// by its own frecency store.
package launcher

import (
	"context"
	"errors"

	"github.com/alucardeht/poki-launcher/internal/frecency"
	"github.com/alucardeht/poki-launcher/internal/rescan"
)

// LaunchWeight is added to an item's score each time it is launched.
const LaunchWeight = 1.0

var ErrUnknownPlugin = errors.New("unknown plugin")

// Entry is a search result as shown to the user.
type Entry struct {
	Plugin string      `json:"plugin"`
	ID     frecency.ID `json:"id"`
	Name   string      `json:"name"`
	Icon   string      `json:"icon,omitempty"`
	Detail string      `json:"detail,omitempty"`
}

type PluginStats struct {
	Name   string         `json:"name"`
	Store  frecency.Stats `json:"store"`
	Rescan rescan.Stats   `json:"rescan"`
}

type Plugin interface {
	Name() string
	// Matches reports whether the plugin handles input and returns the
	// search text with any plugin prefix removed.
	Matches(input string) (query string, ok bool)
	Search(ctx context.Context, query string, limit int) ([]Entry, error)
	Launch(ctx context.Context, id frecency.ID) error
	// Rescan refreshes the store synchronously; Reload schedules it.
	Rescan(ctx context.Context) (frecency.MergeStats, error)
	Reload()
	WatchPaths() []string
	Stats(ctx context.Context) (PluginStats, error)
	Start(ctx context.Context) error
	Close() error
}
