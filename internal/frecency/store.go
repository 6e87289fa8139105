package frecency

import (
	"context"
	"time"
)

// Store is the database contract every storage design implements. All
// methods are safe for concurrent use.
type Store[T Item] interface {
	RankedList(ctx context.Context, search string, limit int) ([]Container[T], error)
	Get(ctx context.Context, id ID) (Container[T], error)
	UpdateScore(ctx context.Context, id ID, weight float64) error
	Merge(ctx context.Context, items []T) (MergeStats, error)
	Rebaseline(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

type Stats struct {
	Backend       string        `json:"backend"`
	Records       int           `json:"records"`
	ReferenceTime time.Time     `json:"reference_time"`
	HalfLife      time.Duration `json:"half_life"`
}
