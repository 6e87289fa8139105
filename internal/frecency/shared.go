package frecency

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SaveFunc persists a snapshot of db. It runs with the Shared lock held.
type SaveFunc[T Item] func(ctx context.Context, db *DB[T]) error

// Shared serialises access to a DB and persists it after every mutation. A
// mutation whose save fails is rolled back, so memory never runs ahead of
// disk.
type Shared[T Item] struct {
	mu      sync.Mutex
	db      *DB[T]
	save    SaveFunc[T]
	backend string
}

// NewShared wraps db. A nil save keeps the database in memory only.
func NewShared[T Item](backend string, db *DB[T], save SaveFunc[T]) *Shared[T] {
	return &Shared[T]{db: db, save: save, backend: backend}
}

func (s *Shared[T]) persist(ctx context.Context) error {
	if s.save == nil {
		return nil
	}
	if err := s.save(ctx, s.db); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// commit saves the mutation made since snap, or undoes it.
func (s *Shared[T]) commit(ctx context.Context, snap snapshot[T]) error {
	if err := s.persist(ctx); err != nil {
		s.db.restore(snap)
		return err
	}
	return nil
}

func (s *Shared[T]) RankedList(ctx context.Context, search string, limit int) ([]Container[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.RankedList(search, limit), nil
}

func (s *Shared[T]) Get(ctx context.Context, id ID) (Container[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.db.Get(id)
	if !ok {
		return Container[T]{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return Container[T]{ID: rec.ID, Item: rec.Item}, nil
}

func (s *Shared[T]) UpdateScore(ctx context.Context, id ID, weight float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.db.snapshot()
	if err := s.db.UpdateScore(id, weight); err != nil {
		return err
	}
	return s.commit(ctx, snap)
}

func (s *Shared[T]) Merge(ctx context.Context, items []T) (MergeStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.db.snapshot()
	stats := s.db.Merge(items)
	if err := s.commit(ctx, snap); err != nil {
		return MergeStats{}, err
	}
	return stats, nil
}

func (s *Shared[T]) Rebaseline(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.db.snapshot()
	s.db.Rebaseline()
	return s.commit(ctx, snap)
}

func (s *Shared[T]) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Backend:       s.backend,
		Records:       s.db.Len(),
		ReferenceTime: FromSeconds(s.db.ReferenceTime()),
		HalfLife:      time.Duration(s.db.HalfLife() * float64(time.Second)),
	}, nil
}

// Close flushes the database one last time.
func (s *Shared[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(context.Background())
}
