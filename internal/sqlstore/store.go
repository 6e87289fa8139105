// Package sqlstore keeps a frecency database in SQLite. Ranking runs inside
// the database through the calc_score function, and a merge swaps in a
// rebuilt table in a single transaction.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"

	"github.com/alucardeht/poki-launcher/internal/frecency"
	"github.com/alucardeht/poki-launcher/internal/logger"
)

const Backend = "sqlite"

var log = logger.ForComponent("sqlstore")

// Store implements frecency.Store on SQLite. Items are stored as
// MessagePack blobs next to their sort text.
type Store[T frecency.Item] struct {
	db   *sql.DB
	mu   sync.Mutex
	path string

	referenceTime float64
	halfLife      float64
	now           func() time.Time
}

// Open opens or creates the database at path. The half life option only
// applies to a new database; an existing one keeps the value in its meta
// table.
func Open[T frecency.Item](ctx context.Context, path string, opts ...frecency.Option) (*Store[T], error) {
	if err := registerFunctions(); err != nil {
		return nil, fmt.Errorf("register sqlite functions: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: the merge's TEMP table lives on a single connection
	// and SQLite serialises writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	settings := frecency.Configure(opts...)
	s := &Store[T]{
		db:       db,
		path:     path,
		now:      settings.Now,
		halfLife: settings.HalfLife.Seconds(),
	}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	log.Info("opened database", "path", path, "half_life", s.halfLife)
	return s, nil
}

func (s *Store[T]) init(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := s.db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > SchemaVersion {
		return fmt.Errorf("%w: schema version %d is newer than %d", frecency.ErrCorrupt, version, SchemaVersion)
	}

	for _, stmt := range []string{createTable("main"), metaDef} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}

	return s.loadMeta(ctx)
}

func (s *Store[T]) readMeta(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	defer rows.Close()

	found := map[string]float64{}
	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("read meta: %w", err)
		}
		found[key] = value
	}
	return found, rows.Err()
}

func (s *Store[T]) loadMeta(ctx context.Context) error {
	found, err := s.readMeta(ctx)
	if err != nil {
		return err
	}

	if ref, ok := found[metaReferenceTime]; ok {
		s.referenceTime = ref
	} else {
		s.referenceTime = frecency.Seconds(s.now())
	}
	if hl, ok := found[metaHalfLife]; ok {
		if !(hl > 0) {
			return fmt.Errorf("%w: half life %v", frecency.ErrCorrupt, hl)
		}
		s.halfLife = hl
	}

	return writeMeta(ctx, s.db, s.referenceTime, s.halfLife)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func writeMeta(ctx context.Context, e execer, referenceTime, halfLife float64) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?), (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaReferenceTime, referenceTime, metaHalfLife, halfLife)
	if err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}

func (s *Store[T]) decay() float64 {
	return frecency.Decay(frecency.Seconds(s.now())-s.referenceTime, s.halfLife)
}

func (s *Store[T]) decode(id int64, data []byte) (frecency.Container[T], error) {
	var item T
	if err := msgpack.Unmarshal(data, &item); err != nil {
		return frecency.Container[T]{}, fmt.Errorf("record %s: %w: %w", frecency.ID(uint64(id)), frecency.ErrCorrupt, err)
	}
	return frecency.Container[T]{ID: frecency.ID(uint64(id)), Item: item}, nil
}

// RankedList ranks inside SQLite. Ties on score fall back to sort text.
func (s *Store[T]) RankedList(ctx context.Context, search string, limit int) ([]frecency.Container[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data, calc_score(score / ?, sort_text, ?) AS sort_score
		FROM main
		WHERE sort_score > 0
		ORDER BY sort_score DESC, sort_text ASC
		LIMIT ?
	`, s.decay(), search, limit)
	if err != nil {
		return nil, fmt.Errorf("ranked list: %w", err)
	}
	defer rows.Close()

	var out []frecency.Container[T]
	for rows.Next() {
		var id int64
		var data []byte
		var sortScore float64
		if err := rows.Scan(&id, &data, &sortScore); err != nil {
			return nil, fmt.Errorf("ranked list: %w", err)
		}
		c, err := s.decode(id, data)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ranked list: %w", err)
	}
	return out, nil
}

func (s *Store[T]) Get(ctx context.Context, id frecency.ID) (frecency.Container[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM main WHERE id = ?", int64(id)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return frecency.Container[T]{}, fmt.Errorf("get %s: %w", id, frecency.ErrNotFound)
	}
	if err != nil {
		return frecency.Container[T]{}, fmt.Errorf("get %s: %w", id, err)
	}
	return s.decode(int64(id), data)
}

func (s *Store[T]) UpdateScore(ctx context.Context, id frecency.ID, weight float64) error {
	if !frecency.ValidWeight(weight) {
		return fmt.Errorf("update %s: %w", id, frecency.ErrInvalidWeight)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	defer tx.Rollback()

	var raw float64
	err = tx.QueryRowContext(ctx, "SELECT score FROM main WHERE id = ?", int64(id)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update %s: %w", id, frecency.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}

	next, err := frecency.Bump(raw, weight, frecency.Seconds(s.now())-s.referenceTime, s.halfLife)
	if err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE main SET score = ? WHERE id = ?", next, int64(id)); err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	return tx.Commit()
}

// Merge loads the scan into a TEMP table, joins it against main to carry
// scores over, and swaps the result in as the new main table.
func (s *Store[T]) Merge(ctx context.Context, items []T) (frecency.MergeStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats frecency.MergeStats
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("merge: %w", err)
	}
	defer tx.Rollback()

	steps := []string{
		scanDef,
		"DELETE FROM temp.scan",
		"DROP TABLE IF EXISTS main_next",
		createTable("main_next"),
	}
	for _, stmt := range steps {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return stats, fmt.Errorf("merge: prepare: %w", err)
		}
	}

	insert, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO temp.scan (id, sort_text, data) VALUES (?, ?, ?)")
	if err != nil {
		return stats, fmt.Errorf("merge: %w", err)
	}
	defer insert.Close()
	for _, item := range items {
		data, err := msgpack.Marshal(item)
		if err != nil {
			return stats, fmt.Errorf("merge: encode %q: %w", item.SortString(), err)
		}
		id := frecency.Identify(item)
		if _, err := insert.ExecContext(ctx, int64(id), item.SortString(), data); err != nil {
			return stats, fmt.Errorf("merge: insert %s: %w", id, err)
		}
	}
	insert.Close()

	var before, scanned int
	counts := tx.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM main),
			(SELECT COUNT(*) FROM temp.scan),
			(SELECT COUNT(*) FROM temp.scan AS scan JOIN main ON scan.id = main.id)
	`)
	if err := counts.Scan(&before, &scanned, &stats.Kept); err != nil {
		return stats, fmt.Errorf("merge: count: %w", err)
	}
	stats.Added = scanned - stats.Kept
	stats.Removed = before - stats.Kept

	swap := []string{
		`INSERT INTO main_next (id, score, sort_text, data)
		 SELECT scan.id, COALESCE(main.score, 0.0), scan.sort_text, scan.data
		 FROM temp.scan AS scan LEFT OUTER JOIN main ON scan.id = main.id`,
		"DROP TABLE main",
		"ALTER TABLE main_next RENAME TO main",
		"DROP TABLE temp.scan",
	}
	for _, stmt := range swap {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return stats, fmt.Errorf("merge: swap: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("merge: commit: %w", err)
	}
	log.Debug("merged scan", "path", s.path, "kept", stats.Kept, "added", stats.Added, "removed", stats.Removed)
	return stats, nil
}

// Rebaseline moves the reference time to now in one UPDATE.
func (s *Store[T]) Rebaseline(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := frecency.Seconds(s.now())
	if now <= s.referenceTime {
		return nil
	}
	factor := frecency.Decay(now-s.referenceTime, s.halfLife)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rebaseline: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE main SET score = score / ?", factor); err != nil {
		return fmt.Errorf("rebaseline: %w", err)
	}
	if err := writeMeta(ctx, tx, now, s.halfLife); err != nil {
		return fmt.Errorf("rebaseline: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rebaseline: %w", err)
	}
	s.referenceTime = now
	return nil
}

func (s *Store[T]) Stats(ctx context.Context) (frecency.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM main").Scan(&n); err != nil {
		return frecency.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return frecency.Stats{
		Backend:       Backend,
		Records:       n,
		ReferenceTime: frecency.FromSeconds(s.referenceTime),
		HalfLife:      time.Duration(s.halfLife * float64(time.Second)),
	}, nil
}

func (s *Store[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		log.Warn("wal checkpoint failed", "path", s.path, "error", err)
	}
	return s.db.Close()
}
