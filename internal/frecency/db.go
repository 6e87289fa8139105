package frecency

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"time"
)

// DB is the in-memory frecency database. It is not safe for concurrent use;
// wrap it in a Shared for that.
type DB[T Item] struct {
	records       []Record[T]
	index         map[ID]int
	referenceTime float64
	halfLife      float64
	now           func() time.Time
	match         Matcher
}

// MergeStats summarises a Merge.
type MergeStats struct {
	Kept    int `json:"kept"`
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// New creates a database holding items with zero scores. The reference time
// is the current time. Duplicate items collapse to the first occurrence.
func New[T Item](items []T, opts ...Option) *DB[T] {
	s := Configure(opts...)
	db := &DB[T]{
		referenceTime: Seconds(s.Now()),
		halfLife:      s.HalfLife.Seconds(),
		now:           s.Now,
		match:         s.Match,
	}
	db.records, db.index = collapse(items, nil)
	return db
}

// Restore rebuilds a database from persisted state. It reports ErrCorrupt
// when the state violates the database invariants.
func Restore[T Item](referenceTime, halfLife float64, records []Record[T], opts ...Option) (*DB[T], error) {
	if math.IsNaN(referenceTime) || math.IsInf(referenceTime, 0) {
		return nil, fmt.Errorf("%w: reference time %v", ErrCorrupt, referenceTime)
	}
	if !(halfLife > 0) || math.IsInf(halfLife, 0) {
		return nil, fmt.Errorf("%w: half life %v", ErrCorrupt, halfLife)
	}

	s := Configure(opts...)
	db := &DB[T]{
		records:       make([]Record[T], 0, len(records)),
		index:         make(map[ID]int, len(records)),
		referenceTime: referenceTime,
		halfLife:      halfLife,
		now:           s.Now,
		match:         s.Match,
	}
	for _, rec := range records {
		if !ValidWeight(rec.Score) {
			return nil, fmt.Errorf("%w: record %s has score %v", ErrCorrupt, rec.ID, rec.Score)
		}
		if _, dup := db.index[rec.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate record %s", ErrCorrupt, rec.ID)
		}
		db.index[rec.ID] = len(db.records)
		db.records = append(db.records, rec)
	}
	return db, nil
}

func collapse[T Item](items []T, scores map[ID]float64) ([]Record[T], map[ID]int) {
	records := make([]Record[T], 0, len(items))
	index := make(map[ID]int, len(items))
	for _, item := range items {
		id := Identify(item)
		if _, dup := index[id]; dup {
			continue
		}
		index[id] = len(records)
		records = append(records, Record[T]{ID: id, Item: item, Score: scores[id]})
	}
	return records, index
}

func (db *DB[T]) elapsed() float64 {
	return Seconds(db.now()) - db.referenceTime
}

// ReferenceTime is the instant raw scores are expressed against, in unix
// seconds.
func (db *DB[T]) ReferenceTime() float64 { return db.referenceTime }

// HalfLife in seconds.
func (db *DB[T]) HalfLife() float64 { return db.halfLife }

func (db *DB[T]) Len() int { return len(db.records) }

// Records returns a copy of the records in storage order.
func (db *DB[T]) Records() []Record[T] {
	return slices.Clone(db.records)
}

func (db *DB[T]) Get(id ID) (Record[T], bool) {
	i, ok := db.index[id]
	if !ok {
		return Record[T]{}, false
	}
	return db.records[i], true
}

// EffectiveScore is the decayed score of id at the current time.
func (db *DB[T]) EffectiveScore(id ID) (float64, bool) {
	rec, ok := db.Get(id)
	if !ok {
		return 0, false
	}
	return Effective(rec.Score, db.elapsed(), db.halfLife), true
}

// RankedList returns at most limit items matching search, best first. A
// limit of zero or less returns every match. Ties keep storage order.
func (db *DB[T]) RankedList(search string, limit int) []Container[T] {
	factor := Decay(db.elapsed(), db.halfLife)

	hits := make([]hit, 0, len(db.records))
	for i, rec := range db.records {
		relevance, ok := db.match(rec.Item.SortString(), search)
		if !ok || relevance <= 0 {
			continue
		}
		hits = append(hits, hit{index: i, key: rec.Score/factor + float64(relevance)})
	}
	slices.SortStableFunc(hits, byKeyDesc)
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]Container[T], len(hits))
	for i, h := range hits {
		rec := db.records[h.index]
		out[i] = Container[T]{ID: rec.ID, Item: rec.Item}
	}
	return out
}

// UpdateScore adds weight to the effective score of id.
func (db *DB[T]) UpdateScore(id ID, weight float64) error {
	i, ok := db.index[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	next, err := Bump(db.records[i].Score, weight, db.elapsed(), db.halfLife)
	if err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	db.records[i].Score = next
	return nil
}

// Merge reconciles the database with a fresh scan. Items still present keep
// their id and score and take the scanned payload; new items start at zero;
// items missing from the scan are dropped. Retained records keep their
// relative order and new ones follow in scan order.
func (db *DB[T]) Merge(items []T) MergeStats {
	scanned, scanIndex := collapse(items, nil)

	next := make([]Record[T], 0, len(scanned))
	nextIndex := make(map[ID]int, len(scanned))
	for _, old := range db.records {
		j, ok := scanIndex[old.ID]
		if !ok {
			continue
		}
		nextIndex[old.ID] = len(next)
		next = append(next, Record[T]{ID: old.ID, Item: scanned[j].Item, Score: old.Score})
	}
	kept := len(next)
	for _, rec := range scanned {
		if _, ok := nextIndex[rec.ID]; ok {
			continue
		}
		nextIndex[rec.ID] = len(next)
		next = append(next, rec)
	}

	stats := MergeStats{
		Kept:    kept,
		Added:   len(next) - kept,
		Removed: len(db.records) - kept,
	}
	db.records = next
	db.index = nextIndex
	return stats
}

// Rebaseline moves the reference time to now, rewriting raw scores so every
// effective score is unchanged. The reference time never moves backwards:
// if the clock reads at or before it, nothing changes.
func (db *DB[T]) Rebaseline() {
	now := Seconds(db.now())
	if now <= db.referenceTime {
		return
	}
	factor := Decay(now-db.referenceTime, db.halfLife)
	for i := range db.records {
		db.records[i].Score /= factor
	}
	db.referenceTime = now
}

type snapshot[T Item] struct {
	records       []Record[T]
	index         map[ID]int
	referenceTime float64
}

func (db *DB[T]) snapshot() snapshot[T] {
	return snapshot[T]{
		records:       slices.Clone(db.records),
		index:         maps.Clone(db.index),
		referenceTime: db.referenceTime,
	}
}

func (db *DB[T]) restore(snap snapshot[T]) {
	db.records = snap.records
	db.index = snap.index
	db.referenceTime = snap.referenceTime
}
