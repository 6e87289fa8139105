// Package blobstore persists a frecency database as a single MessagePack
// file. The whole database is rewritten on every save, which is fine for the
// few thousand entries a launcher holds.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/alucardeht/poki-launcher/internal/frecency"
	"github.com/alucardeht/poki-launcher/internal/logger"
)

const (
	Backend       = "blob"
	formatVersion = 1
)

var log = logger.ForComponent("blobstore")

// fileRecord is encoded as a (payload, score, id) tuple.
type fileRecord[T frecency.Item] struct {
	_msgpack struct{} `msgpack:",as_array"`
	Item     T
	Score    float64
	ID       uint64
}

type fileFormat[T frecency.Item] struct {
	Version       int             `msgpack:"version"`
	ReferenceTime float64         `msgpack:"reference_time"`
	HalfLife      float32         `msgpack:"half_life"`
	Records       []fileRecord[T] `msgpack:"records"`
}

// Load reads the database at path. A missing file is reported with an
// error wrapping fs.ErrNotExist; undecodable content wraps
// frecency.ErrCorrupt.
func Load[T frecency.Item](ctx context.Context, path string, opts ...frecency.Option) (*frecency.DB[T], error) {
	lock, err := acquire(ctx, path, false)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	var ff fileFormat[T]
	if err := msgpack.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("load %s: %w: %w", path, frecency.ErrCorrupt, err)
	}
	if ff.Version != formatVersion {
		return nil, fmt.Errorf("load %s: %w: unsupported format version %d", path, frecency.ErrCorrupt, ff.Version)
	}

	records := make([]frecency.Record[T], len(ff.Records))
	for i, r := range ff.Records {
		records[i] = frecency.Record[T]{ID: frecency.ID(r.ID), Item: r.Item, Score: r.Score}
	}
	db, err := frecency.Restore(ff.ReferenceTime, float64(ff.HalfLife), records, opts...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return db, nil
}

// Save writes db to path atomically: the blob goes to a temporary file in
// the same directory which is synced and renamed over path.
func Save[T frecency.Item](ctx context.Context, path string, db *frecency.DB[T]) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	recs := db.Records()
	ff := fileFormat[T]{
		Version:       formatVersion,
		ReferenceTime: db.ReferenceTime(),
		HalfLife:      float32(db.HalfLife()),
		Records:       make([]fileRecord[T], len(recs)),
	}
	for i, r := range recs {
		ff.Records[i] = fileRecord[T]{Item: r.Item, Score: r.Score, ID: uint64(r.ID)}
	}
	data, err := msgpack.Marshal(&ff)
	if err != nil {
		return fmt.Errorf("save %s: encode: %w", path, err)
	}

	lock, err := acquire(ctx, path, true)
	if err != nil {
		return err
	}
	defer lock.release()

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("save %s: write: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("save %s: sync: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("save %s: close: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("save %s: rename: %w", path, err)
	}

	log.Debug("saved database", "path", path, "records", len(recs), "bytes", len(data))
	return nil
}

// Open loads the database at path, or starts an empty one when the file
// does not exist yet, and returns it wrapped so every mutation is saved
// back to path.
func Open[T frecency.Item](ctx context.Context, path string, opts ...frecency.Option) (*frecency.Shared[T], error) {
	db, err := Load[T](ctx, path, opts...)
	switch {
	case err == nil:
		log.Info("loaded database", "path", path, "records", db.Len())
	case errors.Is(err, fs.ErrNotExist):
		log.Info("creating database", "path", path)
		db = frecency.New[T](nil, opts...)
	default:
		return nil, err
	}

	save := func(ctx context.Context, db *frecency.DB[T]) error {
		return Save(ctx, path, db)
	}
	return frecency.NewShared(Backend, db, save), nil
}
