package blobstore

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/alucardeht/poki-launcher/internal/frecency"
)

type entry struct {
	Name string `msgpack:"name"`
	Exec string `msgpack:"exec"`
}

func (e entry) SortString() string       { return e.Name }
func (e entry) IdentityFields() []string { return []string{e.Name, e.Exec} }

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "apps.db")

	firefox := entry{Name: "Firefox", Exec: "firefox"}
	db := frecency.New([]entry{firefox, {Name: "Files", Exec: "nautilus"}}, frecency.WithHalfLife(time.Hour))
	require.NoError(t, db.UpdateScore(frecency.Identify(firefox), 2.5))
	require.NoError(t, Save(ctx, path, db))

	loaded, err := Load[entry](ctx, path)
	require.NoError(t, err)
	assert.Equal(t, db.Records(), loaded.Records())
	assert.InDelta(t, db.ReferenceTime(), loaded.ReferenceTime(), 1e-9)
	assert.InDelta(t, 3600.0, loaded.HalfLife(), 1e-9)

	leftovers, err := filepath.Glob(path + ".tmp-*")
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load[entry](context.Background(), filepath.Join(t.TempDir(), "absent.db"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.db")
	require.NoError(t, os.WriteFile(path, []byte{0xc1, 0x00, 0xff}, 0o644))

	_, err := Load[entry](context.Background(), path)
	assert.ErrorIs(t, err, frecency.ErrCorrupt)
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.db")
	data, err := msgpack.Marshal(&fileFormat[entry]{Version: 99, ReferenceTime: 1, HalfLife: 1})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Load[entry](context.Background(), path)
	assert.ErrorIs(t, err, frecency.ErrCorrupt)
}

func TestLoadRejectsInvalidScores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.db")
	data, err := msgpack.Marshal(&fileFormat[entry]{
		Version:       formatVersion,
		ReferenceTime: 1,
		HalfLife:      60,
		Records:       []fileRecord[entry]{{Item: entry{Name: "a"}, Score: -3, ID: 7}},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Load[entry](context.Background(), path)
	assert.ErrorIs(t, err, frecency.ErrCorrupt)
}

func TestOpenCreatesAndPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "apps.db")

	store, err := Open[entry](ctx, path)
	require.NoError(t, err)

	vim := entry{Name: "Vim", Exec: "vim"}
	stats, err := store.Merge(ctx, []entry{vim, {Name: "Emacs", Exec: "emacs"}})
	require.NoError(t, err)
	assert.Equal(t, frecency.MergeStats{Added: 2}, stats)
	require.NoError(t, store.UpdateScore(ctx, frecency.Identify(vim), 1))
	require.NoError(t, store.Close())

	reopened, err := Open[entry](ctx, path)
	require.NoError(t, err)
	st, err := reopened.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Backend, st.Backend)
	assert.Equal(t, 2, st.Records)

	got, err := reopened.RankedList(ctx, "vi", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, vim, got[0].Item)
}

func TestOpenPropagatesCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.db")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	_, err := Open[entry](context.Background(), path)
	assert.ErrorIs(t, err, frecency.ErrCorrupt)
}
