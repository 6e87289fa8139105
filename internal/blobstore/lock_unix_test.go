//go:build unix

package blobstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alucardeht/poki-launcher/internal/frecency"
)

func TestSharedLocksCoexist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.db")
	ctx := context.Background()

	a, err := acquire(ctx, path, false)
	require.NoError(t, err)
	defer a.release()

	b, err := acquire(ctx, path, false)
	require.NoError(t, err)
	b.release()
}

func TestSaveTimesOutWhileLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.db")

	held, err := acquire(context.Background(), path, false)
	require.NoError(t, err)
	defer held.release()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err = Save(ctx, path, frecency.New[entry](nil))
	assert.ErrorIs(t, err, frecency.ErrLocked)
}

func TestLockReleasedAfterSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.db")
	ctx := context.Background()

	require.NoError(t, Save(ctx, path, frecency.New[entry](nil)))

	lock, err := acquire(ctx, path, true)
	require.NoError(t, err)
	lock.release()
}
