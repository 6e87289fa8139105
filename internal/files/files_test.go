package files

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "docs", "report.pdf"))
	touch(t, filepath.Join(root, ".git", "HEAD"))
	touch(t, filepath.Join(root, ".hidden"))
	touch(t, filepath.Join(root, "node_modules", "pkg", "index.js"))

	got, errs := Walk(context.Background(), []string{root}, []string{"**/node_modules"})
	assert.Empty(t, errs)

	var paths []string
	for _, f := range got {
		rel, err := filepath.Rel(root, f.Path)
		require.NoError(t, err)
		paths = append(paths, rel)
	}
	sort.Strings(paths)
	assert.Equal(t, []string{"docs", filepath.Join("docs", "report.pdf"), "notes.txt"}, paths)
}

func TestWalkMissingRoot(t *testing.T) {
	got, errs := Walk(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}, nil)
	assert.Empty(t, got)
	assert.Len(t, errs, 1)
}

func TestWalkCancelled(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, errs := Walk(ctx, []string{root}, nil)
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[len(errs)-1], context.Canceled)
}

func TestFileItem(t *testing.T) {
	f := File{Name: "report.pdf", Path: "/home/u/docs/report.pdf"}
	assert.Equal(t, "report.pdf", f.SortString())
	assert.Equal(t, []string{"/home/u/docs/report.pdf"}, f.IdentityFields())
	assert.Equal(t, []string{"xdg-open", "/home/u/docs/report.pdf"}, f.Command())
}
