package launcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alucardeht/poki-launcher/internal/frecency"
)

type word string

func (w word) SortString() string       { return string(w) }
func (w word) IdentityFields() []string { return []string{string(w)} }

func newWordCatalog(prefix string, words ...word) (*Catalog[word], *frecency.Shared[word]) {
	store := frecency.NewShared[word]("memory", frecency.New(words), nil)
	return NewCatalog(CatalogConfig[word]{
		Name:   "words",
		Store:  store,
		Prefix: prefix,
		Scan: func(context.Context) ([]word, []error) {
			return words, nil
		},
		Open: func(context.Context, word) error { return nil },
	}), store
}

func TestCatalogMatches(t *testing.T) {
	all, _ := newWordCatalog("")
	q, ok := all.Matches("anything")
	assert.True(t, ok)
	assert.Equal(t, "anything", q)

	prefixed, _ := newWordCatalog(":")
	q, ok = prefixed.Matches(": notes")
	assert.True(t, ok)
	assert.Equal(t, "notes", q)

	_, ok = prefixed.Matches("notes")
	assert.False(t, ok)
}

func TestCatalogSearchDefaultsToSortString(t *testing.T) {
	c, _ := newWordCatalog("", "apple", "banana")
	got, err := c.Search(context.Background(), "app", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Entry{Plugin: "words", ID: frecency.Identify(word("apple")), Name: "apple"}, got[0])
}

func TestCatalogRebaselinesStaleStore(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	clock := func() time.Time { return now }

	store := frecency.NewShared[word]("memory", frecency.New([]word{"a"}, frecency.WithClock(clock)), nil)
	c := NewCatalog(CatalogConfig[word]{
		Name:            "words",
		Store:           store,
		Scan:            func(context.Context) ([]word, []error) { return []word{"a"}, nil },
		Open:            func(context.Context, word) error { return nil },
		RebaselineAfter: 24 * time.Hour,
		Now:             clock,
	})

	now = start.Add(48 * time.Hour)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()

	st, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, st.ReferenceTime.Equal(now))
}

func TestLauncherDispatchOrder(t *testing.T) {
	files, _ := newWordCatalog(":", "notes")
	everything, _ := newWordCatalog("", "notepad")
	l := NewWithPlugins(5, files, everything)

	got, err := l.Search(context.Background(), ":not", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "notes", got[0].Name)

	got, err = l.Search(context.Background(), "not", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "notepad", got[0].Name)
}

func TestLauncherReloadUnknownPlugin(t *testing.T) {
	c, _ := newWordCatalog("")
	l := NewWithPlugins(5, c)
	assert.ErrorIs(t, l.Reload("music"), ErrUnknownPlugin)
	assert.NoError(t, l.Reload())
}
