package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/postsearch"
	"github.com/letmevibethatforyou/postsearch/algolia"
	"github.com/letmevibethatforyou/postsearch/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMemoryWithDataFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id":"1","title":"Caring for cats","post_type":"post","status":"published"},
		{"id":"2","title":"Training dogs","post_type":"post","status":"published"}
	]`), 0600))

	searcher, err := Open(context.Background(), Options{Kind: Memory, DataFile: path})
	require.NoError(t, err)
	store, ok := searcher.(*inmemory.Searcher)
	require.True(t, ok)
	assert.Equal(t, 2, store.Size())

	results, err := searcher.Search(context.Background(), "cats")
	require.NoError(t, err)
	assert.Equal(t, int64(1), results.Total)
}

func TestOpenMemoryWithoutDataFile(t *testing.T) {
	searcher, err := Open(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, searcher.(*inmemory.Searcher).Size())
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"unknown kind", Options{Kind: "solr"}},
		{"missing data file", Options{Kind: Memory, DataFile: filepath.Join(t.TempDir(), "missing.json")}},
		{"algolia without index", Options{Kind: Algolia}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.opts)
			assert.Error(t, err)
		})
	}

	_, err := Open(context.Background(), Options{Kind: "solr"})
	assert.True(t, errors.Is(err, postsearch.ErrInvalidOption))
}

func TestOpenAlgoliaIsLazy(t *testing.T) {
	t.Setenv("ALGOLIA_APP_ID", "")
	t.Setenv("ALGOLIA_API_KEY", "")

	searcher, err := Open(context.Background(), Options{Kind: Algolia, AlgoliaIndex: "posts"})
	require.NoError(t, err)
	_, ok := searcher.(*algolia.Searcher)
	assert.True(t, ok)
}
