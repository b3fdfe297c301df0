package reindex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/worldsignal/ai/mock"
	"github.com/poiesic/worldsignal/chunk"
	"github.com/poiesic/worldsignal/core"
	"github.com/poiesic/worldsignal/storage"
	"github.com/poiesic/worldsignal/storage/badger"
	"github.com/poiesic/worldsignal/storage/sqlite"
)

const testDim = 8

type fixture struct {
	articles *sqlite.Store
	index    *badger.VectorIndex
	embedder *mock.MockEmbedder
	chunker  *chunk.Chunker
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	articles, err := sqlite.Open(filepath.Join(t.TempDir(), "news.db"))
	require.NoError(t, err)
	t.Cleanup(func() { articles.Close() })

	index, err := badger.NewMemoryVectorIndex()
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	chunker, err := chunk.New(chunk.WithSize(100), chunk.WithOverlap(10))
	require.NoError(t, err)

	return &fixture{
		articles: articles,
		index:    index,
		embedder: &mock.MockEmbedder{Dimension: testDim},
		chunker:  chunker,
	}
}

func (f *fixture) insert(t *testing.T, n int, content func(i int) string) {
	t.Helper()
	for i := range n {
		_, err := f.articles.Insert(context.Background(), &core.Article{
			Title:    fmt.Sprintf("Article %d", i),
			URL:      fmt.Sprintf("https://example.com/%d", i),
			Content:  content(i),
			Category: core.CategoryFinance,
		})
		require.NoError(t, err)
	}
}

func (f *fixture) count(t *testing.T) int {
	t.Helper()
	query := make([]float32, testDim)
	query[0] = 1
	hits, err := f.index.Search(context.Background(), core.DefaultCollection, storage.SearchQuery{Vector: query, Limit: 10000})
	require.NoError(t, err)
	return len(hits)
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Dimension = testDim
	cfg.BatchSize = 3
	cfg.RetryDelay = time.Millisecond
	return cfg
}

func TestNewReindexer_RequiresDependencies(t *testing.T) {
	f := setupFixture(t)

	_, err := NewReindexer(nil, f.index, f.embedder, f.chunker, nil, nil)
	assert.ErrorIs(t, err, ErrArticleStoreRequired)
	_, err = NewReindexer(f.articles, nil, f.embedder, f.chunker, nil, nil)
	assert.ErrorIs(t, err, ErrVectorIndexRequired)
	_, err = NewReindexer(f.articles, f.index, nil, f.chunker, nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
	_, err = NewReindexer(f.articles, f.index, f.embedder, nil, nil, nil)
	assert.ErrorIs(t, err, ErrChunkerRequired)

	cfg := testConfig()
	cfg.Dimension = 0
	_, err = NewReindexer(f.articles, f.index, f.embedder, f.chunker, cfg, nil)
	assert.Error(t, err)
}

func TestReindexer_Run(t *testing.T) {
	f := setupFixture(t)
	// 150 chars at 100/10 is two chunks
	f.insert(t, 7, func(i int) string { return strings.Repeat("x", 150) })
	_, err := f.articles.Insert(context.Background(), &core.Article{
		Title: "Empty", URL: "https://example.com/empty", Category: core.CategoryFinance,
	})
	require.NoError(t, err)

	var progress bytes.Buffer
	r, err := NewReindexer(f.articles, f.index, f.embedder, f.chunker, testConfig(), &progress)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8, result.Articles)
	assert.Equal(t, 7, result.Indexed)
	assert.Equal(t, 1, result.Empty)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 14, result.Chunks)
	assert.Equal(t, 14, f.count(t))

	output := progress.String()
	assert.Contains(t, output, "Starting reindex of 8 articles")
	assert.Contains(t, output, "8/8 articles")
	assert.Contains(t, output, "Reindex complete")

	t.Run("running again replaces the collection", func(t *testing.T) {
		_, err := r.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 14, f.count(t))
	})
}

func TestReindexer_ChangesDimension(t *testing.T) {
	f := setupFixture(t)
	_, err := f.index.EnsureCollection(context.Background(), storage.CollectionSpec{Name: core.DefaultCollection, Dimension: 3})
	require.NoError(t, err)
	f.insert(t, 2, func(i int) string { return "short text" })

	r, err := NewReindexer(f.articles, f.index, f.embedder, f.chunker, testConfig(), nil)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Indexed)
	assert.Equal(t, 2, f.count(t))
}

func TestReindexer_EmptyStore(t *testing.T) {
	f := setupFixture(t)

	var progress bytes.Buffer
	r, err := NewReindexer(f.articles, f.index, f.embedder, f.chunker, testConfig(), &progress)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Articles)
	assert.Contains(t, progress.String(), "No articles found")

	// The collection exists even when empty
	assert.Zero(t, f.count(t))
}

func TestReindexer_FailedArticlesAreSkipped(t *testing.T) {
	f := setupFixture(t)
	f.insert(t, 4, func(i int) string {
		if i == 2 {
			return "poison"
		}
		return "fine"
	})

	var calls int
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if texts[0] == "poison" {
			return nil, errors.New("backend rejected input")
		}
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = make([]float32, testDim)
			out[i][0] = 1
		}
		return out, nil
	}

	cfg := testConfig()
	cfg.MaxRetries = 2
	r, err := NewReindexer(f.articles, f.index, f.embedder, f.chunker, cfg, nil)
	require.NoError(t, err)

	result, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Indexed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 5, calls, "the failing article is attempted MaxRetries times")
}

func TestReindexer_WrongEmbedderDimensionAborts(t *testing.T) {
	f := setupFixture(t)
	f.insert(t, 3, func(i int) string { return "text" })
	f.embedder.Dimension = testDim * 2

	r, err := NewReindexer(f.articles, f.index, f.embedder, f.chunker, testConfig(), nil)
	require.NoError(t, err)

	_, err = r.Run(context.Background())
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestReindexer_Cancelled(t *testing.T) {
	f := setupFixture(t)
	f.insert(t, 5, func(i int) string { return "text" })

	ctx, cancel := context.WithCancel(context.Background())
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		cancel()
		return nil, ctx.Err()
	}

	r, err := NewReindexer(f.articles, f.index, f.embedder, f.chunker, testConfig(), nil)
	require.NoError(t, err)

	_, err = r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestArticleIterator_ForEach(t *testing.T) {
	f := setupFixture(t)
	f.insert(t, 7, func(i int) string { return "text" })

	var sizes []int
	var ids []int64
	it := NewArticleIterator(f.articles, 3)
	err := it.ForEach(context.Background(), func(page []*core.Article) error {
		sizes = append(sizes, len(page))
		for _, a := range page {
			ids = append(ids, a.ID)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, sizes)
	assert.Len(t, ids, 7)
	assert.IsIncreasing(t, ids)

	t.Run("stops on error", func(t *testing.T) {
		boom := errors.New("boom")
		pages := 0
		err := it.ForEach(context.Background(), func(page []*core.Article) error {
			pages++
			return boom
		})
		assert.Equal(t, boom, err)
		assert.Equal(t, 1, pages)
	})

	t.Run("default batch size", func(t *testing.T) {
		assert.Equal(t, DefaultBatchSize, NewArticleIterator(f.articles, 0).batchSize)
	})
}
