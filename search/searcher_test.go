package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/worldsignal/ai/mock"
	"github.com/poiesic/worldsignal/core"
	"github.com/poiesic/worldsignal/storage"
	"github.com/poiesic/worldsignal/storage/badger"
)

type chunkFixture struct {
	url      string
	category string
	vector   []float32
}

func setupIndex(t *testing.T, chunks ...chunkFixture) *badger.VectorIndex {
	t.Helper()
	index, err := badger.NewMemoryVectorIndex()
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	ctx := context.Background()
	_, err = index.EnsureCollection(ctx, storage.CollectionSpec{Name: core.DefaultCollection, Dimension: 3})
	require.NoError(t, err)

	if len(chunks) == 0 {
		return index
	}
	vectors := make([][]float32, len(chunks))
	payloads := make([]core.ChunkPayload, len(chunks))
	for i, c := range chunks {
		vectors[i] = c.vector
		payloads[i] = core.ChunkPayload{
			ArticleID: int64(i + 1),
			Category:  c.category,
			Chunk:     "chunk from " + c.url,
			Title:     c.url,
			URL:       c.url,
		}
	}
	_, err = index.Upsert(ctx, core.DefaultCollection, vectors, payloads, nil)
	require.NoError(t, err)
	return index
}

// queryEmbedder always embeds to the x axis.
func queryEmbedder() *mock.MockEmbedder {
	return &mock.MockEmbedder{
		Dimension: 3,
		EmbedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i := range texts {
				out[i] = []float32{1, 0, 0}
			}
			return out, nil
		},
	}
}

func urls(hits []core.SearchHit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Payload.URL
	}
	return out
}

func TestNewSearcher(t *testing.T) {
	index := setupIndex(t)
	embedder := mock.NewMockEmbedder()

	t.Run("valid configuration", func(t *testing.T) {
		searcher, err := NewSearcher(index, embedder)
		require.NoError(t, err)
		assert.Equal(t, DefaultTopK, searcher.TopK())
		assert.Equal(t, DefaultMinScore, searcher.MinScore())
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		searcher, err := NewSearcher(index, embedder, WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("custom limits", func(t *testing.T) {
		searcher, err := NewSearcher(index, embedder, WithTopK(2), WithMinScore(0.5), WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.Equal(t, 2, searcher.TopK())
		assert.Equal(t, float32(0.5), searcher.MinScore())
	})

	t.Run("invalid options", func(t *testing.T) {
		_, err := NewSearcher(index, embedder, WithTopK(0))
		assert.Error(t, err)
		_, err = NewSearcher(index, embedder, WithMinScore(1.5))
		assert.Error(t, err)
		_, err = NewSearcher(index, embedder, WithCollection(""))
		assert.Error(t, err)
	})

	t.Run("nil index", func(t *testing.T) {
		_, err := NewSearcher(nil, embedder)
		assert.Equal(t, ErrVectorIndexRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewSearcher(index, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})
}

func TestRetrieve_EmptyCollection(t *testing.T) {
	searcher, err := NewSearcher(setupIndex(t), queryEmbedder())
	require.NoError(t, err)

	hits, err := searcher.Retrieve(context.Background(), "anything", "")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRetrieve_CategoryFilterAndFloor(t *testing.T) {
	index := setupIndex(t,
		chunkFixture{"https://example.com/f-exact", core.CategoryFinance, []float32{1, 0, 0}},
		chunkFixture{"https://example.com/g-close", core.CategoryGeopolitics, []float32{0.9, 0.1, 0}},
		chunkFixture{"https://example.com/f-close", core.CategoryFinance, []float32{0.8, 0.6, 0}},
		chunkFixture{"https://example.com/f-far", core.CategoryFinance, []float32{0.1, 0.995, 0}},
	)
	searcher, err := NewSearcher(index, queryEmbedder())
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("finance only", func(t *testing.T) {
		hits, err := searcher.Retrieve(ctx, "markets", core.CategoryFinance)
		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/f-exact", "https://example.com/f-close"}, urls(hits))
		for _, h := range hits {
			assert.Equal(t, core.CategoryFinance, h.Payload.Category)
			assert.GreaterOrEqual(t, h.Score, DefaultMinScore)
		}
		assert.Greater(t, hits[0].Score, hits[1].Score)
	})

	t.Run("all categories", func(t *testing.T) {
		hits, err := searcher.Retrieve(ctx, "markets", "")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://example.com/f-exact",
			"https://example.com/g-close",
			"https://example.com/f-close",
		}, urls(hits))
	})

	t.Run("unknown category", func(t *testing.T) {
		hits, err := searcher.Retrieve(ctx, "markets", "sports")
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}

func TestRetrieve_TopK(t *testing.T) {
	chunks := make([]chunkFixture, 8)
	for i := range chunks {
		chunks[i] = chunkFixture{
			url:      fmt.Sprintf("https://example.com/%d", i),
			category: core.CategoryFinance,
			vector:   []float32{1, float32(i) * 0.1, 0},
		}
	}
	searcher, err := NewSearcher(setupIndex(t, chunks...), queryEmbedder())
	require.NoError(t, err)

	hits, err := searcher.Retrieve(context.Background(), "markets", core.CategoryFinance)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.com/0",
		"https://example.com/1",
		"https://example.com/2",
		"https://example.com/3",
		"https://example.com/4",
	}, urls(hits))
}

func TestRetrieve_EmbedsQueryAsSingleBatch(t *testing.T) {
	var batches [][]string
	embedder := &mock.MockEmbedder{
		EmbedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			batches = append(batches, texts)
			return [][]float32{{1, 0, 0}}, nil
		},
	}
	searcher, err := NewSearcher(setupIndex(t), embedder)
	require.NoError(t, err)

	_, err = searcher.Retrieve(context.Background(), "market rally today", "")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"market rally today"}}, batches)
}

func TestRetrieve_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty query", func(t *testing.T) {
		searcher, err := NewSearcher(setupIndex(t), queryEmbedder())
		require.NoError(t, err)
		_, err = searcher.Retrieve(ctx, "   ", "")
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("embedding failure", func(t *testing.T) {
		embedder := &mock.MockEmbedder{
			EmbedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
				return nil, errors.New("backend down")
			},
		}
		searcher, err := NewSearcher(setupIndex(t), embedder)
		require.NoError(t, err)
		_, err = searcher.Retrieve(ctx, "query", "")
		assert.Error(t, err)
	})

	t.Run("missing collection", func(t *testing.T) {
		searcher, err := NewSearcher(setupIndex(t), queryEmbedder(), WithCollection("missing"))
		require.NoError(t, err)
		_, err = searcher.Retrieve(ctx, "query", "")
		assert.ErrorIs(t, err, storage.ErrCollectionNotFound)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		embedder := &mock.MockEmbedder{Dimension: 5}
		searcher, err := NewSearcher(setupIndex(t), embedder)
		require.NoError(t, err)
		_, err = searcher.Retrieve(ctx, "query", "")
		assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	})
}

// recordingMonitor records the stages it observes.
type recordingMonitor struct {
	stages []string
	hits   int
}

func (m *recordingMonitor) Start(query, category string) {
	m.stages = append(m.stages, "start:"+query+":"+category)
}
func (m *recordingMonitor) AfterEmbedding(vector []float32) {
	m.stages = append(m.stages, fmt.Sprintf("embedding:%d", len(vector)))
}
func (m *recordingMonitor) AfterSearch(hits []core.SearchHit) {
	m.stages = append(m.stages, "search")
}
func (m *recordingMonitor) Finish(hits []core.SearchHit) {
	m.stages = append(m.stages, "finish")
	m.hits = len(hits)
}

func TestRetrieveWithMonitor(t *testing.T) {
	index := setupIndex(t,
		chunkFixture{"https://example.com/a", core.CategoryFinance, []float32{1, 0, 0}},
	)
	searcher, err := NewSearcher(index, queryEmbedder())
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	hits, err := searcher.RetrieveWithMonitor(context.Background(), "rates", core.CategoryFinance, monitor)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	assert.Equal(t, []string{"start:rates:finance", "embedding:3", "search", "finish"}, monitor.stages)
	assert.Equal(t, 1, monitor.hits)
}
