package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/worldsignal/ai"
	"github.com/poiesic/worldsignal/core"
	"github.com/poiesic/worldsignal/storage"
)

const (
	// DefaultTopK is how many chunks a retrieval returns at most.
	DefaultTopK = 5

	// DefaultMinScore is the similarity floor below which hits are discarded.
	DefaultMinScore float32 = 0.3
)

// Searcher finds the chunks nearest to a query in one vector collection.
type Searcher struct {
	index      storage.VectorIndex
	embedder   ai.Embedder
	collection string
	topK       int
	minScore   float32
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithTopK sets the maximum number of hits. Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(s *Searcher) error {
		if k <= 0 {
			return fmt.Errorf("top-k must be positive, got %d", k)
		}
		s.topK = k
		return nil
	}
}

// WithMinScore sets the similarity floor. Default is DefaultMinScore.
func WithMinScore(score float32) Option {
	return func(s *Searcher) error {
		if score < -1 || score > 1 {
			return fmt.Errorf("minimum score must be within [-1, 1], got %v", score)
		}
		s.minScore = score
		return nil
	}
}

// WithCollection sets the vector collection. Default is core.DefaultCollection.
func WithCollection(name string) Option {
	return func(s *Searcher) error {
		if name == "" {
			return errors.New("collection name must not be empty")
		}
		s.collection = name
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(index storage.VectorIndex, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if index == nil {
		return nil, ErrVectorIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		index:      index,
		embedder:   embedder,
		collection: core.DefaultCollection,
		topK:       DefaultTopK,
		minScore:   DefaultMinScore,
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "search")

	return s, nil
}

// TopK returns the maximum number of hits per retrieval.
func (s *Searcher) TopK() int { return s.topK }

// MinScore returns the similarity floor.
func (s *Searcher) MinScore() float32 { return s.minScore }

// Retrieve returns up to TopK chunks similar to query, best first. An empty
// category searches every category. No hits is not an error.
func (s *Searcher) Retrieve(ctx context.Context, query, category string) ([]core.SearchHit, error) {
	return s.RetrieveWithMonitor(ctx, query, category, nil)
}

// RetrieveWithMonitor is Retrieve with callbacks at each stage.
func (s *Searcher) RetrieveWithMonitor(ctx context.Context, query, category string, monitor RetrievalMonitor) ([]core.SearchHit, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	monitor.Start(query, category)

	vectors, err := s.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1, received %d", ai.ErrEmbeddingCount, len(vectors))
	}
	monitor.AfterEmbedding(vectors[0])

	floor := s.minScore
	hits, err := s.index.Search(ctx, s.collection, storage.SearchQuery{
		Vector:         vectors[0],
		Limit:          s.topK,
		Category:       category,
		ScoreThreshold: &floor,
	})
	if err != nil {
		s.logger.Error("error querying for similar chunks", "collection", s.collection, "err", err)
		return nil, err
	}
	monitor.AfterSearch(hits)

	// Floor, filter and order hold whatever the backend returned.
	hits = slices.DeleteFunc(hits, func(h core.SearchHit) bool {
		return h.Score < floor || (category != "" && h.Payload.Category != category)
	})
	slices.SortStableFunc(hits, func(a, b core.SearchHit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(hits) > s.topK {
		hits = hits[:s.topK]
	}

	s.logger.Debug("retrieved chunks", "category", category, "hits", len(hits))
	monitor.Finish(hits)
	return hits, nil
}
