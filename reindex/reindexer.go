package reindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/worldsignal/ai"
	"github.com/poiesic/worldsignal/chunk"
	"github.com/poiesic/worldsignal/core"
	"github.com/poiesic/worldsignal/storage"
)

// Config holds configuration for the reindexing operation.
type Config struct {
	// Collection is the vector collection to rebuild.
	Collection string

	// Dimension is the vector size of the rebuilt collection. It must match
	// the embedder.
	Dimension int

	// BatchSize is the number of articles read from the store per page.
	BatchSize int

	// ReportInterval is how often to report progress (number of articles).
	ReportInterval int

	// MaxRetries is the maximum number of attempts per embedding call.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Collection:     core.DefaultCollection,
		Dimension:      384,
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Collection == "" {
		return errors.New("reindex config: Collection is required")
	}
	if c.Dimension <= 0 {
		return errors.New("reindex config: Dimension must be positive")
	}
	if c.MaxRetries <= 0 {
		return ErrInvalidMaxAttempts
	}
	return nil
}

// Result summarizes a reindex run.
type Result struct {
	BatchResult
	Articles int
	Elapsed  time.Duration
}

// Reindexer rebuilds a vector collection from the article store.
type Reindexer struct {
	articles  storage.ArticleStore
	index     storage.VectorIndex
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ArticleIterator
	logger    *slog.Logger
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr); nil discards it
func NewReindexer(
	articles storage.ArticleStore,
	index storage.VectorIndex,
	embedder ai.Embedder,
	chunker *chunk.Chunker,
	config *Config,
	progress io.Writer,
) (*Reindexer, error) {
	if articles == nil {
		return nil, ErrArticleStoreRequired
	}
	if index == nil {
		return nil, ErrVectorIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if chunker == nil {
		return nil, ErrChunkerRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reindexer{
		articles:  articles,
		index:     index,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(index, embedder, chunker, config.Collection, config.MaxRetries, config.RetryDelay),
		iterator:  NewArticleIterator(articles, config.BatchSize),
		logger:    slog.Default().With("component", "reindex"),
	}, nil
}

// Run drops and recreates the collection, then indexes every stored article.
// Progress is reported to the configured writer.
func (r *Reindexer) Run(ctx context.Context) (*Result, error) {
	total, err := r.articles.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}

	if err := r.index.DeleteCollection(ctx, r.config.Collection); err != nil {
		return nil, fmt.Errorf("failed to drop collection: %w", err)
	}
	spec := storage.CollectionSpec{Name: r.config.Collection, Dimension: r.config.Dimension}
	if _, err := r.index.EnsureCollection(ctx, spec); err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	r.logger.Info("collection recreated", "collection", r.config.Collection, "dimension", r.config.Dimension)

	result := &Result{Articles: total}
	if total == 0 {
		fmt.Fprintf(r.progress, "No articles found in store (0 articles)\n")
		return result, nil
	}

	fmt.Fprintf(r.progress, "Starting reindex of %d articles (batch size: %d)\n",
		total, r.iterator.batchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.ForEach(ctx, func(articles []*core.Article) error {
		batch, err := r.processor.Process(ctx, articles)
		result.add(batch)
		tracker.Increment(len(articles))
		return err
	})
	result.Elapsed = tracker.Elapsed()
	if err != nil {
		return result, err
	}

	tracker.Finish()

	fmt.Fprintf(r.progress, "Reindex complete. %d indexed, %d empty, %d failed, %d chunks in %v\n",
		result.Indexed, result.Empty, result.Failed, result.Chunks, result.Elapsed.Round(time.Millisecond))
	r.logger.Info("reindex finished",
		"articles", total,
		"indexed", result.Indexed,
		"empty", result.Empty,
		"failed", result.Failed,
		"chunks", result.Chunks)

	return result, nil
}
