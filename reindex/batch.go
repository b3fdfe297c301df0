package reindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/worldsignal/ai"
	"github.com/poiesic/worldsignal/chunk"
	"github.com/poiesic/worldsignal/core"
	"github.com/poiesic/worldsignal/storage"
)

// BatchResult counts what happened to one batch of articles.
type BatchResult struct {
	Indexed int
	Empty   int
	Failed  int
	Chunks  int
}

func (r *BatchResult) add(o BatchResult) {
	r.Indexed += o.Indexed
	r.Empty += o.Empty
	r.Failed += o.Failed
	r.Chunks += o.Chunks
}

// BatchProcessor chunks, embeds and upserts batches of stored articles.
type BatchProcessor struct {
	index          storage.VectorIndex
	embedder       ai.Embedder
	chunker        *chunk.Chunker
	collection     string
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for each embedding call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(index storage.VectorIndex, embedder ai.Embedder, chunker *chunk.Chunker, collection string, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		index:          index,
		embedder:       embedder,
		chunker:        chunker,
		collection:     collection,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		logger:         slog.Default().With("component", "reindex"),
	}
}

// Process indexes each article of the batch independently. A failed article
// is counted and skipped; the returned error is reserved for cancellation and
// failures every further article would hit too.
func (bp *BatchProcessor) Process(ctx context.Context, articles []*core.Article) (BatchResult, error) {
	var res BatchResult
	for _, article := range articles {
		chunks, err := bp.processArticle(ctx, article)
		switch {
		case err == nil && chunks == 0:
			res.Empty++
		case err == nil:
			res.Indexed++
			res.Chunks += chunks
		case ctx.Err() != nil:
			return res, ctx.Err()
		case errors.Is(err, core.ErrDimensionMismatch), errors.Is(err, storage.ErrCollectionNotFound):
			return res, err
		default:
			res.Failed++
			bp.logger.Warn("skipping article", "article_id", article.ID, "url", article.URL, "err", err)
		}
	}
	return res, nil
}

func (bp *BatchProcessor) processArticle(ctx context.Context, article *core.Article) (int, error) {
	texts := bp.chunker.Split(article.Content)
	if len(texts) == 0 {
		return 0, nil
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, bp.maxRetries, bp.retryBaseDelay, func(ctx context.Context) error {
		var err error
		vectors, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("%w: expected %d, received %d", ai.ErrEmbeddingCount, len(texts), len(vectors))
	}

	payloads := make([]core.ChunkPayload, len(texts))
	for i, text := range texts {
		payloads[i] = core.NewChunkPayload(article, text)
	}

	ids, err := bp.index.Upsert(ctx, bp.collection, vectors, payloads, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert chunks: %w", err)
	}
	return len(ids), nil
}
