package reindex

import (
	"context"

	"github.com/poiesic/worldsignal/core"
	"github.com/poiesic/worldsignal/storage"
)

// DefaultBatchSize is the default number of articles fetched per page.
const DefaultBatchSize = 100

// ArticleIterator pages through every stored article in ID order.
type ArticleIterator struct {
	articles  storage.ArticleStore
	batchSize int
}

// NewArticleIterator creates a new article iterator.
// batchSize: number of articles to fetch per page; non-positive means DefaultBatchSize
func NewArticleIterator(articles storage.ArticleStore, batchSize int) *ArticleIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ArticleIterator{
		articles:  articles,
		batchSize: batchSize,
	}
}

// ForEach calls fn with successive pages of articles.
// Iteration stops on the first error from fn, a failed page read, or context
// cancellation, which is checked between pages. Articles inserted during the
// iteration with a higher ID than the current page are visited too.
func (it *ArticleIterator) ForEach(ctx context.Context, fn func([]*core.Article) error) error {
	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := it.articles.List(ctx, afterID, it.batchSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}

		if err := fn(page); err != nil {
			return err
		}

		afterID = page[len(page)-1].ID
		if len(page) < it.batchSize {
			return nil
		}
	}
}
