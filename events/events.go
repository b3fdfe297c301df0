package events

import (
	"context"
	"time"
)

// TypeArticleIngested is the event type of ArticleIngested.
const TypeArticleIngested = "article.ingested"

// ArticleIngested reports an article whose chunks were stored in the vector index.
type ArticleIngested struct {
	ArticleID   int64     `json:"article_id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Source      string    `json:"source"`
	Collection  string    `json:"collection"`
	PointIDs    []string  `json:"point_ids"`
	PublishedAt time.Time `json:"published_at"`
	IngestedAt  time.Time `json:"ingested_at"`
}

// Publisher delivers ingestion events.
type Publisher interface {
	PublishArticleIngested(ctx context.Context, event ArticleIngested) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

var _ Publisher = Noop{}

func (Noop) PublishArticleIngested(context.Context, ArticleIngested) error { return nil }
func (Noop) Close() error                                                  { return nil }
