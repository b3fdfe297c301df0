package storage

import (
	"context"

	"github.com/poiesic/worldsignal/core"
)

// Distance metrics supported by vector collections.
const (
	MetricCosine = "cosine"
)

// CollectionSpec describes a vector collection.
type CollectionSpec struct {
	Name      string
	Dimension int
	Metric    string // Only MetricCosine is supported; empty means cosine

	// Force allows EnsureCollection to drop and recreate an existing
	// collection whose dimension differs. All vectors in it are lost.
	Force bool
}

// SearchQuery describes a nearest-neighbor search.
type SearchQuery struct {
	Vector []float32
	Limit  int

	// Category restricts hits to payloads with an equal category when non-empty.
	Category string

	// ScoreThreshold excludes hits scoring below it when non-nil.
	ScoreThreshold *float32
}

// VectorIndex stores chunk vectors with their payloads in named collections.
// Implementations must be thread-safe and support concurrent access.
type VectorIndex interface {
	// EnsureCollection creates the collection if it does not exist and reports
	// whether it did. An existing collection with a different dimension is a
	// *core.DimensionMismatchError unless spec.Force is set, in which case the
	// collection is recreated with a warning.
	EnsureCollection(ctx context.Context, spec CollectionSpec) (created bool, err error)

	// Upsert writes vectors and payloads in lockstep. Length disagreements are
	// a *core.LengthMismatchError and nothing is written. When ids is nil the
	// index generates random identifiers. Existing records with the same id
	// are overwritten. Returns the ids used, in input order.
	Upsert(ctx context.Context, collection string, vectors [][]float32, payloads []core.ChunkPayload, ids []string) ([]string, error)

	// Search returns at most query.Limit hits ordered by descending cosine similarity.
	Search(ctx context.Context, collection string, query SearchQuery) ([]core.SearchHit, error)

	// DeleteCollection irreversibly removes the collection and all its vectors.
	// Deleting a missing collection is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// Close releases the index's resources.
	Close() error
}

// ArticleStore persists article records and enforces URL uniqueness.
// Every method runs on its own short-lived session.
type ArticleStore interface {
	// Exists reports whether an article with url is stored.
	Exists(ctx context.Context, url string) (bool, error)

	// Insert stores the article and returns it with its assigned ID and
	// CreatedAt. A colliding URL returns core.ErrDuplicateArticle and changes
	// nothing; the store's unique constraint decides, not a prior Exists call.
	Insert(ctx context.Context, article *core.Article) (*core.Article, error)

	// Get retrieves an article by ID. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id int64) (*core.Article, error)

	// List returns up to limit articles with ID greater than afterID, in ID order.
	List(ctx context.Context, afterID int64, limit int) ([]*core.Article, error)

	// Count returns the number of stored articles.
	Count(ctx context.Context) (int, error)

	// Close closes the store.
	Close() error
}

// ChatHistory persists chat turns per session.
type ChatHistory interface {
	// AppendMessages stores messages in order, setting ID and CreatedAt.
	AppendMessages(ctx context.Context, messages ...*core.ChatMessage) error

	// Messages returns the most recent limit messages of a session, oldest first.
	Messages(ctx context.Context, sessionID string, limit int) ([]*core.ChatMessage, error)
}
