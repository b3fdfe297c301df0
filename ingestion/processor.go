// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/worldsignal/ai"
	"github.com/poiesic/worldsignal/chunk"
	"github.com/poiesic/worldsignal/core"
	"github.com/poiesic/worldsignal/events"
	"github.com/poiesic/worldsignal/storage"
)

// outcome is what happened to one candidate.
type outcome int

const (
	outcomeIndexed outcome = iota
	outcomeDuplicate
	outcomeEmpty
	outcomeInvalid
)

// articleProcessor runs one candidate through dedup, store, chunk, embed and upsert.
type articleProcessor struct {
	articles   storage.ArticleStore
	index      storage.VectorIndex
	embedder   ai.Embedder
	chunker    *chunk.Chunker
	publisher  events.Publisher
	collection string
	now        func() time.Time
	logger     *slog.Logger
}

// result describes a processed candidate. article is set once the candidate
// has been stored, even when a later step fails.
type result struct {
	outcome outcome
	article *core.Article
	chunks  int
}

// process handles one candidate from src. A returned error means the
// candidate failed; whether it is fatal to the run is decided by isFatal.
func (ap *articleProcessor) process(ctx context.Context, src string, category string, candidate core.Candidate) (result, error) {
	logger := ap.logger.With("source", src, "url", candidate.URL)

	if err := core.ValidateCandidate(&candidate); err != nil {
		logger.Debug("skipping invalid candidate", "err", err)
		return result{outcome: outcomeInvalid}, nil
	}

	exists, err := ap.articles.Exists(ctx, candidate.URL)
	if err != nil {
		return result{}, fmt.Errorf("checking %s: %w", candidate.URL, err)
	}
	if exists {
		logger.Debug("skipping known article")
		return result{outcome: outcomeDuplicate}, nil
	}

	article, err := ap.articles.Insert(ctx, &core.Article{
		Title:       candidate.Title,
		URL:         candidate.URL,
		Content:     candidate.Content,
		Category:    category,
		PublishedAt: candidate.PublishedAt,
	})
	if errors.Is(err, core.ErrDuplicateArticle) {
		// Another run stored it between the check and the insert
		logger.Debug("lost insert race")
		return result{outcome: outcomeDuplicate}, nil
	}
	if err != nil {
		return result{}, fmt.Errorf("storing %s: %w", candidate.URL, err)
	}

	res := result{article: article}
	chunks := ap.chunker.Split(article.Content)
	if len(chunks) == 0 {
		logger.Debug("article has no content to embed", "article_id", article.ID)
		res.outcome = outcomeEmpty
		return res, nil
	}

	vectors, err := ap.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return res, fmt.Errorf("embedding %s: %w", candidate.URL, err)
	}
	if len(vectors) != len(chunks) {
		return res, fmt.Errorf("embedding %s: %w: expected %d, received %d",
			candidate.URL, ai.ErrEmbeddingCount, len(chunks), len(vectors))
	}

	payloads := make([]core.ChunkPayload, len(chunks))
	for i, text := range chunks {
		payloads[i] = core.NewChunkPayload(article, text)
	}

	ids, err := ap.index.Upsert(ctx, ap.collection, vectors, payloads, nil)
	if err != nil {
		return res, fmt.Errorf("upserting %s: %w", candidate.URL, err)
	}
	res.outcome = outcomeIndexed
	res.chunks = len(ids)

	logger.Debug("indexed article", "article_id", article.ID, "chunks", len(ids))
	ap.publish(ctx, src, article, ids)
	return res, nil
}

func (ap *articleProcessor) publish(ctx context.Context, src string, article *core.Article, ids []string) {
	event := events.ArticleIngested{
		ArticleID:   article.ID,
		URL:         article.URL,
		Title:       article.Title,
		Category:    article.Category,
		Source:      src,
		Collection:  ap.collection,
		PointIDs:    ids,
		PublishedAt: article.ResolvedTime(),
		IngestedAt:  ap.now().UTC(),
	}
	if err := ap.publisher.PublishArticleIngested(ctx, event); err != nil {
		ap.logger.Warn("publishing ingestion event failed", "url", article.URL, "err", err)
	}
}

// isFatal reports whether err is a configuration problem that every further
// article would hit too.
func isFatal(err error) bool {
	return errors.Is(err, core.ErrDimensionMismatch) ||
		errors.Is(err, storage.ErrCollectionNotFound) ||
		errors.Is(err, core.ErrLengthMismatch)
}
