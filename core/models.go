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

package core

import (
	"time"

	"github.com/google/uuid"
)

// Well-known categories. The set is open; sources may carry any tag.
const (
	CategoryFinance     = "finance"
	CategoryGeopolitics = "geopolitics"
)

// DefaultCollection is the vector collection news chunks are indexed into.
const DefaultCollection = "world_signal_news"

// Payload keys stored alongside every chunk vector.
const (
	PayloadArticleID = "source_id"
	PayloadCategory  = "category"
	PayloadTimestamp = "timestamp"
	PayloadChunk     = "content_chunk"
	PayloadTitle     = "title"
	PayloadURL       = "url"
)

// Article is one ingested news document.
type Article struct {
	ID          int64 // Assigned by the article store on insert
	Title       string
	URL         string // Canonical URL, unique across all articles
	Content     string
	Category    string
	PublishedAt time.Time // Zero when the source gave no usable date
	CreatedAt   time.Time // When the article was ingested
}

// ResolvedTime returns the published time, falling back to the ingestion time.
func (a *Article) ResolvedTime() time.Time {
	if !a.PublishedAt.IsZero() {
		return a.PublishedAt.UTC()
	}
	return a.CreatedAt.UTC()
}

// Candidate is an article as fetched from a source, before it is stored.
type Candidate struct {
	Title       string
	URL         string
	Content     string
	PublishedAt time.Time
}

// ChunkPayload is the metadata attached to one chunk vector.
// ArticleID references the stored Article by value.
type ChunkPayload struct {
	ArticleID int64  `json:"source_id"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"` // RFC 3339, UTC
	Chunk     string `json:"content_chunk"`
	Title     string `json:"title"`
	URL       string `json:"url"`
}

// NewChunkPayload builds the payload for one chunk of a stored article.
func NewChunkPayload(article *Article, chunk string) ChunkPayload {
	return ChunkPayload{
		ArticleID: article.ID,
		Category:  article.Category,
		Timestamp: article.ResolvedTime().Format(time.RFC3339),
		Chunk:     chunk,
		Title:     article.Title,
		URL:       article.URL,
	}
}

// SearchHit is one nearest-neighbor result from a vector index.
type SearchHit struct {
	ID      string
	Score   float32
	Payload ChunkPayload
}

// Chat roles stored in session history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one persisted turn of a chat session.
type ChatMessage struct {
	ID        int64
	SessionID string
	Role      string
	Content   string
	Sources   []string
	CreatedAt time.Time
}

// NewPointID returns a random identifier for a chunk vector.
// Random ids keep concurrent writers from colliding.
func NewPointID() string {
	return uuid.NewString()
}

// IsPointID reports whether id is a well-formed point identifier.
func IsPointID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
