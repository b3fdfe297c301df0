package core

import (
	"errors"
	"testing"
	"time"
)

func TestNewPointID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewPointID()
		if !IsPointID(id) {
			t.Fatalf("NewPointID() produced malformed id %q", id)
		}
		if seen[id] {
			t.Fatalf("NewPointID() produced duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestIsPointID(t *testing.T) {
	if IsPointID("42") {
		t.Error("numeric string should not be a point id")
	}
	if IsPointID("") {
		t.Error("empty string should not be a point id")
	}
}

func TestArticleResolvedTime(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	published := time.Date(2024, 2, 28, 8, 30, 0, 0, time.FixedZone("EST", -5*3600))

	a := &Article{CreatedAt: created}
	if got := a.ResolvedTime(); !got.Equal(created) {
		t.Errorf("ResolvedTime() = %v, want ingestion time %v", got, created)
	}

	a.PublishedAt = published
	got := a.ResolvedTime()
	if !got.Equal(published) {
		t.Errorf("ResolvedTime() = %v, want %v", got, published)
	}
	if got.Location() != time.UTC {
		t.Errorf("ResolvedTime() location = %v, want UTC", got.Location())
	}
}

func TestNewChunkPayload(t *testing.T) {
	article := &Article{
		ID:          7,
		Title:       "Markets Rally",
		URL:         "https://example.com/a1",
		Category:    CategoryFinance,
		PublishedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}

	p := NewChunkPayload(article, "chunk text")
	if p.ArticleID != 7 || p.Category != CategoryFinance || p.URL != article.URL || p.Title != article.Title {
		t.Errorf("NewChunkPayload() copied wrong fields: %+v", p)
	}
	if p.Timestamp != "2024-05-01T09:00:00Z" {
		t.Errorf("Timestamp = %q, want ISO-8601 UTC", p.Timestamp)
	}
	if p.Chunk != "chunk text" {
		t.Errorf("Chunk = %q", p.Chunk)
	}
}

func TestCheckLengths(t *testing.T) {
	if err := CheckLengths(3, 3, nil); err != nil {
		t.Errorf("matching lengths without ids: %v", err)
	}
	if err := CheckLengths(2, 2, []string{"a", "b"}); err != nil {
		t.Errorf("matching lengths with ids: %v", err)
	}

	err := CheckLengths(3, 2, nil)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
	var lm *LengthMismatchError
	if !errors.As(err, &lm) || lm.Vectors != 3 || lm.Payloads != 2 || lm.IDs != -1 {
		t.Errorf("unexpected error detail: %#v", err)
	}

	if err := CheckLengths(2, 2, []string{"a"}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected id count mismatch, got %v", err)
	}
	// An explicit empty id slice is a caller-supplied list of the wrong size.
	if err := CheckLengths(1, 1, []string{}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected mismatch for empty id slice, got %v", err)
	}
}

func TestDimensionMismatchError(t *testing.T) {
	err := error(&DimensionMismatchError{Collection: "news", Existing: 384, Requested: 768})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Error("DimensionMismatchError should match ErrDimensionMismatch")
	}
	if err.Error() != `collection "news" has dimension 384, requested 768` {
		t.Errorf("unexpected message %q", err.Error())
	}
}
