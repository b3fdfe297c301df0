package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateArticle(t *testing.T) {
	tests := []struct {
		name    string
		article *Article
		wantErr error
	}{
		{
			name: "valid article",
			article: &Article{
				Title:    "Markets Rally",
				URL:      "https://example.com/a1",
				Content:  "Stocks rose.",
				Category: CategoryFinance,
			},
			wantErr: nil,
		},
		{
			name: "valid article with empty content",
			article: &Article{
				Title:    "Headline only",
				URL:      "http://example.com/a2",
				Category: CategoryGeopolitics,
			},
			wantErr: nil,
		},
		{
			name:    "nil article",
			article: nil,
			wantErr: ErrInvalidArticle,
		},
		{
			name: "empty url",
			article: &Article{
				Title:    "No link",
				Category: CategoryFinance,
			},
			wantErr: ErrEmptyURL,
		},
		{
			name: "relative url",
			article: &Article{
				Title:    "Relative",
				URL:      "/news/1",
				Category: CategoryFinance,
			},
			wantErr: ErrInvalidArticle,
		},
		{
			name: "blank title",
			article: &Article{
				Title:    "   ",
				URL:      "https://example.com/a3",
				Category: CategoryFinance,
			},
		},
		{
			name: "missing category",
			article: &Article{
				Title: "Uncategorized",
				URL:   "https://example.com/a4",
			},
			wantErr: ErrEmptyCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArticle(tt.article)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateArticle() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateArticle() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCandidate(t *testing.T) {
	ok := &Candidate{Title: "Title", URL: "https://example.com/x", PublishedAt: time.Now()}
	if err := ValidateCandidate(ok); err != nil {
		t.Fatalf("ValidateCandidate() unexpected error: %v", err)
	}

	if err := ValidateCandidate(&Candidate{Title: "Title"}); !errors.Is(err, ErrEmptyURL) {
		t.Errorf("expected ErrEmptyURL, got %v", err)
	}
	if err := ValidateCandidate(&Candidate{URL: "https://example.com/x"}); err != nil {
		t.Errorf("untitled candidate should be accepted, got %v", err)
	}
	if err := ValidateCandidate(&Candidate{Title: "Title", URL: "ftp://example.com/x"}); !errors.Is(err, ErrInvalidCandidate) {
		t.Errorf("expected ErrInvalidCandidate, got %v", err)
	}
}
