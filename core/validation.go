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
	"fmt"
	"net/url"
	"strings"
)

// ValidateArticle validates an Article before it is stored.
//
// Validation rules:
//   - URL must be an absolute http(s) URL
//   - Category must not be blank
//
// NOT validated:
//   - Title (some feeds publish untitled items)
//   - Content (empty content is stored but yields no chunks)
//   - PublishedAt (zero means unknown)
//   - ID (assigned by the store)
func ValidateArticle(article *Article) error {
	if article == nil {
		return fmt.Errorf("%w: article is nil", ErrInvalidArticle)
	}
	if err := validateURL(article.URL); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, err)
	}
	if strings.TrimSpace(article.Category) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, ErrEmptyCategory)
	}
	return nil
}

// ValidateCandidate checks the minimum a fetched item needs to become an Article.
// Only the URL is required.
func ValidateCandidate(candidate *Candidate) error {
	if candidate == nil {
		return fmt.Errorf("%w: candidate is nil", ErrInvalidCandidate)
	}
	if err := validateURL(candidate.URL); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCandidate, err)
	}
	return nil
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url %q is not an absolute http(s) url", raw)
	}
	return nil
}
