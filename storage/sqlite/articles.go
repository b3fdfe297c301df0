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

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/poiesic/worldsignal/core"
	"github.com/poiesic/worldsignal/storage"
)

const articleColumns = "id, title, url, content, category, published_at, created_at"

// Exists reports whether an article with url is stored.
func (s *Store) Exists(ctx context.Context, url string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM news_items WHERE url = ? LIMIT 1", url).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking article %q: %w", url, err)
	}
	return true, nil
}

// Insert stores a copy of article. The unique url constraint decides
// duplicates, so two concurrent inserts of one URL store exactly one row.
func (s *Store) Insert(ctx context.Context, article *core.Article) (*core.Article, error) {
	if err := core.ValidateArticle(article); err != nil {
		return nil, err
	}

	stored := *article
	stored.CreatedAt = s.now().UTC()
	if !stored.PublishedAt.IsZero() {
		stored.PublishedAt = stored.PublishedAt.UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO news_items (title, url, content, category, published_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING
	`, stored.Title, stored.URL, stored.Content, stored.Category,
		nullTime(stored.PublishedAt), formatTime(stored.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("inserting article %q: %w", stored.URL, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("inserting article %q: %w", stored.URL, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrDuplicateArticle, stored.URL)
	}

	stored.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading article id: %w", err)
	}
	return &stored, nil
}

// Get retrieves an article by ID.
func (s *Store) Get(ctx context.Context, id int64) (*core.Article, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+articleColumns+" FROM news_items WHERE id = ?", id)
	article, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting article %d: %w", id, err)
	}
	return article, nil
}

// List returns up to limit articles with ID greater than afterID, in ID order.
func (s *Store) List(ctx context.Context, afterID int64, limit int) ([]*core.Article, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+articleColumns+" FROM news_items WHERE id > ? ORDER BY id LIMIT ?", afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	defer rows.Close()

	var articles []*core.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

// Count returns the number of stored articles.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM news_items").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner) (*core.Article, error) {
	var (
		a         core.Article
		published sql.NullString
		created   string
	)
	if err := row.Scan(&a.ID, &a.Title, &a.URL, &a.Content, &a.Category, &published, &created); err != nil {
		return nil, err
	}

	var err error
	if published.Valid {
		if a.PublishedAt, err = parseTime(published.String); err != nil {
			return nil, err
		}
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &a, nil
}
