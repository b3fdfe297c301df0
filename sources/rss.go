package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/poiesic/worldsignal/core"
)

// RSS fetches an RSS or Atom feed.
type RSS struct {
	base
	url string
}

var _ Source = (*RSS)(nil)

// NewRSS creates a feed source.
func NewRSS(name, feedURL, category string, opts ...Option) *RSS {
	return newRSS(name, feedURL, category, newSettings(opts))
}

func newRSS(name, feedURL, category string, s *settings) *RSS {
	return &RSS{base: base{name: name, category: category, settings: s}, url: feedURL}
}

// Fetch parses the feed. Item content is the summary, falling back to the
// full content when the feed has no summary.
func (r *RSS) Fetch(ctx context.Context) ([]core.Candidate, error) {
	parser := gofeed.NewParser()
	parser.Client = r.client

	feed, err := parser.ParseURLWithContext(r.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.name, err)
	}

	now := r.now()
	candidates := make([]core.Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		content := item.Description
		if strings.TrimSpace(content) == "" {
			content = item.Content
		}

		published := now.UTC()
		switch {
		case item.PublishedParsed != nil:
			published = item.PublishedParsed.UTC()
		case item.Published != "":
			published = ParseRFC2822(item.Published, now)
		}

		candidates = append(candidates, core.Candidate{
			Title:       strings.TrimSpace(item.Title),
			URL:         strings.TrimSpace(item.Link),
			Content:     content,
			PublishedAt: published,
		})
	}
	return candidates, nil
}
