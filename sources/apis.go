package sources

import (
	"context"
	"net/url"
	"strings"

	"github.com/poiesic/worldsignal/core"
)

// Default API endpoints. A definition's URL replaces the base.
const (
	NewsAPIBase  = "https://newsapi.org/v2"
	GuardianBase = "https://content.guardianapis.com"
	NYTBase      = "https://api.nytimes.com/svc/topstories/v2"
	FinnhubBase  = "https://finnhub.io/api/v1"
)

const apiPageSize = "20"

// NewsAPI fetches US headlines from newsapi.org.
type NewsAPI struct {
	base
	baseURL  string
	endpoint string
	key      string
}

var _ Source = (*NewsAPI)(nil)

type newsAPIResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
		Content     string `json:"content"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Fetch queries the configured endpoint (top-headlines by default).
// Content is the description followed by the truncated body.
func (n *NewsAPI) Fetch(ctx context.Context) ([]core.Candidate, error) {
	params := url.Values{
		"apiKey":   {n.key},
		"country":  {"us"},
		"pageSize": {apiPageSize},
	}
	var resp newsAPIResponse
	if err := n.getJSON(ctx, n.baseURL+"/"+n.endpoint, params, &resp); err != nil {
		return nil, err
	}

	now := n.now()
	candidates := make([]core.Candidate, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		if a.URL == "" {
			continue
		}
		candidates = append(candidates, core.Candidate{
			Title:       a.Title,
			URL:         a.URL,
			Content:     strings.TrimSpace(a.Description + " " + a.Content),
			PublishedAt: ParseISO8601(a.PublishedAt, now),
		})
	}
	return candidates, nil
}

// Guardian fetches a section of The Guardian with full bodies.
type Guardian struct {
	base
	baseURL string
	section string
	key     string
}

var _ Source = (*Guardian)(nil)

type guardianResponse struct {
	Response struct {
		Results []struct {
			WebTitle           string `json:"webTitle"`
			WebURL             string `json:"webUrl"`
			WebPublicationDate string `json:"webPublicationDate"`
			Fields             struct {
				Body string `json:"body"`
			} `json:"fields"`
		} `json:"results"`
	} `json:"response"`
}

// Fetch queries the section search.
func (g *Guardian) Fetch(ctx context.Context) ([]core.Candidate, error) {
	params := url.Values{
		"api-key":     {g.key},
		"section":     {g.section},
		"show-fields": {"body"},
		"page-size":   {apiPageSize},
	}
	var resp guardianResponse
	if err := g.getJSON(ctx, g.baseURL+"/search", params, &resp); err != nil {
		return nil, err
	}

	now := g.now()
	candidates := make([]core.Candidate, 0, len(resp.Response.Results))
	for _, a := range resp.Response.Results {
		candidates = append(candidates, core.Candidate{
			Title:       a.WebTitle,
			URL:         a.WebURL,
			Content:     a.Fields.Body,
			PublishedAt: ParseISO8601(a.WebPublicationDate, now),
		})
	}
	return candidates, nil
}

// NYT fetches a New York Times top stories section.
type NYT struct {
	base
	baseURL string
	section string
	key     string
}

var _ Source = (*NYT)(nil)

type nytResponse struct {
	Results []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		Abstract      string `json:"abstract"`
		PublishedDate string `json:"published_date"`
	} `json:"results"`
}

// Fetch queries the section's top stories. Content is the abstract.
func (n *NYT) Fetch(ctx context.Context) ([]core.Candidate, error) {
	var resp nytResponse
	endpoint := n.baseURL + "/" + url.PathEscape(n.section) + ".json"
	if err := n.getJSON(ctx, endpoint, url.Values{"api-key": {n.key}}, &resp); err != nil {
		return nil, err
	}

	now := n.now()
	candidates := make([]core.Candidate, 0, len(resp.Results))
	for _, a := range resp.Results {
		if a.URL == "" {
			continue
		}
		candidates = append(candidates, core.Candidate{
			Title:       a.Title,
			URL:         a.URL,
			Content:     a.Abstract,
			PublishedAt: ParseISO8601(a.PublishedDate, now),
		})
	}
	return candidates, nil
}

// Finnhub fetches general market news.
type Finnhub struct {
	base
	baseURL string
	key     string
}

var _ Source = (*Finnhub)(nil)

type finnhubItem struct {
	Headline string `json:"headline"`
	URL      string `json:"url"`
	Summary  string `json:"summary"`
	Datetime int64  `json:"datetime"`
}

// Fetch queries the general news category.
func (f *Finnhub) Fetch(ctx context.Context) ([]core.Candidate, error) {
	params := url.Values{
		"token":    {f.key},
		"category": {"general"},
	}
	var items []finnhubItem
	if err := f.getJSON(ctx, f.baseURL+"/news", params, &items); err != nil {
		return nil, err
	}

	now := f.now()
	candidates := make([]core.Candidate, 0, len(items))
	for _, a := range items {
		if a.URL == "" {
			continue
		}
		candidates = append(candidates, core.Candidate{
			Title:       a.Headline,
			URL:         a.URL,
			Content:     a.Summary,
			PublishedAt: ParseEpoch(a.Datetime, now),
		})
	}
	return candidates, nil
}
