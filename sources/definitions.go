package sources

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/poiesic/worldsignal/core"
)

// Source kinds accepted in definitions.
const (
	KindRSS      = "rss"
	KindNewsAPI  = "newsapi"
	KindGuardian = "guardian"
	KindNYT      = "nyt"
	KindFinnhub  = "finnhub"
)

// Definition describes one configured source.
type Definition struct {
	Name     string `toml:"name"`
	Kind     string `toml:"kind"`
	Category string `toml:"category"`

	// URL is the feed address for rss and overrides the API base otherwise.
	URL string `toml:"url"`

	// Section selects the Guardian or NYT section. Default "world".
	Section string `toml:"section"`

	// Endpoint selects the NewsAPI endpoint. Default "top-headlines".
	Endpoint string `toml:"endpoint"`
}

// Credentials holds API keys. An empty key disables the matching sources.
type Credentials struct {
	NewsAPI  string `toml:"newsapi"`
	Guardian string `toml:"guardian"`
	NYT      string `toml:"nyt"`
	Finnhub  string `toml:"finnhub"`
}

type definitionsFile struct {
	Sources []Definition `toml:"source"`
}

// DefaultDefinitions returns the built-in finance and geopolitics sources.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Name: "yahoo-finance", Kind: KindRSS, URL: "https://finance.yahoo.com/news/rssindex", Category: core.CategoryFinance},
		{Name: "cnbc", Kind: KindRSS, URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html", Category: core.CategoryFinance},
		{Name: "bloomberg-markets", Kind: KindRSS, URL: "https://feeds.bloomberg.com/markets/news.rss", Category: core.CategoryFinance},
		{Name: "reuters-world", Kind: KindRSS, URL: "https://www.reuters.com/rssFeed/worldNews", Category: core.CategoryGeopolitics},
		{Name: "nyt-world", Kind: KindRSS, URL: "https://rss.nytimes.com/services/xml/rss/nyt/World.xml", Category: core.CategoryGeopolitics},
		{Name: "guardian-world", Kind: KindRSS, URL: "https://www.theguardian.com/world/rss", Category: core.CategoryGeopolitics},
		{Name: "newsapi", Kind: KindNewsAPI, Endpoint: "top-headlines", Category: core.CategoryFinance},
	}
}

// LoadDefinitions reads [[source]] tables from a TOML file.
func LoadDefinitions(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}
	return ParseDefinitions(data)
}

// ParseDefinitions decodes [[source]] tables and validates each entry.
func ParseDefinitions(data []byte) ([]Definition, error) {
	var file definitionsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing sources file: %w", err)
	}
	for i := range file.Sources {
		if err := file.Sources[i].Validate(); err != nil {
			return nil, fmt.Errorf("source %d: %w", i+1, err)
		}
	}
	return file.Sources, nil
}

// Validate checks the definition's kind and required fields.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidDefinition)
	}
	switch strings.ToLower(d.Kind) {
	case KindRSS:
		if d.URL == "" {
			return fmt.Errorf("%w: rss source needs a url", ErrInvalidDefinition)
		}
	case KindNewsAPI, KindGuardian, KindNYT, KindFinnhub:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, d.Kind)
	}
	if d.URL != "" {
		u, err := url.Parse(d.URL)
		if err != nil || u.Host == "" {
			return fmt.Errorf("%w: malformed url %q", ErrInvalidDefinition, d.URL)
		}
	}
	return nil
}

func (d *Definition) displayName() string {
	if d.Name != "" {
		return d.Name
	}
	if strings.ToLower(d.Kind) == KindRSS {
		if u, err := url.Parse(d.URL); err == nil && u.Host != "" {
			return u.Host
		}
		return d.URL
	}
	return strings.ToLower(d.Kind)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return strings.TrimSuffix(v, "/")
}

// Build turns definitions into sources. API sources whose key is empty are
// left out without error.
func Build(defs []Definition, creds Credentials, opts ...Option) ([]Source, error) {
	s := newSettings(opts)

	built := make([]Source, 0, len(defs))
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("source %q: %w", d.displayName(), err)
		}
		b := base{name: d.displayName(), category: d.Category, settings: s}

		var src Source
		switch strings.ToLower(d.Kind) {
		case KindRSS:
			src = newRSS(b.name, d.URL, d.Category, s)
		case KindNewsAPI:
			if creds.NewsAPI != "" {
				src = &NewsAPI{base: b, baseURL: orDefault(d.URL, NewsAPIBase), endpoint: orDefault(d.Endpoint, "top-headlines"), key: creds.NewsAPI}
			}
		case KindGuardian:
			if creds.Guardian != "" {
				src = &Guardian{base: b, baseURL: orDefault(d.URL, GuardianBase), section: orDefault(d.Section, "world"), key: creds.Guardian}
			}
		case KindNYT:
			if creds.NYT != "" {
				src = &NYT{base: b, baseURL: orDefault(d.URL, NYTBase), section: orDefault(d.Section, "world"), key: creds.NYT}
			}
		case KindFinnhub:
			if creds.Finnhub != "" {
				src = &Finnhub{base: b, baseURL: orDefault(d.URL, FinnhubBase), key: creds.Finnhub}
			}
		}

		if src == nil {
			s.logger.Debug("skipping source without api key", "source", b.name, "kind", d.Kind)
			continue
		}
		built = append(built, src)
	}
	return built, nil
}
