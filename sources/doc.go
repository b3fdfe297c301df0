// Package sources fetches candidate articles from news feeds and APIs.
//
// A Source is bound to one category. RSS and Atom feeds are parsed with
// gofeed; NewsAPI, The Guardian, The New York Times and Finnhub are queried
// over their JSON APIs. Sources are described by Definitions, either the
// built-in defaults or a TOML file, and turned into Sources by Build, which
// omits API sources whose key is not configured.
package sources
