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

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/poiesic/worldsignal/core"
)

// DefaultTimeout bounds a single fetch.
const DefaultTimeout = 30 * time.Second

// Source fetches candidate articles for one category.
type Source interface {
	// Name identifies the source in logs and reports.
	Name() string

	// Category is assigned to every article fetched from this source.
	Category() string

	// Fetch returns the source's current items in source order.
	Fetch(ctx context.Context) ([]core.Candidate, error)
}

// settings is shared by every source built with the same options.
type settings struct {
	client *http.Client
	now    func() time.Time
	logger *slog.Logger
}

// Option is a functional option for configuring sources.
type Option func(*settings)

// WithHTTPClient sets the HTTP client used for fetching.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		if client != nil {
			s.client = client
		}
	}
}

// WithClock sets the clock used when an item carries no usable date.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{
		client: &http.Client{Timeout: DefaultTimeout},
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "sources")
	return s
}

// base carries what every source needs.
type base struct {
	name     string
	category string
	*settings
}

func (b *base) Name() string     { return b.name }
func (b *base) Category() string { return b.category }

// getJSON issues a GET with query params and decodes the JSON body into out.
func (b *base) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%s: parsing endpoint: %w", b.name, err)
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", b.name, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", b.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little of the body so the message says what went wrong
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%s: %w %d: %s", b.name, ErrUnexpectedStatus, resp.StatusCode, snippet)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", b.name, err)
	}
	return nil
}
