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

package answer

import (
	"context"
	"iter"
	"log/slog"
	"strings"

	"github.com/poiesic/worldsignal/ai"
	"github.com/poiesic/worldsignal/core"
	"github.com/poiesic/worldsignal/storage"
)

// Retriever finds the chunks relevant to a query. *search.Searcher implements it.
type Retriever interface {
	Retrieve(ctx context.Context, query, category string) ([]core.SearchHit, error)
}

// Request is one question.
type Request struct {
	Query     string `json:"query"`
	Category  string `json:"category,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Answerer streams grounded answers.
type Answerer struct {
	retriever Retriever
	generator ai.Generator
	history   storage.ChatHistory
	logger    *slog.Logger
}

// Option configures an Answerer.
type Option func(*Answerer)

// WithHistory records each completed exchange that carries a session id.
func WithHistory(history storage.ChatHistory) Option {
	return func(a *Answerer) {
		a.history = history
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Answerer) {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
	}
}

// NewAnswerer creates a new answerer.
func NewAnswerer(retriever Retriever, generator ai.Generator, opts ...Option) (*Answerer, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	a := &Answerer{
		retriever: retriever,
		generator: generator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "answer")
	return a, nil
}

// Answer streams the answer to req. The first event is always EventSources,
// then one EventToken per generated fragment, then EventDone. An error is
// yielded once as the last element. The stream is lazy: nothing happens
// until the first pull, and stopping early cancels generation.
func (a *Answerer) Answer(ctx context.Context, req Request) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		if strings.TrimSpace(req.Query) == "" {
			yield(Event{}, ErrEmptyQuery)
			return
		}

		hits, err := a.retriever.Retrieve(ctx, req.Query, req.Category)
		if err != nil {
			if ctx.Err() != nil {
				yield(Event{}, ctx.Err())
				return
			}
			a.logger.Warn("retrieval failed, answering without context", "category", req.Category, "err", err)
			hits = nil
		}

		contextBlock, citations := BuildContext(hits)
		prompt := BuildPrompt(contextBlock, req.Query)
		a.logger.Debug("answering", "category", req.Category, "hits", len(hits), "sources", len(citations))

		if !yield(Event{Type: EventSources, Sources: citations}, nil) {
			return
		}

		var reply strings.Builder
		for fragment, err := range a.generator.Generate(ctx, prompt) {
			if err != nil {
				yield(Event{}, err)
				return
			}
			reply.WriteString(fragment)
			if !yield(Event{Type: EventToken, Content: fragment}, nil) {
				return
			}
		}

		a.remember(ctx, req, reply.String(), citations)
		yield(Event{Type: EventDone}, nil)
	}
}

// remember stores a finished exchange. Failures are logged only; the answer
// has already been delivered.
func (a *Answerer) remember(ctx context.Context, req Request, reply string, citations []string) {
	if a.history == nil || req.SessionID == "" {
		return
	}
	err := a.history.AppendMessages(ctx,
		&core.ChatMessage{SessionID: req.SessionID, Role: core.RoleUser, Content: req.Query},
		&core.ChatMessage{SessionID: req.SessionID, Role: core.RoleAssistant, Content: reply, Sources: citations},
	)
	if err != nil {
		a.logger.Warn("failed to record chat history", "session", req.SessionID, "err", err)
	}
}
