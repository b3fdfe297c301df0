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

// Package worldsignal wires the news ingestion and question answering
// components into one System.
//
// Open builds every long-lived service once from a validated config.Config:
// the article store, the vector index (with its collection ensured), the AI
// provider, the chunker and the event publisher. Pipelines, answerers,
// servers and reindexers are then created from the System and share those
// services.
package worldsignal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/poiesic/worldsignal/ai"
	"github.com/poiesic/worldsignal/ai/hashing"
	"github.com/poiesic/worldsignal/ai/ollama"
	"github.com/poiesic/worldsignal/ai/openai"
	"github.com/poiesic/worldsignal/answer"
	"github.com/poiesic/worldsignal/chunk"
	"github.com/poiesic/worldsignal/config"
	"github.com/poiesic/worldsignal/events"
	"github.com/poiesic/worldsignal/ingestion"
	"github.com/poiesic/worldsignal/reindex"
	"github.com/poiesic/worldsignal/search"
	"github.com/poiesic/worldsignal/server"
	"github.com/poiesic/worldsignal/sources"
	"github.com/poiesic/worldsignal/storage"
	"github.com/poiesic/worldsignal/storage/badger"
	"github.com/poiesic/worldsignal/storage/qdrant"
	"github.com/poiesic/worldsignal/storage/sqlite"
)

// System owns the shared services.
type System struct {
	cfg       *config.Config
	articles  *sqlite.Store
	index     storage.VectorIndex
	provider  ai.AIProvider
	chunker   *chunk.Chunker
	publisher events.Publisher
	logger    *slog.Logger
}

// Option configures Open.
type Option func(*options)

type options struct {
	provider  ai.AIProvider
	publisher events.Publisher
	logger    *slog.Logger
}

// WithAIProvider uses provider instead of building one from the config.
// The System closes it.
func WithAIProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithPublisher uses publisher instead of building one from the config.
// The System closes it.
func WithPublisher(publisher events.Publisher) Option {
	return func(o *options) {
		o.publisher = publisher
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open validates cfg and opens every service. The vector collection is
// created when missing; a dimension mismatch is an error unless
// cfg.Vector.Recreate is set.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	s := &System{cfg: cfg, logger: o.logger}
	ok := false
	defer func() {
		if !ok {
			s.Close()
		}
	}()

	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
	}

	var err error
	s.chunker, err = chunk.New(chunk.WithSize(cfg.Chunk.Size), chunk.WithOverlap(cfg.Chunk.Overlap))
	if err != nil {
		return nil, err
	}

	s.articles, err = sqlite.Open(cfg.StorePath(), sqlite.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}

	s.index, err = openVectorIndex(cfg, o.logger)
	if err != nil {
		return nil, err
	}

	created, err := s.index.EnsureCollection(ctx, storage.CollectionSpec{
		Name:      cfg.Vector.Collection,
		Dimension: cfg.AI.Dimension,
		Force:     cfg.Vector.Recreate,
	})
	if err != nil {
		return nil, fmt.Errorf("ensuring collection %s: %w", cfg.Vector.Collection, err)
	}
	if created {
		s.logger.Info("created vector collection", "component", "worldsignal", "collection", cfg.Vector.Collection, "dimension", cfg.AI.Dimension)
	}

	s.provider = o.provider
	if s.provider == nil {
		s.provider, err = NewAIProvider(cfg.AIConfig())
		if err != nil {
			return nil, err
		}
	}

	s.publisher = o.publisher
	if s.publisher == nil {
		s.publisher = events.Noop{}
		if len(cfg.Kafka.Brokers) > 0 {
			kafka, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
			if err != nil {
				return nil, err
			}
			s.publisher = kafka
		}
	}

	ok = true
	return s, nil
}

func openVectorIndex(cfg *config.Config, logger *slog.Logger) (storage.VectorIndex, error) {
	switch cfg.Vector.Backend {
	case config.VectorQdrant:
		index, err := qdrant.Open(cfg.Vector.QdrantHost, cfg.Vector.QdrantPort, qdrant.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return index, nil
	case config.VectorBadger:
		index, err := badger.OpenVectorIndex(cfg.BadgerPath(), false)
		if err != nil {
			return nil, err
		}
		return index, nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.Vector.Backend)
	}
}

// NewAIProvider builds the embedding and generation services selected by cfg.
// When both come from the same backend they share one provider.
func NewAIProvider(cfg *ai.Config) (ai.AIProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.EmbeddingBackend == cfg.GenerationBackend {
		switch cfg.EmbeddingBackend {
		case ai.BackendOpenAI, ai.BackendGemini:
			return openai.NewProvider(cfg)
		case ai.BackendOllama:
			return ollama.NewProvider(cfg)
		}
	}

	var (
		embedder ai.Embedder
		err      error
	)
	switch cfg.EmbeddingBackend {
	case ai.BackendHashing:
		embedder, err = hashing.NewEmbedder(cfg.Dimension)
	case ai.BackendOpenAI, ai.BackendGemini:
		embedder, err = openai.NewEmbedder(cfg)
	case ai.BackendOllama:
		embedder, err = ollama.NewEmbedder(cfg)
	default:
		err = fmt.Errorf("%w: embedding backend %q", ai.ErrUnknownBackend, cfg.EmbeddingBackend)
	}
	if err != nil {
		return nil, err
	}

	var generator ai.Generator
	switch cfg.GenerationBackend {
	case ai.BackendOpenAI, ai.BackendGemini:
		generator, err = openai.NewGenerator(cfg)
	case ai.BackendOllama:
		generator, err = ollama.NewGenerator(cfg)
	default:
		err = fmt.Errorf("%w: generation backend %q", ai.ErrUnknownBackend, cfg.GenerationBackend)
	}
	if err != nil {
		return nil, err
	}

	return ai.Compose(embedder, generator), nil
}

// Close releases every service. It is safe to call on a partially opened System.
func (s *System) Close() error {
	var errs []error
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close())
	}
	if s.provider != nil {
		errs = append(errs, s.provider.Close())
	}
	if s.index != nil {
		errs = append(errs, s.index.Close())
	}
	if s.articles != nil {
		errs = append(errs, s.articles.Close())
	}
	err := errors.Join(errs...)
	if err != nil {
		s.logger.Error("error closing system", "component", "worldsignal", "err", err)
	}
	return err
}

// Config returns the configuration the System was opened with.
func (s *System) Config() *config.Config { return s.cfg }

// Articles returns the article store.
func (s *System) Articles() storage.ArticleStore { return s.articles }

// History returns the chat history store.
func (s *System) History() storage.ChatHistory { return s.articles }

// Index returns the vector index.
func (s *System) Index() storage.VectorIndex { return s.index }

// Provider returns the AI provider.
func (s *System) Provider() ai.AIProvider { return s.provider }

// Sources builds the configured sources. API sources without a credential
// are left out.
func (s *System) Sources(opts ...sources.Option) ([]sources.Source, error) {
	defs := sources.DefaultDefinitions()
	if s.cfg.SourcesFile != "" {
		var err error
		defs, err = sources.LoadDefinitions(s.cfg.SourcesFile)
		if err != nil {
			return nil, err
		}
	}
	return sources.Build(defs, s.cfg.Credentials, opts...)
}

// NewPipeline creates an ingestion pipeline writing to the configured
// collection and publisher. opts are applied last.
func (s *System) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{
		ingestion.WithCollection(s.cfg.Vector.Collection),
		ingestion.WithPublisher(s.publisher),
		ingestion.WithLogger(s.logger),
	}
	return ingestion.NewPipeline(s.articles, s.index, s.provider.Embedder(), s.chunker, append(base, opts...)...)
}

// NewSearcher creates a searcher with the configured top-k and similarity floor.
func (s *System) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{
		search.WithCollection(s.cfg.Vector.Collection),
		search.WithTopK(s.cfg.Retrieval.TopK),
		search.WithMinScore(s.cfg.Retrieval.MinScore),
		search.WithLogger(s.logger),
	}
	return search.NewSearcher(s.index, s.provider.Embedder(), append(base, opts...)...)
}

// NewAnswerer creates an answerer that records sessions in the article store.
func (s *System) NewAnswerer(opts ...answer.Option) (*answer.Answerer, error) {
	searcher, err := s.NewSearcher()
	if err != nil {
		return nil, err
	}
	base := []answer.Option{
		answer.WithHistory(s.articles),
		answer.WithLogger(s.logger),
	}
	return answer.NewAnswerer(searcher, s.provider.Generator(), append(base, opts...)...)
}

// NewServer creates the HTTP server.
func (s *System) NewServer(opts ...server.Option) (*server.Server, error) {
	answerer, err := s.NewAnswerer()
	if err != nil {
		return nil, err
	}
	base := []server.Option{
		server.WithHistory(s.articles),
		server.WithLogger(s.logger),
	}
	return server.New(s.cfg.ServerConfig(), answerer, append(base, opts...)...)
}

// NewReindexer creates a reindexer for the configured collection. A nil rcfg
// uses reindex.DefaultConfig; its collection and dimension are always taken
// from the System. progress receives human-readable progress; nil discards it.
func (s *System) NewReindexer(rcfg *reindex.Config, progress io.Writer) (*reindex.Reindexer, error) {
	if rcfg == nil {
		rcfg = reindex.DefaultConfig()
	}
	cfg := *rcfg
	cfg.Collection = s.cfg.Vector.Collection
	cfg.Dimension = s.cfg.AI.Dimension
	return reindex.NewReindexer(s.articles, s.index, s.provider.Embedder(), s.chunker, &cfg, progress)
}

// ResetCollection drops the vector collection and recreates it empty.
// Stored articles are kept; run a reindex to index them again.
func (s *System) ResetCollection(ctx context.Context) error {
	if err := s.index.DeleteCollection(ctx, s.cfg.Vector.Collection); err != nil {
		return fmt.Errorf("dropping collection: %w", err)
	}
	_, err := s.index.EnsureCollection(ctx, storage.CollectionSpec{
		Name:      s.cfg.Vector.Collection,
		Dimension: s.cfg.AI.Dimension,
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	s.logger.Info("collection reset", "component", "worldsignal", "collection", s.cfg.Vector.Collection)
	return nil
}
