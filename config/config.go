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

// Package config holds the process-wide settings of worldsignal.
//
// A Config starts from DefaultConfig, may be overlaid with a TOML file by
// Load, and is then adjusted from command-line flags and environment
// variables. After Validate succeeds it is treated as immutable.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/poiesic/worldsignal/ai"
	"github.com/poiesic/worldsignal/chunk"
	"github.com/poiesic/worldsignal/core"
	"github.com/poiesic/worldsignal/events"
	"github.com/poiesic/worldsignal/search"
	"github.com/poiesic/worldsignal/server"
	"github.com/poiesic/worldsignal/sources"
	"github.com/poiesic/worldsignal/storage/qdrant"
)

// Vector index backends.
const (
	VectorQdrant = "qdrant" // remote Qdrant over gRPC
	VectorBadger = "badger" // embedded, for local runs
)

// Config aggregates every setting of the system.
type Config struct {
	// DataDir holds the local databases unless their paths are set explicitly.
	DataDir string `toml:"data_dir"`

	Store       StoreConfig         `toml:"store"`
	Vector      VectorConfig        `toml:"vector"`
	Chunk       ChunkConfig         `toml:"chunk"`
	AI          AIConfig            `toml:"ai"`
	Retrieval   RetrievalConfig     `toml:"retrieval"`
	Credentials sources.Credentials `toml:"credentials"`
	Kafka       KafkaConfig         `toml:"kafka"`
	Server      ServerConfig        `toml:"server"`

	// SourcesFile lists the sources to ingest. Empty means the built-in list.
	SourcesFile string `toml:"sources_file"`
}

// StoreConfig configures the article store.
type StoreConfig struct {
	// Path of the SQLite database. Default: <DataDir>/news.db
	Path string `toml:"path"`
}

// VectorConfig configures the vector index.
type VectorConfig struct {
	Backend    string `toml:"backend"`
	QdrantHost string `toml:"qdrant_host"`
	QdrantPort int    `toml:"qdrant_port"`

	// BadgerPath of the embedded index. Default: <DataDir>/vectors
	BadgerPath string `toml:"badger_path"`

	Collection string `toml:"collection"`

	// Recreate drops and recreates a collection whose dimension differs from
	// the embedder's. Every vector in it is lost.
	Recreate bool `toml:"recreate"`
}

// ChunkConfig configures the text chunker.
type ChunkConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// AIConfig is the file form of ai.Config.
type AIConfig struct {
	EmbeddingBackend  string  `toml:"embedding_backend"`
	GenerationBackend string  `toml:"generation_backend"`
	EmbeddingHost     string  `toml:"embedding_host"`
	GenerationHost    string  `toml:"generation_host"`
	EmbeddingAPIKey   string  `toml:"embedding_api_key"`
	GenerationAPIKey  string  `toml:"generation_api_key"`
	EmbeddingModel    string  `toml:"embedding_model"`
	GenerationModel   string  `toml:"generation_model"`
	Dimension         int     `toml:"dimension"`
	Temperature       float64 `toml:"temperature"`
	MaxTokens         int     `toml:"max_tokens"`
}

// RetrievalConfig configures question answering.
type RetrievalConfig struct {
	TopK     int     `toml:"top_k"`
	MinScore float32 `toml:"min_score"`
}

// KafkaConfig configures ingestion event publishing. No brokers disables it.
type KafkaConfig struct {
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

// ServerConfig is the file form of server.Config.
type ServerConfig struct {
	Addr         string  `toml:"addr"`
	RateLimit    float64 `toml:"rate_limit"`
	Burst        int     `toml:"burst"`
	HistoryLimit int     `toml:"history_limit"`
}

// DefaultConfig returns the default configuration: Qdrant on localhost,
// offline embeddings and a local OpenAI-compatible generator.
func DefaultConfig() *Config {
	aiDefaults := ai.DefaultConfig()
	srv := server.DefaultConfig()
	return &Config{
		DataDir: "data",
		Vector: VectorConfig{
			Backend:    VectorQdrant,
			QdrantHost: "localhost",
			QdrantPort: qdrant.DefaultPort,
			Collection: core.DefaultCollection,
		},
		Chunk: ChunkConfig{
			Size:    chunk.DefaultSize,
			Overlap: chunk.DefaultOverlap,
		},
		AI: AIConfig{
			EmbeddingBackend:  aiDefaults.EmbeddingBackend,
			GenerationBackend: aiDefaults.GenerationBackend,
			EmbeddingHost:     aiDefaults.EmbeddingHost,
			GenerationHost:    aiDefaults.GenerationHost,
			EmbeddingModel:    aiDefaults.EmbeddingModel,
			GenerationModel:   aiDefaults.GenerationModel,
			Dimension:         aiDefaults.Dimension,
			Temperature:       aiDefaults.Temperature,
			MaxTokens:         aiDefaults.MaxTokens,
		},
		Retrieval: RetrievalConfig{
			TopK:     search.DefaultTopK,
			MinScore: search.DefaultMinScore,
		},
		Kafka: KafkaConfig{
			Topic: events.DefaultTopic,
		},
		Server: ServerConfig{
			Addr:         srv.Addr,
			RateLimit:    srv.RateLimit,
			Burst:        srv.Burst,
			HistoryLimit: srv.HistoryLimit,
		},
	}
}

// Load reads a TOML file over the defaults. Keys missing from the file keep
// their default values; unknown keys are an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// StorePath returns the SQLite path, defaulting under DataDir.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(c.DataDir, "news.db")
}

// BadgerPath returns the embedded index path, defaulting under DataDir.
func (c *Config) BadgerPath() string {
	if c.Vector.BadgerPath != "" {
		return c.Vector.BadgerPath
	}
	return filepath.Join(c.DataDir, "vectors")
}

// AIConfig converts the AI settings to an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return &ai.Config{
		EmbeddingBackend:  c.AI.EmbeddingBackend,
		GenerationBackend: c.AI.GenerationBackend,
		EmbeddingHost:     c.AI.EmbeddingHost,
		GenerationHost:    c.AI.GenerationHost,
		EmbeddingAPIKey:   c.AI.EmbeddingAPIKey,
		GenerationAPIKey:  c.AI.GenerationAPIKey,
		EmbeddingModel:    c.AI.EmbeddingModel,
		GenerationModel:   c.AI.GenerationModel,
		Dimension:         c.AI.Dimension,
		Temperature:       c.AI.Temperature,
		MaxTokens:         c.AI.MaxTokens,
	}
}

// ServerConfig converts the server settings to a server.Config.
func (c *Config) ServerConfig() server.Config {
	cfg := server.DefaultConfig()
	cfg.Addr = c.Server.Addr
	cfg.RateLimit = c.Server.RateLimit
	cfg.Burst = c.Server.Burst
	cfg.HistoryLimit = c.Server.HistoryLimit
	return cfg
}

// Validate checks that the configuration is valid and complete.
func (c *Config) Validate() error {
	if c.Store.Path == "" && c.DataDir == "" {
		return errors.New("config: DataDir or Store.Path is required")
	}

	switch c.Vector.Backend {
	case VectorQdrant:
		if c.Vector.QdrantHost == "" {
			return errors.New("config: Vector.QdrantHost is required")
		}
		if c.Vector.QdrantPort <= 0 || c.Vector.QdrantPort > 65535 {
			return fmt.Errorf("config: Vector.QdrantPort %d is out of range", c.Vector.QdrantPort)
		}
	case VectorBadger:
		if c.Vector.BadgerPath == "" && c.DataDir == "" {
			return errors.New("config: DataDir or Vector.BadgerPath is required")
		}
	default:
		return fmt.Errorf("config: unknown vector backend %q", c.Vector.Backend)
	}
	if c.Vector.Collection == "" {
		return errors.New("config: Vector.Collection is required")
	}

	if _, err := chunk.New(chunk.WithSize(c.Chunk.Size), chunk.WithOverlap(c.Chunk.Overlap)); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if err := c.AIConfig().Validate(); err != nil {
		return err
	}

	if c.Retrieval.TopK <= 0 {
		return errors.New("config: Retrieval.TopK must be positive")
	}
	if c.Retrieval.MinScore < -1 || c.Retrieval.MinScore > 1 {
		return errors.New("config: Retrieval.MinScore must be between -1 and 1")
	}

	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("config: Kafka.Topic is required when brokers are set")
	}

	return c.ServerConfig().Validate()
}
