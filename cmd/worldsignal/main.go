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

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/worldsignal/ai"
	"github.com/poiesic/worldsignal/chunk"
	"github.com/poiesic/worldsignal/config"
	"github.com/poiesic/worldsignal/core"
	"github.com/poiesic/worldsignal/events"
	"github.com/poiesic/worldsignal/reindex"
	"github.com/poiesic/worldsignal/storage/qdrant"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "worldsignal",
		Usage:    "Ingest finance and geopolitics news and answer questions over it",
		Flags:    globalFlags(),
		Before:   setupLogger,
		Commands: commands(),
	}
}

func globalFlags() []cli.Flag {
	defaults := ai.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Usage:   "Set logging level (debug, info, warn, error)",
			Value:   "info",
			EnvVars: []string{"LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a TOML config file",
			EnvVars: []string{"WORLDSIGNAL_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Usage:   "Directory for the article store and the embedded index",
			Value:   "data",
			EnvVars: []string{"DATA_DIR"},
		},
		&cli.StringFlag{
			Name:    "db",
			Usage:   "Path to the SQLite article store (defaults under data-dir)",
			EnvVars: []string{"DATABASE_PATH"},
		},
		&cli.StringFlag{
			Name:    "vector-backend",
			Usage:   "Vector index backend (qdrant, badger)",
			Value:   config.VectorQdrant,
			EnvVars: []string{"VECTOR_BACKEND"},
		},
		&cli.StringFlag{
			Name:    "qdrant-host",
			Usage:   "Qdrant host",
			Value:   "localhost",
			EnvVars: []string{"QDRANT_HOST"},
		},
		&cli.IntFlag{
			Name:    "qdrant-port",
			Usage:   "Qdrant gRPC port",
			Value:   qdrant.DefaultPort,
			EnvVars: []string{"QDRANT_PORT"},
		},
		&cli.StringFlag{
			Name:    "collection",
			Usage:   "Vector collection name",
			Value:   core.DefaultCollection,
			EnvVars: []string{"QDRANT_COLLECTION"},
		},
		&cli.BoolFlag{
			Name:    "recreate",
			Usage:   "Recreate the collection when its dimension differs from the embedder",
			EnvVars: []string{"RECREATE_COLLECTION"},
		},
		&cli.IntFlag{
			Name:    "vector-size",
			Usage:   "Embedding dimension",
			Value:   defaults.Dimension,
			EnvVars: []string{"VECTOR_SIZE"},
		},
		&cli.StringFlag{
			Name:    "embedding-backend",
			Usage:   "Embedding backend (hashing, openai, gemini, ollama)",
			Value:   defaults.EmbeddingBackend,
			EnvVars: []string{"EMBEDDING_BACKEND"},
		},
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   defaults.EmbeddingHost,
			EnvVars: []string{"EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   defaults.EmbeddingModel,
			EnvVars: []string{"EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "generation-backend",
			Usage:   "Generation backend (openai, gemini, ollama)",
			Value:   defaults.GenerationBackend,
			EnvVars: []string{"LLM_BACKEND"},
		},
		&cli.StringFlag{
			Name:    "generation-host",
			Usage:   "Generation service host URL",
			Value:   defaults.GenerationHost,
			EnvVars: []string{"OPENAI_BASE_URL"},
		},
		&cli.StringFlag{
			Name:    "generation-model",
			Usage:   "Generation model name",
			Value:   defaults.GenerationModel,
			EnvVars: []string{"LLM_MODEL"},
		},
		&cli.StringFlag{
			Name:    "openai-api-key",
			Usage:   "API key for OpenAI backends",
			EnvVars: []string{"OPENAI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "gemini-api-key",
			Usage:   "API key for Gemini backends",
			EnvVars: []string{"GEMINI_API_KEY"},
		},
		&cli.IntFlag{
			Name:    "chunk-size",
			Usage:   "Chunk size in characters",
			Value:   chunk.DefaultSize,
			EnvVars: []string{"CHUNK_SIZE"},
		},
		&cli.IntFlag{
			Name:    "chunk-overlap",
			Usage:   "Characters shared by consecutive chunks",
			Value:   chunk.DefaultOverlap,
			EnvVars: []string{"CHUNK_OVERLAP"},
		},
		&cli.StringFlag{
			Name:    "newsapi-key",
			Usage:   "NewsAPI key",
			EnvVars: []string{"NEWSAPI_KEY"},
		},
		&cli.StringFlag{
			Name:    "guardian-key",
			Usage:   "Guardian Open Platform key",
			EnvVars: []string{"GUARDIAN_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "nyt-key",
			Usage:   "New York Times API key",
			EnvVars: []string{"NYT_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "finnhub-key",
			Usage:   "Finnhub API key",
			EnvVars: []string{"FINNHUB_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "sources",
			Usage:   "Path to a TOML file listing news sources",
			EnvVars: []string{"SOURCES_FILE"},
		},
		&cli.StringSliceFlag{
			Name:    "kafka-brokers",
			Usage:   "Kafka brokers for article events (disabled when empty)",
			EnvVars: []string{"KAFKA_BROKERS"},
		},
		&cli.StringFlag{
			Name:    "kafka-topic",
			Usage:   "Kafka topic for article events",
			Value:   events.DefaultTopic,
			EnvVars: []string{"KAFKA_TOPIC"},
		},
	}
}

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "serve",
			Usage:  "Serve the chat API",
			Action: serveCommand,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "addr",
					Usage:   "Listen address",
					Value:   ":8000",
					EnvVars: []string{"LISTEN_ADDR"},
				},
				&cli.Float64Flag{
					Name:    "rate-limit",
					Usage:   "Chat requests per second",
					Value:   5,
					EnvVars: []string{"RATE_LIMIT"},
				},
			},
		},
		{
			Name:   "ingest",
			Usage:  "Fetch, store and index news from all sources",
			Action: ingestCommand,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "category",
					Usage: "Only run sources of this category (finance, geopolitics)",
				},
				&cli.IntFlag{
					Name:  "pool-size",
					Usage: "Number of sources fetched in parallel",
					Value: 4,
				},
			},
		},
		{
			Name:   "init-storage",
			Usage:  "Create the article store schema and the vector collection",
			Action: initStorageCommand,
		},
		{
			Name:   "reset-collection",
			Usage:  "Drop and recreate the vector collection",
			Action: resetCollectionCommand,
		},
		{
			Name:   "reindex",
			Usage:  "Rebuild the vector collection from stored articles",
			Action: reindexCommand,
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "batch-size",
					Usage: "Number of articles to process in each batch",
					Value: reindex.DefaultBatchSize,
				},
				&cli.IntFlag{
					Name:  "report-interval",
					Usage: "Report progress every N articles",
					Value: 100,
				},
				&cli.IntFlag{
					Name:  "max-retries",
					Usage: "Maximum attempts per embedding call",
					Value: 3,
				},
				&cli.DurationFlag{
					Name:  "retry-delay",
					Usage: "Base delay for exponential backoff",
					Value: 1 * time.Second,
				},
			},
		},
		{
			Name:      "ask",
			Usage:     "Answer a question from the indexed news",
			ArgsUsage: "<question>",
			Action:    askCommand,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "category",
					Usage: "Restrict retrieval to a category (finance, geopolitics)",
				},
				&cli.StringFlag{
					Name:  "session",
					Usage: "Record the exchange under this session id",
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
