package ollama

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ollama/ollama/api"
	"github.com/poiesic/worldsignal/ai"
)

// Embedder implements ai.Embedder with Ollama's /api/embed endpoint.
type Embedder struct {
	client *api.Client
	model  string
	logger *slog.Logger
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newClient(config.EmbeddingHost)
	if err != nil {
		return nil, err
	}
	return &Embedder{
		client: client,
		model:  config.EmbeddingModel,
		logger: slog.Default().With("component", "ollama-embedder"),
	}, nil
}

// NewEmbedder creates an Ollama embedder.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in one request.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, &ai.EmbeddingError{Backend: ai.BackendOllama, Err: err}
	}
	if len(resp.Embeddings) != len(texts) {
		err := fmt.Errorf("%w: expected %d, received %d", ai.ErrEmbeddingCount, len(texts), len(resp.Embeddings))
		return nil, &ai.EmbeddingError{Backend: ai.BackendOllama, Err: err}
	}
	return resp.Embeddings, nil
}
