package ai

import (
	"context"
	"iter"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Used for query embedding.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains exactly one embedding per input, in input order.
	// Backend failures are reported as *EmbeddingError.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces text from a prompt.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate streams the response as it is produced. The sequence is lazy:
	// the backend call starts on the first pull, and a consumer that stops
	// ranging cancels it. A backend failure is yielded once as the final element.
	Generate(ctx context.Context, prompt string) iter.Seq2[string, error]

	// Complete returns the whole response at once.
	Complete(ctx context.Context, prompt string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the text generation service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	Close() error
}
