package hashing

import (
	"context"
	"encoding/binary"
	"errors"
	"log/slog"

	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/worldsignal/ai"
)

// ErrInvalidDimension is returned for a non-positive dimension.
var ErrInvalidDimension = errors.New("dimension must be positive")

// Embedder implements ai.Embedder with signed feature hashing.
type Embedder struct {
	dim    int
	logger *slog.Logger
}

// NewEmbedder creates a hashing embedder producing vectors of size dim.
func NewEmbedder(dim int) (*Embedder, error) {
	if dim <= 0 {
		return nil, ErrInvalidDimension
	}
	return &Embedder{
		dim:    dim,
		logger: slog.Default().With("component", "hashing-embedder"),
	}, nil
}

// Dimension returns the vector size.
func (e *Embedder) Dimension() int {
	return e.dim
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ai.EmbeddingError{Backend: ai.BackendHashing, Err: err}
	}
	return e.embed(text), nil
}

// EmbedTexts generates vector embeddings for multiple text strings.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("hashing texts", "count", len(texts))
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, &ai.EmbeddingError{Backend: ai.BackendHashing, Err: err}
		}
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

func (e *Embedder) embed(text string) []float32 {
	vector := make([]float32, e.dim)
	for _, term := range tokenize(text) {
		sum := termHash(term)
		bucket := sum % uint64(e.dim)
		if sum>>63 == 1 {
			vector[bucket]--
		} else {
			vector[bucket]++
		}
	}
	return ai.NormalizeVector(vector)
}

func termHash(term string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(term))
	return binary.LittleEndian.Uint64(h.Sum(nil))
}
