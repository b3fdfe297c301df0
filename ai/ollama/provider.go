package ollama

import (
	"log/slog"

	"github.com/poiesic/worldsignal/ai"
)

// Provider implements ai.AIProvider on a single Ollama server.
type Provider struct {
	embedder  *Embedder
	generator *Generator
	logger    *slog.Logger
}

// NewProvider creates a provider whose embedder and generator both talk to Ollama.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	generator, err := newGenerator(config)
	if err != nil {
		return nil, err
	}
	return &Provider{
		embedder:  embedder,
		generator: generator,
		logger:    slog.Default().With("component", "ollama-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the text generation service.
func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// Close is a no-op; the HTTP client holds no dedicated resources.
func (p *Provider) Close() error {
	p.logger.Debug("closing Ollama provider")
	return nil
}
