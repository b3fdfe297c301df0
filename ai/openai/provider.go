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

package openai

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/worldsignal/ai"
)

// Provider serves both embeddings and generation from OpenAI-compatible
// endpoints. The two may point at different hosts, for example embeddings
// from OpenAI and answers from Gemini.
type Provider struct {
	embedder  *Embedder
	generator *Generator
	logger    *slog.Logger
}

// NewProvider creates a provider. Both backends in config must speak the
// OpenAI API (openai or gemini).
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	for _, backend := range []string{config.EmbeddingBackend, config.GenerationBackend} {
		if backend != ai.BackendOpenAI && backend != ai.BackendGemini {
			return nil, fmt.Errorf("%w: %q is not OpenAI-compatible", ai.ErrUnknownBackend, backend)
		}
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}
	generator, err := newGenerator(config)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "openai-provider")
	logger.Debug("provider ready",
		"embeddingHost", config.EmbeddingHost, "embeddingModel", config.EmbeddingModel,
		"generationHost", config.GenerationHost, "generationModel", config.GenerationModel)

	return &Provider{
		embedder:  embedder,
		generator: generator,
		logger:    logger,
	}, nil
}

// Embedder returns the embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the generation service.
func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// Close is a no-op; the HTTP clients hold no resources that need releasing.
func (p *Provider) Close() error {
	return nil
}
