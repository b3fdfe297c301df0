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

package ai

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Backend names accepted by Config.
const (
	BackendHashing = "hashing" // offline feature hashing, embeddings only
	BackendOpenAI  = "openai"  // any OpenAI-compatible server
	BackendGemini  = "gemini"  // Gemini through its OpenAI-compatible endpoint
	BackendOllama  = "ollama"  // native Ollama API
)

// DefaultGeminiHost is the OpenAI-compatible Gemini endpoint.
const DefaultGeminiHost = "https://generativelanguage.googleapis.com/v1beta/openai"

var (
	embeddingBackends  = []string{BackendHashing, BackendOpenAI, BackendGemini, BackendOllama}
	generationBackends = []string{BackendOpenAI, BackendGemini, BackendOllama}
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingBackend selects the embedding implementation.
	EmbeddingBackend string

	// GenerationBackend selects the text generation implementation.
	GenerationBackend string

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	EmbeddingHost string

	// GenerationHost is the base URL for the generation service API.
	GenerationHost string

	// EmbeddingAPIKey authenticates against the embedding service.
	// Local servers accept any value.
	EmbeddingAPIKey string

	// GenerationAPIKey authenticates against the generation service.
	GenerationAPIKey string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "all-minilm", "text-embedding-3-small"
	EmbeddingModel string

	// GenerationModel is the model identifier used to answer questions.
	// Example: "qwen2.5:3b", "gpt-4o-mini", "gemini-2.0-flash"
	GenerationModel string

	// Dimension is the embedding vector size. The vector collection is
	// created with this size.
	// Default: 384
	Dimension int

	// Temperature is the sampling temperature for generation.
	// Default: 0.7
	Temperature float64

	// MaxTokens bounds the generated answer length.
	// Default: 512
	MaxTokens int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingBackend sets the embedding backend.
func WithEmbeddingBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingBackend = backend
	}
}

// WithGenerationBackend sets the generation backend.
func WithGenerationBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.GenerationBackend = backend
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithGenerationHost sets the generation service host URL.
func WithGenerationHost(host string) ConfigOption {
	return func(c *Config) {
		c.GenerationHost = host
	}
}

// WithHost sets both embedding and generation hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.GenerationHost = host
	}
}

// WithAPIKey sets the same API key for both services.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingAPIKey = key
		c.GenerationAPIKey = key
	}
}

// WithEmbeddingAPIKey sets the embedding service API key.
func WithEmbeddingAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingAPIKey = key
	}
}

// WithGenerationAPIKey sets the generation service API key.
func WithGenerationAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.GenerationAPIKey = key
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithGenerationModel sets the generation model identifier.
func WithGenerationModel(model string) ConfigOption {
	return func(c *Config) {
		c.GenerationModel = model
	}
}

// WithDimension sets the embedding vector size.
func WithDimension(dim int) ConfigOption {
	return func(c *Config) {
		c.Dimension = dim
	}
}

// WithTemperature sets the generation temperature.
func WithTemperature(t float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithMaxTokens sets the generation output bound.
func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// DefaultConfig returns a Config that embeds offline and generates with a
// local OpenAI-compatible server.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingBackend:  BackendHashing,
		GenerationBackend: BackendOpenAI,
		EmbeddingHost:     "http://localhost:11434/v1",
		GenerationHost:    "http://localhost:11434/v1",
		EmbeddingModel:    "all-minilm",
		GenerationModel:   "qwen2.5:3b",
		Dimension:         384,
		Temperature:       0.7,
		MaxTokens:         512,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithEmbeddingBackend(BackendOllama),
//	    WithHost("http://localhost:11434"),
//	    WithEmbeddingModel("all-minilm"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize puts hosts in the form each backend expects.
// OpenAI-compatible hosts get a /v1 suffix, Ollama hosts lose it, and an
// empty Gemini host falls back to DefaultGeminiHost.
func (c *Config) Normalize() {
	c.EmbeddingBackend = strings.ToLower(strings.TrimSpace(c.EmbeddingBackend))
	c.GenerationBackend = strings.ToLower(strings.TrimSpace(c.GenerationBackend))
	c.EmbeddingHost = normalizeHost(c.EmbeddingBackend, c.EmbeddingHost)
	c.GenerationHost = normalizeHost(c.GenerationBackend, c.GenerationHost)
}

func normalizeHost(backend, host string) string {
	switch backend {
	case BackendOpenAI:
		if host != "" && !strings.HasSuffix(host, "/v1") {
			host = strings.TrimSuffix(host, "/") + "/v1"
		}
	case BackendGemini:
		if host == "" {
			host = DefaultGeminiHost
		}
		host = strings.TrimSuffix(host, "/")
	case BackendOllama:
		host = strings.TrimSuffix(strings.TrimSuffix(host, "/"), "/v1")
	}
	return host
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration first.
func (c *Config) Validate() error {
	c.Normalize()

	if !slices.Contains(embeddingBackends, c.EmbeddingBackend) {
		return fmt.Errorf("ai config: %w: embedding backend %q", ErrUnknownBackend, c.EmbeddingBackend)
	}
	if !slices.Contains(generationBackends, c.GenerationBackend) {
		return fmt.Errorf("ai config: %w: generation backend %q", ErrUnknownBackend, c.GenerationBackend)
	}
	if c.EmbeddingBackend != BackendHashing {
		if c.EmbeddingHost == "" {
			return errors.New("ai config: EmbeddingHost is required")
		}
		if c.EmbeddingModel == "" {
			return errors.New("ai config: EmbeddingModel is required")
		}
	}
	if c.GenerationHost == "" {
		return errors.New("ai config: GenerationHost is required")
	}
	if c.GenerationModel == "" {
		return errors.New("ai config: GenerationModel is required")
	}
	if c.EmbeddingBackend == BackendGemini && c.EmbeddingAPIKey == "" {
		return errors.New("ai config: EmbeddingAPIKey is required for gemini")
	}
	if c.GenerationBackend == BackendGemini && c.GenerationAPIKey == "" {
		return errors.New("ai config: GenerationAPIKey is required for gemini")
	}
	if c.Dimension <= 0 {
		return errors.New("ai config: Dimension must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.MaxTokens <= 0 {
		return errors.New("ai config: MaxTokens must be positive")
	}
	return nil
}
