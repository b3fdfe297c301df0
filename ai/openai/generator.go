package openai

import (
	"context"
	"iter"
	"log/slog"

	"github.com/poiesic/worldsignal/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator implements ai.Generator using OpenAI-compatible chat completion APIs.
type Generator struct {
	llm         llms.Model
	backend     string
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerationHost),
		openai.WithToken(token(config.GenerationAPIKey)),
		openai.WithModel(config.GenerationModel),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		llm:         client,
		backend:     config.GenerationBackend,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      slog.Default().With("component", "openai-generator"),
	}, nil
}

// NewGenerator creates a new generator using the provided configuration.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate streams the completion for prompt.
func (g *Generator) Generate(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return ai.PullStream(ctx, func(ctx context.Context, emit func(string) error) error {
		g.logger.Debug("streaming completion", "promptLength", len(prompt))
		_, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt,
			llms.WithTemperature(g.temperature),
			llms.WithMaxTokens(g.maxTokens),
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				return emit(string(chunk))
			}),
		)
		if err != nil {
			if !ai.IsCanceled(err) {
				g.logger.Error("completion failed", "err", err)
			}
			return &ai.GenerationError{Backend: g.backend, Err: err}
		}
		return nil
	})
}

// Complete returns the whole completion for prompt.
func (g *Generator) Complete(ctx context.Context, prompt string) (string, error) {
	text, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt,
		llms.WithTemperature(g.temperature),
		llms.WithMaxTokens(g.maxTokens),
	)
	if err != nil {
		g.logger.Error("completion failed", "err", err)
		return "", &ai.GenerationError{Backend: g.backend, Err: err}
	}
	return text, nil
}
