package ollama

import (
	"context"
	"iter"
	"log/slog"

	"github.com/ollama/ollama/api"
	"github.com/poiesic/worldsignal/ai"
)

// Generator implements ai.Generator with Ollama's /api/generate endpoint.
type Generator struct {
	client  *api.Client
	model   string
	options map[string]any
	logger  *slog.Logger
}

func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newClient(config.GenerationHost)
	if err != nil {
		return nil, err
	}
	return &Generator{
		client: client,
		model:  config.GenerationModel,
		options: map[string]any{
			"temperature": config.Temperature,
			"num_predict": config.MaxTokens,
		},
		logger: slog.Default().With("component", "ollama-generator"),
	}, nil
}

// NewGenerator creates an Ollama generator.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate streams the completion for prompt.
func (g *Generator) Generate(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return ai.PullStream(ctx, func(ctx context.Context, emit func(string) error) error {
		return g.run(ctx, prompt, true, func(resp api.GenerateResponse) error {
			return emit(resp.Response)
		})
	})
}

// Complete returns the whole completion for prompt.
func (g *Generator) Complete(ctx context.Context, prompt string) (string, error) {
	var text string
	err := g.run(ctx, prompt, false, func(resp api.GenerateResponse) error {
		text += resp.Response
		return nil
	})
	return text, err
}

func (g *Generator) run(ctx context.Context, prompt string, stream bool, fn api.GenerateResponseFunc) error {
	req := &api.GenerateRequest{
		Model:   g.model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: g.options,
	}
	if err := g.client.Generate(ctx, req, fn); err != nil {
		if !ai.IsCanceled(err) {
			g.logger.Error("generation failed", "err", err)
		}
		return &ai.GenerationError{Backend: ai.BackendOllama, Err: err}
	}
	return nil
}
