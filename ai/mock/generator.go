package mock

import (
	"context"
	"iter"
	"sync"

	"github.com/poiesic/worldsignal/ai"
)

// MockGenerator is a test double for ai.Generator.
type MockGenerator struct {
	// Tokens are streamed in order by the default behavior.
	Tokens []string

	// Err, if set, is yielded after the tokens.
	Err error

	// GenerateFunc replaces the default behavior if set.
	GenerateFunc func(ctx context.Context, prompt string) iter.Seq2[string, error]

	mu      sync.Mutex
	prompts []string
}

// NewMockGenerator creates a generator that streams tokens.
func NewMockGenerator(tokens ...string) *MockGenerator {
	return &MockGenerator{Tokens: tokens}
}

// Generate records the prompt and streams the configured tokens.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) iter.Seq2[string, error] {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return ai.PullStream(ctx, func(ctx context.Context, emit func(string) error) error {
		for _, token := range m.Tokens {
			if err := emit(token); err != nil {
				return err
			}
		}
		return m.Err
	})
}

// Complete returns the concatenated tokens.
func (m *MockGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	return ai.Collect(m.Generate(ctx, prompt))
}

// Prompts returns every prompt received so far.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
