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

package mock

import (
	"sync/atomic"

	"github.com/poiesic/worldsignal/ai"
)

// MockProvider is a test double for ai.AIProvider that records Close.
type MockProvider struct {
	Embedding  *MockEmbedder
	Generation *MockGenerator

	closed atomic.Bool
}

// NewMockProvider creates a provider with a default embedder and a generator
// that answers "ok".
func NewMockProvider() *MockProvider {
	return NewMockProviderWithServices(NewMockEmbedder(), NewMockGenerator("ok"))
}

// NewMockProviderWithServices creates a provider around the given doubles.
func NewMockProviderWithServices(embedder *MockEmbedder, generator *MockGenerator) *MockProvider {
	return &MockProvider{Embedding: embedder, Generation: generator}
}

func (p *MockProvider) Embedder() ai.Embedder   { return p.Embedding }
func (p *MockProvider) Generator() ai.Generator { return p.Generation }

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed.Load()
}
