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

// Package openai provides AI service implementations using OpenAI-compatible APIs.
//
// It uses the langchaingo library to talk to OpenAI or any compatible server
// (Ollama's /v1 endpoint, LocalAI, vLLM) and to Gemini through Google's
// OpenAI-compatible endpoint.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithEmbeddingBackend(ai.BackendOpenAI),
//	    ai.WithHost("http://localhost:11434"), // /v1 added automatically
//	    ai.WithEmbeddingModel("all-minilm"),
//	)
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "markets rally")
//	for fragment, err := range provider.Generator().Generate(ctx, prompt) {
//	    ...
//	}
package openai
