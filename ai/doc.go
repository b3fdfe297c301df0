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

// Package ai provides abstractions for the AI services used by worldsignal.
//
// Two capabilities are modelled:
//
//   - Embedder: maps text to fixed-dimension vectors
//   - Generator: streams generated text for a prompt
//
// AIProvider bundles one of each with a shared lifecycle.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible servers (OpenAI, vLLM, Ollama's /v1, Gemini's OpenAI endpoint)
//   - ai/ollama: the native Ollama API
//   - ai/hashing: an offline feature-hashing embedder with no external service
//   - ai/mock: test doubles
//
// The backend is chosen once at startup from Config; call sites only see the
// interfaces.
//
// # Streaming
//
// Generator.Generate returns an iter.Seq2. Backends that deliver fragments
// through a callback are adapted with PullStream, which runs the call on a
// goroutine and stops it when the consumer stops ranging:
//
//	for fragment, err := range gen.Generate(ctx, prompt) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(fragment)
//	}
//
// # Errors
//
// Backend failures are wrapped in *EmbeddingError and *GenerationError, which
// match ErrEmbedding and ErrGeneration with errors.Is. Callers do not retry.
package ai
