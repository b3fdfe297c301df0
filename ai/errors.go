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
)

var (
	// ErrEmbedding matches every *EmbeddingError.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration matches every *GenerationError.
	ErrGeneration = errors.New("generation failed")

	// ErrUnknownBackend is returned for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrEmbeddingCount is returned when a backend answers with the wrong number of vectors.
	ErrEmbeddingCount = errors.New("embedding count mismatch")
)

// EmbeddingError wraps a failure of an embedding backend.
type EmbeddingError struct {
	Backend string
	Err     error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("%s embedding: %v", e.Backend, e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

func (e *EmbeddingError) Is(target error) bool {
	return target == ErrEmbedding
}

// GenerationError wraps a failure of a generation backend.
type GenerationError struct {
	Backend string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation: %v", e.Backend, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func (e *GenerationError) Is(target error) bool {
	return target == ErrGeneration
}
