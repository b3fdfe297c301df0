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

// Package storage provides the storage abstraction layer for worldsignal.
//
// Two stores back the system:
//
//   - ArticleStore: the relational record of every ingested article, keyed
//     by a unique URL (storage/sqlite)
//   - VectorIndex: chunk vectors with their payloads, searchable by cosine
//     similarity with a category filter (storage/qdrant, storage/badger)
//
// ChatHistory is an optional third store for chat sessions, also served by
// storage/sqlite.
//
// The vector index never looks at the article store. A chunk payload carries
// the article ID by value.
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access from
// multiple goroutines, including concurrent ingestion runs.
//
// # Context Support
//
// All methods accept context.Context for cancellation and timeout support.
package storage
