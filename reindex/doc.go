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

// Package reindex rebuilds the vector collection from the article store.
//
// Use it after changing the embedding model or dimension, or to repair
// articles that were stored but never indexed. The collection is dropped and
// recreated, then every stored article is chunked, embedded and upserted
// again in ID order. Embedding calls are retried with exponential backoff;
// an article that still fails is counted and skipped.
package reindex
