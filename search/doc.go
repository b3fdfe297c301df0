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

// Package search retrieves the news chunks most relevant to a question.
//
// The Searcher embeds the query as a single-element batch and asks the
// vector index for the nearest chunks, optionally restricted to one
// category. Hits scoring below the similarity floor are discarded as
// irrelevant. Results are ordered by descending score.
//
// A RetrievalMonitor can observe each stage of a retrieval.
package search
