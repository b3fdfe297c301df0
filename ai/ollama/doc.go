// Package ollama provides AI service implementations on the native Ollama API.
//
// Embeddings use the batch /api/embed endpoint; generation streams
// /api/generate and is exposed as a pull sequence through ai.PullStream.
package ollama
