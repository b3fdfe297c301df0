// Package hashing implements an offline ai.Embedder using feature hashing.
//
// Each word is lowercased, stripped of punctuation and a plural "s", and
// hashed with BLAKE2b into one of Dimension buckets with a hash-derived sign.
// The resulting term-frequency vector is normalized to unit length, so cosine
// similarity reflects shared vocabulary. It needs no model server, which
// makes it the default for local runs and tests.
package hashing
