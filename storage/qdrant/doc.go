// Package qdrant implements storage.VectorIndex on a Qdrant server over gRPC.
//
// Points are keyed by UUID and carry the chunk payload as top-level fields
// (source_id, category, timestamp, content_chunk, title, url). A keyword
// payload index on category backs filtered search.
package qdrant
