// Package ingestion turns fetched news into stored articles and searchable
// chunk vectors.
//
// A Pipeline run fetches every source concurrently on a worker pool. Articles
// from one source are processed in fetch order, each through the same steps:
//   - skip when the URL is already stored
//   - insert the article (a lost insert race is a skip, not a failure)
//   - chunk the content, skipping articles with nothing to embed
//   - embed all chunks in one call
//   - upsert one vector and payload per chunk
//
// Failures are isolated per source and per article and recorded in the
// Report. Only configuration errors, such as a vector dimension that does not
// match the collection, abort a run.
package ingestion
