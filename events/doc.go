// Package events publishes notifications about ingested articles so other
// systems can react to new content without polling the stores.
//
// Publishing is best effort: the ingestion pipeline logs publish failures and
// carries on, since the article and its vectors are already stored.
package events
