// Package chunk splits article text into overlapping fixed-size windows
// sized for embedding-model input limits.
//
// Sizes are measured in characters (runes), so multi-byte text is never cut
// inside a code point. Consecutive chunks share exactly the configured overlap,
// which keeps a phrase that straddles a boundary intact in at least one chunk.
//
//	c, err := chunk.New(chunk.WithSize(800), chunk.WithOverlap(100))
//	for part := range c.Chunks(article.Content) {
//	    ...
//	}
package chunk
