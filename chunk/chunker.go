package chunk

import (
	"fmt"
	"iter"
	"unicode/utf8"
)

const (
	// DefaultSize is the default number of characters per chunk.
	DefaultSize = 800

	// DefaultOverlap is the default number of characters shared by consecutive chunks.
	DefaultOverlap = 100
)

// Chunker splits text into overlapping fixed-size windows.
// A Chunker is immutable and safe for concurrent use.
type Chunker struct {
	size    int
	overlap int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithSize sets the chunk size in characters.
func WithSize(size int) Option {
	return func(c *Chunker) {
		c.size = size
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a Chunker. Invalid settings are rejected rather than corrected.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		size:    DefaultSize,
		overlap: DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, c.size)
	}
	if c.overlap < 0 || c.overlap >= c.size {
		return nil, fmt.Errorf("%w: size %d, overlap %d", ErrInvalidOverlap, c.size, c.overlap)
	}
	return c, nil
}

// Size returns the configured chunk size.
func (c *Chunker) Size() int {
	return c.size
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Chunks returns the chunks of text in order. The sequence can be ranged
// over any number of times. Empty text yields nothing.
func (c *Chunker) Chunks(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if text == "" {
			return
		}

		// offsets[i] is the byte offset of rune i; the final entry is len(text).
		offsets := make([]int, 0, utf8.RuneCountInString(text)+1)
		for i := range text {
			offsets = append(offsets, i)
		}
		runes := len(offsets)
		offsets = append(offsets, len(text))

		step := c.size - c.overlap
		for start := 0; start < runes; start += step {
			end := min(start+c.size, runes)
			if !yield(text[offsets[start]:offsets[end]]) {
				return
			}
			// The window reached the end of the text; another one would be
			// contained in this one.
			if end == runes {
				return
			}
		}
	}
}

// Split returns all chunks of text. Empty text yields a nil slice.
func (c *Chunker) Split(text string) []string {
	var chunks []string
	for part := range c.Chunks(text) {
		chunks = append(chunks, part)
	}
	return chunks
}
