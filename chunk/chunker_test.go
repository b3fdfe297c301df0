package chunk

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reconstruct joins chunks back together, dropping the shared overlap.
func reconstruct(chunks []string, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c)
			continue
		}
		b.WriteString(string([]rune(c)[overlap:]))
	}
	return b.String()
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)
		assert.Equal(t, DefaultSize, c.Size())
		assert.Equal(t, DefaultOverlap, c.Overlap())
	})

	t.Run("custom settings", func(t *testing.T) {
		c, err := New(WithSize(50), WithOverlap(0))
		require.NoError(t, err)
		assert.Equal(t, 50, c.Size())
		assert.Equal(t, 0, c.Overlap())
	})

	t.Run("zero size", func(t *testing.T) {
		_, err := New(WithSize(0), WithOverlap(0))
		assert.ErrorIs(t, err, ErrInvalidSize)
	})

	t.Run("overlap equal to size", func(t *testing.T) {
		_, err := New(WithSize(100), WithOverlap(100))
		assert.ErrorIs(t, err, ErrInvalidOverlap)
	})

	t.Run("negative overlap", func(t *testing.T) {
		_, err := New(WithOverlap(-1))
		assert.ErrorIs(t, err, ErrInvalidOverlap)
	})
}

func TestSplit_EmptyText(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	assert.Empty(t, c.Split(""))
	for range c.Chunks("") {
		t.Fatal("empty text must not yield chunks")
	}
}

func TestSplit_ShortText(t *testing.T) {
	c, err := New(WithSize(800), WithOverlap(100))
	require.NoError(t, err)

	chunks := c.Split("Stocks rallied on Tuesday.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Stocks rallied on Tuesday.", chunks[0])
}

func TestSplit_ArticleWindows(t *testing.T) {
	c, err := New(WithSize(800), WithOverlap(100))
	require.NoError(t, err)

	text := strings.Repeat("abcdefghij", 200) // 2000 characters
	chunks := c.Split(text)

	require.Len(t, chunks, 3)
	assert.Equal(t, text[0:800], chunks[0])
	assert.Equal(t, text[700:1500], chunks[1])
	assert.Equal(t, text[1400:2000], chunks[2])
}

func TestSplit_NoContainedTrailingWindow(t *testing.T) {
	c, err := New(WithSize(800), WithOverlap(100))
	require.NoError(t, err)

	// The second window ends exactly at the end of the text.
	chunks := c.Split(strings.Repeat("x", 1500))
	assert.Len(t, chunks, 2)
}

func TestSplit_Coverage(t *testing.T) {
	cases := []struct {
		size, overlap, length int
	}{
		{10, 3, 0},
		{10, 3, 1},
		{10, 3, 10},
		{10, 3, 11},
		{10, 3, 97},
		{10, 0, 55},
		{7, 6, 40},
		{800, 100, 2000},
		{800, 100, 2345},
	}

	for _, tc := range cases {
		c, err := New(WithSize(tc.size), WithOverlap(tc.overlap))
		require.NoError(t, err)

		var b strings.Builder
		for i := 0; i < tc.length; i++ {
			b.WriteByte(byte('a' + i%26))
		}
		text := b.String()

		chunks := c.Split(text)
		if tc.length == 0 {
			assert.Empty(t, chunks)
			continue
		}
		for i, ch := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(ch), tc.size, "chunk %d too large", i)
		}
		assert.Equal(t, text, reconstruct(chunks, tc.overlap),
			"size=%d overlap=%d length=%d", tc.size, tc.overlap, tc.length)
	}
}

func TestSplit_MultiByteText(t *testing.T) {
	c, err := New(WithSize(4), WithOverlap(1))
	require.NoError(t, err)

	text := "日本語のニュース記事"
	chunks := c.Split(text)

	for _, ch := range chunks {
		assert.True(t, utf8.ValidString(ch))
		assert.LessOrEqual(t, utf8.RuneCountInString(ch), 4)
	}
	assert.Equal(t, text, reconstruct(chunks, 1))
}

func TestChunks_Restartable(t *testing.T) {
	c, err := New(WithSize(5), WithOverlap(2))
	require.NoError(t, err)

	seq := c.Chunks("the quick brown fox")
	var first, second []string
	for s := range seq {
		first = append(first, s)
	}
	for s := range seq {
		second = append(second, s)
	}
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestChunks_EarlyStop(t *testing.T) {
	c, err := New(WithSize(5), WithOverlap(2))
	require.NoError(t, err)

	count := 0
	for range c.Chunks(strings.Repeat("y", 100)) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}
