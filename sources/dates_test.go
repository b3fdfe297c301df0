package sources

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var fallback = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

func TestParseRFC2822(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{"gmt", "Tue, 10 Jun 2003 04:00:00 GMT", time.Date(2003, 6, 10, 4, 0, 0, 0, time.UTC)},
		{"numeric offset", "Wed, 01 May 2024 08:30:00 -0400", time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)},
		{"empty", "", fallback},
		{"garbage", "yesterday-ish", fallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRFC2822(tt.input, fallback)
			assert.True(t, tt.expected.Equal(got), "got %v", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseISO8601(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{"zulu", "2024-05-01T12:00:00Z", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		{"offset", "2024-05-01T08:00:00-04:00", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		{"fractional", "2024-05-01T12:00:00.123Z", time.Date(2024, 5, 1, 12, 0, 0, 123000000, time.UTC)},
		{"naive is utc", "2024-05-01T12:00:00", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		{"date only", "2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"empty", "", fallback},
		{"garbage", "05/01/2024", fallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseISO8601(tt.input, fallback)
			assert.True(t, tt.expected.Equal(got), "got %v", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseEpoch(t *testing.T) {
	assert.True(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).Equal(ParseEpoch(1714564800, fallback)))
	assert.Equal(t, fallback, ParseEpoch(0, fallback))
	assert.Equal(t, fallback, ParseEpoch(-5, fallback))
}
