package sources

import (
	"net/mail"
	"strings"
	"time"
)

// ParseRFC2822 parses an RSS-style date such as "Tue, 10 Jun 2003 04:00:00 GMT".
// Missing or unparseable input yields fallback. The result is UTC.
func ParseRFC2822(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback.UTC()
	}
	t, err := mail.ParseDate(s)
	if err != nil {
		return fallback.UTC()
	}
	return t.UTC()
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseISO8601 parses an ISO 8601 timestamp. A trailing Z means UTC and
// timestamps without an offset are taken as UTC. Missing or unparseable
// input yields fallback. The result is UTC.
func ParseISO8601(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback.UTC()
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return fallback.UTC()
}

// ParseEpoch converts Unix seconds. Zero or negative yields fallback.
func ParseEpoch(sec int64, fallback time.Time) time.Time {
	if sec <= 0 {
		return fallback.UTC()
	}
	return time.Unix(sec, 0).UTC()
}
