package domain

import (
	"strings"
	"time"
)

// eventTimeLayouts covers the timestamp shapes fetchers actually emit: RFC
// 3339 from JSON feeds, RFC 1123 variants from RSS pubDate, and a couple of
// bare date forms from permit records.
var eventTimeLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ResolveEventTime parses a published timestamp, returning fallback (in
// practice the current time) when the value is empty or unparseable. It never
// fails: a report with a garbled date is persisted with a degraded time, not
// dropped.
func ResolveEventTime(published string, fallback time.Time) time.Time {
	published = strings.TrimSpace(published)
	if published == "" {
		return fallback.UTC()
	}
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, published); err == nil {
			return t.UTC()
		}
	}
	return fallback.UTC()
}
