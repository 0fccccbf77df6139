package domain

import (
	"context"
	"time"
)

// RawItem is the normalized report produced by an external fetcher. Flight
// and sensor feeds usually carry coordinates already; news feeds do not and
// rely on geocoding downstream.
type RawItem struct {
	Source    string   `json:"source"`
	Title     string   `json:"title"`
	Link      string   `json:"link,omitempty"`
	Summary   string   `json:"summary,omitempty"`
	Published string   `json:"published,omitempty"` // free-text or RFC 3339 timestamp
	Lat       *float64 `json:"lat,omitempty"`
	Lon       *float64 `json:"lon,omitempty"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Event is the persisted unit of work. ID is assigned by the store at insert
// time and is monotonically increasing within one store; records are never
// mutated after persistence. Lat/Lon stay nil until geocoded and remain nil
// when resolution fails.
type Event struct {
	ID          int64     `json:"id"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Link        string    `json:"link,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	EventTime   time.Time `json:"event_time"`
	Lat         *float64  `json:"lat,omitempty"`
	Lon         *float64  `json:"lon,omitempty"`
	GeoAccuracy *float64  `json:"geo_accuracy,omitempty"`
	Category    string    `json:"category,omitempty"`
	Fingerprint uint64    `json:"fingerprint"`
}

// HasCoordinates reports whether the event was resolved to a location.
func (e Event) HasCoordinates() bool {
	return e.Lat != nil && e.Lon != nil
}

// FingerprintInput builds the canonical text a report is fingerprinted from.
func FingerprintInput(title, summary string) string {
	return title + "\n" + summary
}

// ZoneReport bundles the two flagging artifacts produced by one pass.
type ZoneReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	WindowHours float64       `json:"window_hours"`
	Zones       []FlaggedZone `json:"zones"`
	RecentZones []FlaggedZone `json:"recent_zones"`
}
