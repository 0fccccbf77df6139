package domain

import (
	"math"
	"sort"
	"time"
)

// RecentZoneAge bounds the earliest contributing event of a zone for
// inclusion in the recent-zones artifact.
const RecentZoneAge = 7 * 24 * time.Hour

// minDistinctSources is the anti-false-positive threshold: a bucket is
// flagged only when strictly more sources than this contribute to it.
const minDistinctSources = 2

// FlaggedZone is a coordinate cell with independent corroboration. Derived on
// every flagging pass, never persisted.
type FlaggedZone struct {
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
	Sources        []string  `json:"sources"` // distinct, sorted
	Count          int       `json:"count"`
	FirstEventTime time.Time `json:"first_event_time"`
}

// bucketKey identifies a ~110 m grid cell by coordinates rounded to 3
// decimals, held as thousandths to keep map keys exact.
type bucketKey struct {
	latE3 int64
	lonE3 int64
}

type bucket struct {
	sources map[string]struct{}
	count   int
	first   time.Time
}

// FlagZones scans the full event set and returns every grid cell where more
// than two distinct sources reported inside the trailing window ending at
// now. Events without coordinates or older than the window are ignored.
// Output order is not defined; callers must not rely on it.
func FlagZones(events []Event, now time.Time, window time.Duration) []FlaggedZone {
	cutoff := now.Add(-window)
	buckets := make(map[bucketKey]*bucket)

	for _, e := range events {
		if !e.HasCoordinates() || e.EventTime.Before(cutoff) {
			continue
		}
		key := bucketKey{latE3: roundE3(*e.Lat), lonE3: roundE3(*e.Lon)}
		b := buckets[key]
		if b == nil {
			b = &bucket{sources: make(map[string]struct{})}
			buckets[key] = b
		}
		b.sources[e.Source] = struct{}{}
		b.count++
		if b.first.IsZero() || e.EventTime.Before(b.first) {
			b.first = e.EventTime
		}
	}

	zones := make([]FlaggedZone, 0, len(buckets))
	for key, b := range buckets {
		if len(b.sources) <= minDistinctSources {
			continue
		}
		sources := make([]string, 0, len(b.sources))
		for s := range b.sources {
			sources = append(sources, s)
		}
		sort.Strings(sources)
		zones = append(zones, FlaggedZone{
			Lat:            float64(key.latE3) / 1000,
			Lon:            float64(key.lonE3) / 1000,
			Sources:        sources,
			Count:          b.count,
			FirstEventTime: b.first,
		})
	}
	return zones
}

// RecentZones narrows flagged zones to those whose earliest contributing
// event is at most RecentZoneAge before now.
func RecentZones(zones []FlaggedZone, now time.Time) []FlaggedZone {
	cutoff := now.Add(-RecentZoneAge)
	recent := make([]FlaggedZone, 0, len(zones))
	for _, z := range zones {
		if z.FirstEventTime.Before(cutoff) {
			continue
		}
		recent = append(recent, z)
	}
	return recent
}

// roundE3 rounds a coordinate to thousandths, half away from zero, matching
// SQL ROUND(x, 3).
func roundE3(v float64) int64 {
	return int64(math.Round(v * 1000))
}
