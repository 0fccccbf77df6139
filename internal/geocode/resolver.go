// Package geocode implements the durable look-aside cache in front of the
// external geocoding capability.
package geocode

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/incident-radar/internal/domain"
	"github.com/couchcryptid/incident-radar/internal/observability"
	"github.com/couchcryptid/incident-radar/internal/storage"
)

// CacheStore is the durable key-value mapping behind the resolver, keyed by
// exact query text.
type CacheStore interface {
	GetGeocache(ctx context.Context, query string) (*storage.GeocacheEntry, error)
	PutGeocache(ctx context.Context, e storage.GeocacheEntry) error
}

// Resolver answers location queries cache-first. A miss invokes the external
// geocoder exactly once and records the outcome — including "not found", so a
// query that failed once never hits the external service again. The
// minimum-interval throttle is process-wide: one outstanding external call at
// a time, spaced at least minInterval apart.
type Resolver struct {
	store       CacheStore
	geocoder    domain.Geocoder
	minInterval time.Duration
	clock       clockwork.Clock
	metrics     *observability.Metrics
	logger      *slog.Logger

	mu       sync.Mutex // serializes external calls; guards lastCall
	lastCall time.Time
}

// NewResolver builds a Resolver. Pass a nil clock for real time.
func NewResolver(store CacheStore, geocoder domain.Geocoder, minInterval time.Duration,
	clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Resolver {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Resolver{
		store:       store,
		geocoder:    geocoder,
		minInterval: minInterval,
		clock:       clock,
		metrics:     metrics,
		logger:      logger,
	}
}

// Resolve returns coordinates and an accuracy score for query, all nil when
// the location is unknown. External failures degrade to nil results; the only
// error surfaced is a cache read/write failure.
func (r *Resolver) Resolve(ctx context.Context, query string) (lat, lon, accuracy *float64, err error) {
	if query == "" {
		return nil, nil, nil, nil
	}

	entry, err := r.store.GetGeocache(ctx, query)
	if err != nil {
		return nil, nil, nil, err
	}
	if entry != nil {
		r.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return entry.Lat, entry.Lon, entry.Accuracy, nil
	}
	r.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result := r.lookup(ctx, query)

	entry = &storage.GeocacheEntry{Query: query, ResolvedAt: r.clock.Now().UTC()}
	if result.Found {
		entry.Lat = &result.Lat
		entry.Lon = &result.Lon
		entry.Accuracy = &result.Accuracy
	}
	if err := r.store.PutGeocache(ctx, *entry); err != nil {
		return nil, nil, nil, err
	}
	return entry.Lat, entry.Lon, entry.Accuracy, nil
}

// lookup performs the throttled external call. Any provider error is treated
// the same as "not found".
func (r *Resolver) lookup(ctx context.Context, query string) domain.GeocodeResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if wait := r.minInterval - r.clock.Since(r.lastCall); wait > 0 && !r.lastCall.IsZero() {
		r.clock.Sleep(wait)
	}

	start := r.clock.Now()
	result, err := r.geocoder.Geocode(ctx, query)
	r.lastCall = r.clock.Now()
	r.metrics.GeocodeAPIDuration.Observe(r.lastCall.Sub(start).Seconds())

	switch {
	case err != nil:
		r.logger.Warn("geocode lookup failed", "query", query, "error", err)
		r.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodeResult{}
	case !result.Found:
		r.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return domain.GeocodeResult{}
	default:
		r.metrics.GeocodeRequests.WithLabelValues("success").Inc()
		return result
	}
}
