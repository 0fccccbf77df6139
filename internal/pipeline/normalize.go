package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/couchcryptid/incident-radar/internal/config"
	"github.com/couchcryptid/incident-radar/internal/domain"
)

// normalize turns one raw message into a persistable event. It returns
// ok=false for messages the batch is done with: malformed payloads and
// near-duplicates. External failures (geocoding) degrade fields instead of
// dropping the record.
func (p *Pipeline) normalize(ctx context.Context, raw domain.RawEvent) (domain.Event, bool) {
	var item domain.RawItem
	if err := json.Unmarshal(raw.Value, &item); err != nil {
		p.logger.Warn("malformed item, skipping message",
			"error", err,
			"topic", raw.Topic,
			"partition", raw.Partition,
			"offset", raw.Offset,
		)
		p.metrics.DecodeErrors.Inc()
		return domain.Event{}, false
	}
	if item.Source == "" {
		p.logger.Warn("item without source id, skipping message",
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
		p.metrics.DecodeErrors.Inc()
		return domain.Event{}, false
	}

	// Fingerprint is derived once from the immutable input text.
	fingerprint := domain.Fingerprint(domain.FingerprintInput(item.Title, item.Summary))
	if p.window.CheckAndRecord(fingerprint) {
		p.logger.Debug("duplicate suppressed", "source", item.Source, "title", item.Title)
		p.metrics.DuplicatesSuppressed.Inc()
		return domain.Event{}, false
	}

	event := domain.Event{
		Source:      item.Source,
		Title:       item.Title,
		Link:        item.Link,
		Summary:     item.Summary,
		EventTime:   domain.ResolveEventTime(item.Published, p.eventTimeFallback(raw)),
		Category:    p.categorize(item),
		Fingerprint: fingerprint,
	}

	p.locate(ctx, &event, item)
	return event, true
}

// eventTimeFallback prefers the broker timestamp the fetcher stamped on the
// message, then the current time.
func (p *Pipeline) eventTimeFallback(raw domain.RawEvent) time.Time {
	if !raw.Timestamp.IsZero() {
		return raw.Timestamp
	}
	return p.clock.Now()
}

// categorize applies keyword classification to news text; flight and permit
// payloads carry no prose, so their declared kind is the category.
func (p *Pipeline) categorize(item domain.RawItem) string {
	kind := config.KindNews
	if p.sources != nil {
		kind = p.sources.Kind(item.Source)
	}
	if kind != config.KindNews {
		return kind
	}
	return domain.Classify(domain.FingerprintInput(item.Title, item.Summary))
}

// locate fills in coordinates: fetcher-supplied values win, otherwise the
// highest-confidence location candidate goes through the geocode resolver.
// Any failure leaves the event without coordinates; it is persisted anyway.
func (p *Pipeline) locate(ctx context.Context, event *domain.Event, item domain.RawItem) {
	if item.Lat != nil && item.Lon != nil {
		event.Lat = item.Lat
		event.Lon = item.Lon
		return
	}
	if p.resolver == nil {
		return
	}

	candidates := p.candidates.Candidates(item.Title, item.Summary)
	if len(candidates) == 0 {
		return
	}

	lat, lon, accuracy, err := p.resolver.Resolve(ctx, candidates[0])
	if err != nil {
		p.logger.Warn("location resolution failed",
			"source", item.Source, "query", candidates[0], "error", err)
		return
	}
	event.Lat = lat
	event.Lon = lon
	event.GeoAccuracy = accuracy
}
