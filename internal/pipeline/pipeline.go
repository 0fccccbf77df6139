// Package pipeline orchestrates the correlation flow: normalize, dedup,
// geocode, persist, flag.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/incident-radar/internal/config"
	"github.com/couchcryptid/incident-radar/internal/dedup"
	"github.com/couchcryptid/incident-radar/internal/domain"
	"github.com/couchcryptid/incident-radar/internal/extract"
	"github.com/couchcryptid/incident-radar/internal/observability"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// EventStore persists finished events, assigning their identifiers.
type EventStore interface {
	InsertEvents(ctx context.Context, events []domain.Event) ([]domain.Event, error)
}

// LocationResolver resolves a location mention through the geocode cache.
type LocationResolver interface {
	Resolve(ctx context.Context, query string) (lat, lon, accuracy *float64, err error)
}

// Deps wires the pipeline's collaborators.
type Deps struct {
	Extractor  BatchExtractor
	Store      EventStore
	Window     *dedup.Window
	Resolver   LocationResolver // nil disables geocoding
	Candidates extract.CandidateExtractor
	Sources    *config.Registry
	Clock      clockwork.Clock // nil for real time
	Logger     *slog.Logger
	Metrics    *observability.Metrics
	BatchSize  int
}

// Pipeline runs the extract-normalize-persist loop.
type Pipeline struct {
	extractor  BatchExtractor
	store      EventStore
	window     *dedup.Window
	resolver   LocationResolver
	candidates extract.CandidateExtractor
	sources    *config.Registry
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
	batchSize  int
}

// New creates a Pipeline from its dependencies.
func New(d Deps) *Pipeline {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Candidates == nil {
		d.Candidates = extract.Noop{}
	}
	return &Pipeline{
		extractor:  d.Extractor,
		store:      d.Store,
		window:     d.Window,
		resolver:   d.Resolver,
		candidates: d.Candidates,
		sources:    d.Sources,
		clock:      d.Clock,
		logger:     d.Logger,
		metrics:    d.Metrics,
		batchSize:  d.BatchSize,
	}
}

// CheckReadiness returns nil once the pipeline has processed at least one
// batch, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any batches yet")
	}
	return nil
}

// Run executes the batch ingest loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-normalize-persist cycle. Returns false if the
// pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.ItemsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	events := make([]domain.Event, 0, len(rawBatch))
	accepted := make([]domain.RawEvent, 0, len(rawBatch))
	for _, raw := range rawBatch {
		event, ok := p.normalize(ctx, raw)
		if !ok {
			// Duplicates and poison pills are done with: commit so they are
			// not redelivered.
			p.commitOffset(ctx, raw)
			continue
		}
		events = append(events, event)
		accepted = append(accepted, raw)
	}

	if len(events) == 0 {
		p.ready.Store(true)
		return true
	}

	persisted, err := p.store.InsertEvents(ctx, events)
	if err != nil {
		p.logger.Error("persist batch failed", "error", err, "batch_size", len(events))
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}
	p.metrics.EventsPersisted.Add(float64(len(persisted)))

	for _, raw := range accepted {
		p.commitOffset(ctx, raw)
	}

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return true
}

// backoffOrStop checks for context cancellation, sleeps with the current
// backoff, and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
