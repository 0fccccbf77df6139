package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/incident-radar/internal/domain"
	"github.com/couchcryptid/incident-radar/internal/observability"
)

// EventSnapshot answers "full event set as of now" queries.
type EventSnapshot interface {
	AllEvents(ctx context.Context) ([]domain.Event, error)
}

// ZonePublisher consumes the flagging artifacts.
type ZonePublisher interface {
	PublishZones(ctx context.Context, report domain.ZoneReport) error
}

// Flagger periodically rescans the persisted event set and emits flagged
// zones. It only reads: events are never mutated by a pass, and every pass
// recomputes zones from scratch.
type Flagger struct {
	store     EventSnapshot
	publisher ZonePublisher
	window    time.Duration
	interval  time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewFlagger creates a Flagger. Pass a nil clock for real time.
func NewFlagger(store EventSnapshot, publisher ZonePublisher, window, interval time.Duration,
	clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Flagger {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Flagger{
		store:     store,
		publisher: publisher,
		window:    window,
		interval:  interval,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes a pass immediately, then on every interval tick until the
// context is cancelled. A failed pass is logged and retried on the next tick,
// never fatal.
func (f *Flagger) Run(ctx context.Context) error {
	f.logger.Info("flagger started", "window", f.window, "interval", f.interval)

	if _, err := f.RunOnce(ctx); err != nil && ctx.Err() == nil {
		f.logger.Error("flagging pass failed", "error", err)
	}

	ticker := f.clock.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("flagger stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			if _, err := f.RunOnce(ctx); err != nil && ctx.Err() == nil {
				f.logger.Error("flagging pass failed", "error", err)
			}
		}
	}
}

// RunOnce takes a snapshot of the event store, computes both artifacts, and
// publishes them.
func (f *Flagger) RunOnce(ctx context.Context) (domain.ZoneReport, error) {
	start := time.Now()
	now := f.clock.Now().UTC()

	events, err := f.store.AllEvents(ctx)
	if err != nil {
		return domain.ZoneReport{}, err
	}

	zones := domain.FlagZones(events, now, f.window)
	report := domain.ZoneReport{
		GeneratedAt: now,
		WindowHours: f.window.Hours(),
		Zones:       zones,
		RecentZones: domain.RecentZones(zones, now),
	}

	if f.publisher != nil {
		if err := f.publisher.PublishZones(ctx, report); err != nil {
			return domain.ZoneReport{}, err
		}
	}

	f.metrics.FlagPasses.Inc()
	f.metrics.FlaggedZones.Set(float64(len(report.Zones)))
	f.metrics.RecentZones.Set(float64(len(report.RecentZones)))
	f.metrics.FlagPassDuration.Observe(time.Since(start).Seconds())

	f.logger.Info("flagging pass complete",
		"events", len(events),
		"zones", len(report.Zones),
		"recent_zones", len(report.RecentZones),
	)
	return report, nil
}
