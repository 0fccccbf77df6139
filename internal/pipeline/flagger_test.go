package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/incident-radar/internal/domain"
	"github.com/couchcryptid/incident-radar/internal/observability"
)

type mockSnapshot struct {
	events []domain.Event
	err    error
}

func (m *mockSnapshot) AllEvents(context.Context) ([]domain.Event, error) {
	return m.events, m.err
}

type mockPublisher struct {
	mu      sync.Mutex
	reports []domain.ZoneReport
	err     error
	done    chan struct{}
}

func (m *mockPublisher) PublishZones(_ context.Context, report domain.ZoneReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.reports = append(m.reports, report)
	if m.done != nil {
		m.done <- struct{}{}
	}
	return nil
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reports)
}

func zoneEvent(source string, lat, lon float64, at time.Time) domain.Event {
	return domain.Event{Source: source, Lat: &lat, Lon: &lon, EventTime: at}
}

func newTestFlagger(snapshot EventSnapshot, publisher ZonePublisher, clock clockwork.Clock) *Flagger {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewFlagger(snapshot, publisher, 48*time.Hour, 10*time.Minute,
		clock, logger, observability.NewMetricsForTesting())
}

func TestRunOnce_PublishesBothArtifacts(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	now := clock.Now()

	snapshot := &mockSnapshot{events: []domain.Event{
		zoneEvent("rss-a", 40.0001, -73.9999, now.Add(-time.Hour)),
		zoneEvent("rss-b", 40.0004, -74.0004, now.Add(-2*time.Hour)),
		zoneEvent("rss-c", 39.9996, -73.9996, now.Add(-3*time.Hour)),
	}}
	publisher := &mockPublisher{}
	f := newTestFlagger(snapshot, publisher, clock)

	report, err := f.RunOnce(context.Background())
	require.NoError(t, err)

	assert.True(t, report.GeneratedAt.Equal(now))
	assert.Equal(t, 48.0, report.WindowHours)
	require.Len(t, report.Zones, 1, "three sources in one cell cross the threshold")
	assert.ElementsMatch(t, []string{"rss-a", "rss-b", "rss-c"}, report.Zones[0].Sources)
	assert.Len(t, report.RecentZones, 1, "zone first seen hours ago is recent")

	require.Equal(t, 1, publisher.count())
	assert.Len(t, publisher.reports[0].Zones, 1)
}

func TestRunOnce_EmptyStore(t *testing.T) {
	publisher := &mockPublisher{}
	f := newTestFlagger(&mockSnapshot{}, publisher, clockwork.NewFakeClock())

	report, err := f.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Zones)
	assert.Empty(t, report.RecentZones)
	assert.Equal(t, 1, publisher.count(), "an empty report is still published")
}

func TestRunOnce_SnapshotErrorPropagates(t *testing.T) {
	snapshot := &mockSnapshot{err: errors.New("db locked")}
	f := newTestFlagger(snapshot, &mockPublisher{}, clockwork.NewFakeClock())

	_, err := f.RunOnce(context.Background())
	require.Error(t, err)
}

func TestRunOnce_PublishErrorPropagates(t *testing.T) {
	publisher := &mockPublisher{err: errors.New("broker down")}
	f := newTestFlagger(&mockSnapshot{}, publisher, clockwork.NewFakeClock())

	_, err := f.RunOnce(context.Background())
	require.Error(t, err)
}

func TestRunOnce_NilPublisher(t *testing.T) {
	f := newTestFlagger(&mockSnapshot{}, nil, clockwork.NewFakeClock())

	_, err := f.RunOnce(context.Background())
	require.NoError(t, err)
}

func TestRun_PassesOnStartAndEveryTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	publisher := &mockPublisher{done: make(chan struct{}, 4)}
	f := newTestFlagger(&mockSnapshot{}, publisher, clock)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- f.Run(ctx) }()

	<-publisher.done // immediate pass on startup
	clock.BlockUntil(1)

	clock.Advance(10 * time.Minute)
	<-publisher.done

	cancel()
	require.NoError(t, <-errCh)
	assert.Equal(t, 2, publisher.count())
}
