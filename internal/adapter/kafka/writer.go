package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/incident-radar/internal/config"
	"github.com/couchcryptid/incident-radar/internal/domain"
)

// Artifact names carried in the message key and header.
const (
	ArtifactWindow = "flagged_zones"
	ArtifactRecent = "flagged_zones_last_7_days"
)

// Writer publishes flagging artifacts to the zones topic.
// It implements pipeline.ZonePublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured zones topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaZonesTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishZones writes one message per artifact: the full in-window zone set
// and the last-7-days subset. Consumers pick an artifact by key or header.
func (w *Writer) PublishZones(ctx context.Context, report domain.ZoneReport) error {
	full, err := serializeArtifact(ArtifactWindow, report, report.Zones)
	if err != nil {
		return err
	}
	recent, err := serializeArtifact(ArtifactRecent, report, report.RecentZones)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, full, recent)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// artifactPayload is the wire form of one flagging artifact.
type artifactPayload struct {
	Artifact    string               `json:"artifact"`
	GeneratedAt time.Time            `json:"generated_at"`
	WindowHours float64              `json:"window_hours"`
	Zones       []domain.FlaggedZone `json:"zones"`
}

func serializeArtifact(name string, report domain.ZoneReport, zones []domain.FlaggedZone) (kafkago.Message, error) {
	data, err := json.Marshal(artifactPayload{
		Artifact:    name,
		GeneratedAt: report.GeneratedAt,
		WindowHours: report.WindowHours,
		Zones:       zones,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s artifact: %w", name, err)
	}
	return kafkago.Message{
		Key:   []byte(name),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "artifact", Value: []byte(name)},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
