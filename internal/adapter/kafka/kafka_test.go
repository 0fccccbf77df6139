package kafka

import (
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/incident-radar/internal/domain"
)

func TestMapMessage(t *testing.T) {
	r := &Reader{}
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	raw := r.mapMessage(kafkago.Message{
		Key:       []byte("city-crime-rss"),
		Value:     []byte(`{"source":"city-crime-rss"}`),
		Topic:     "raw-incident-reports",
		Partition: 2,
		Offset:    41,
		Time:      at,
		Headers: []kafkago.Header{
			{Key: "fetcher", Value: []byte("rss-poller")},
		},
	})

	assert.Equal(t, []byte("city-crime-rss"), raw.Key)
	assert.Equal(t, []byte(`{"source":"city-crime-rss"}`), raw.Value)
	assert.Equal(t, "raw-incident-reports", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(41), raw.Offset)
	assert.True(t, raw.Timestamp.Equal(at))
	assert.Equal(t, map[string]string{"fetcher": "rss-poller"}, raw.Headers)
	assert.NotNil(t, raw.Commit)
}

func TestSerializeArtifact(t *testing.T) {
	generatedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	report := domain.ZoneReport{
		GeneratedAt: generatedAt,
		WindowHours: 48,
	}
	zones := []domain.FlaggedZone{{
		Lat:            40.0,
		Lon:            -74.0,
		Sources:        []string{"rss-a", "rss-b", "rss-c"},
		Count:          5,
		FirstEventTime: generatedAt.Add(-3 * time.Hour),
	}}

	msg, err := serializeArtifact(ArtifactWindow, report, zones)
	require.NoError(t, err)

	assert.Equal(t, []byte(ArtifactWindow), msg.Key)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, ArtifactWindow, headers["artifact"])
	assert.Equal(t, "2026-03-01T12:00:00Z", headers["generated_at"])

	var payload artifactPayload
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, ArtifactWindow, payload.Artifact)
	assert.True(t, payload.GeneratedAt.Equal(generatedAt))
	assert.Equal(t, 48.0, payload.WindowHours)
	require.Len(t, payload.Zones, 1)
	assert.Equal(t, []string{"rss-a", "rss-b", "rss-c"}, payload.Zones[0].Sources)
}

func TestSerializeArtifact_RecentSubsetKeepsOwnName(t *testing.T) {
	report := domain.ZoneReport{GeneratedAt: time.Now().UTC(), WindowHours: 48}

	msg, err := serializeArtifact(ArtifactRecent, report, nil)
	require.NoError(t, err)

	assert.Equal(t, []byte(ArtifactRecent), msg.Key)

	var payload artifactPayload
	require.NoError(t, json.Unmarshal(msg.Value, &payload))
	assert.Equal(t, ArtifactRecent, payload.Artifact)
	assert.Empty(t, payload.Zones)
}
