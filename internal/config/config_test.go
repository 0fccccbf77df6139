package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "raw-incident-reports", cfg.KafkaSourceTopic)
	assert.Equal(t, "flagged-zones", cfg.KafkaZonesTopic)
	assert.Equal(t, "incident-radar", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, "data/radar.db", cfg.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.DedupHorizon)
	assert.Equal(t, 48*time.Hour, cfg.TemporalWindow)
	assert.Equal(t, 10*time.Minute, cfg.FlagInterval)
	assert.True(t, cfg.GeocoderEnabled)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.GeocoderBaseURL)
	assert.Equal(t, "incident-radar", cfg.GeocoderUserAgent)
	assert.Equal(t, 10*time.Second, cfg.GeocoderTimeout)
	assert.Equal(t, time.Second, cfg.GeocoderMinInterval)
	assert.Empty(t, cfg.SourcesFile)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_ZONES_TOPIC", "custom-zones")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("DB_PATH", "/var/lib/radar/events.db")
	t.Setenv("DEDUP_WINDOW", "12h")
	t.Setenv("TEMPORAL_WINDOW", "72h")
	t.Setenv("FLAG_INTERVAL", "5m")
	t.Setenv("GEOCODER_URL", "http://nominatim.local")
	t.Setenv("GEOCODER_USER_AGENT", "radar-staging")
	t.Setenv("GEOCODER_TIMEOUT", "5s")
	t.Setenv("GEOCODER_MIN_INTERVAL", "2s")
	t.Setenv("SOURCES_FILE", "sources.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-zones", cfg.KafkaZonesTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, "/var/lib/radar/events.db", cfg.DBPath)
	assert.Equal(t, 12*time.Hour, cfg.DedupHorizon)
	assert.Equal(t, 72*time.Hour, cfg.TemporalWindow)
	assert.Equal(t, 5*time.Minute, cfg.FlagInterval)
	assert.Equal(t, "http://nominatim.local", cfg.GeocoderBaseURL)
	assert.Equal(t, "radar-staging", cfg.GeocoderUserAgent)
	assert.Equal(t, 5*time.Second, cfg.GeocoderTimeout)
	assert.Equal(t, 2*time.Second, cfg.GeocoderMinInterval)
	assert.Equal(t, "sources.yaml", cfg.SourcesFile)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeDedupWindow(t *testing.T) {
	t.Setenv("DEDUP_WINDOW", "-1h")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEDUP_WINDOW")
}

func TestLoad_InvalidTemporalWindow(t *testing.T) {
	t.Setenv("TEMPORAL_WINDOW", "0s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEMPORAL_WINDOW")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_BatchSizeTooLarge(t *testing.T) {
	t.Setenv("BATCH_SIZE", "9999")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_ZeroMinIntervalAllowed(t *testing.T) {
	t.Setenv("GEOCODER_MIN_INTERVAL", "0s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.GeocoderMinInterval)
}

func TestLoad_GeocoderDisabled(t *testing.T) {
	t.Setenv("GEOCODER_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.GeocoderEnabled)
}

func TestLoad_GeocoderEnabledAcceptsBoolSpellings(t *testing.T) {
	for _, tc := range []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"TRUE", true},
		{"True", true},
		{"0", false},
		{"FALSE", false},
	} {
		t.Run(tc.value, func(t *testing.T) {
			t.Setenv("GEOCODER_ENABLED", tc.value)
			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.GeocoderEnabled)
		})
	}
}

func TestLoad_InvalidGeocoderEnabled(t *testing.T) {
	t.Setenv("GEOCODER_ENABLED", "yes-please")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEOCODER_ENABLED")
}
