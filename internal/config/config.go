// Package config loads service settings from environment variables, plus an
// optional YAML source registry.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaZonesTopic  string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration
	BatchSize        int

	// Store settings.
	DBPath string

	// Dedup window settings.
	DedupHorizon time.Duration

	// Flagging settings.
	TemporalWindow time.Duration
	FlagInterval   time.Duration

	// Geocoding configuration.
	GeocoderEnabled     bool
	GeocoderBaseURL     string
	GeocoderUserAgent   string
	GeocoderTimeout     time.Duration
	GeocoderMinInterval time.Duration

	// Optional YAML file declaring the known sources and their kinds.
	SourcesFile string
}

// Load reads configuration from environment variables, applying defaults
// where unset. Missing or invalid required settings fail here, before any
// pipeline work begins.
func Load() (*Config, error) {
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	batchSize, err := parseBatchSize()
	if err != nil {
		return nil, err
	}
	dedupHorizon, err := parsePositiveDuration("DEDUP_WINDOW", "24h")
	if err != nil {
		return nil, err
	}
	temporalWindow, err := parsePositiveDuration("TEMPORAL_WINDOW", "48h")
	if err != nil {
		return nil, err
	}
	flagInterval, err := parsePositiveDuration("FLAG_INTERVAL", "10m")
	if err != nil {
		return nil, err
	}
	geocoderTimeout, err := parsePositiveDuration("GEOCODER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geocoderMinInterval, err := parseDuration("GEOCODER_MIN_INTERVAL", "1s")
	if err != nil {
		return nil, err
	}

	geocoderEnabled := true
	if v := os.Getenv("GEOCODER_ENABLED"); v != "" {
		geocoderEnabled, err = strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("GEOCODER_ENABLED must be a boolean")
		}
	}

	cfg := &Config{
		KafkaBrokers:     parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: envOrDefault("KAFKA_SOURCE_TOPIC", "raw-incident-reports"),
		KafkaZonesTopic:  envOrDefault("KAFKA_ZONES_TOPIC", "flagged-zones"),
		KafkaGroupID:     envOrDefault("KAFKA_GROUP_ID", "incident-radar"),
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
		BatchSize:        batchSize,

		DBPath: envOrDefault("DB_PATH", "data/radar.db"),

		DedupHorizon:   dedupHorizon,
		TemporalWindow: temporalWindow,
		FlagInterval:   flagInterval,

		GeocoderEnabled:     geocoderEnabled,
		GeocoderBaseURL:     envOrDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent:   envOrDefault("GEOCODER_USER_AGENT", "incident-radar"),
		GeocoderTimeout:     geocoderTimeout,
		GeocoderMinInterval: geocoderMinInterval,

		SourcesFile: os.Getenv("SOURCES_FILE"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaZonesTopic == "" {
		return nil, errors.New("KAFKA_ZONES_TOPIC is required")
	}
	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}
	if cfg.GeocoderEnabled && cfg.GeocoderBaseURL == "" {
		return nil, errors.New("GEOCODER_ENABLED is true but GEOCODER_URL is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := parseDuration(key, def)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBatchSize() (int, error) {
	n, err := strconv.Atoi(envOrDefault("BATCH_SIZE", "50"))
	if err != nil || n < 1 || n > 1000 {
		return 0, errors.New("BATCH_SIZE must be between 1 and 1000")
	}
	return n, nil
}
