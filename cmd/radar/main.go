package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	httpadapter "github.com/couchcryptid/incident-radar/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/incident-radar/internal/adapter/kafka"
	"github.com/couchcryptid/incident-radar/internal/adapter/nominatim"
	"github.com/couchcryptid/incident-radar/internal/config"
	"github.com/couchcryptid/incident-radar/internal/dedup"
	"github.com/couchcryptid/incident-radar/internal/extract"
	"github.com/couchcryptid/incident-radar/internal/geocode"
	"github.com/couchcryptid/incident-radar/internal/observability"
	"github.com/couchcryptid/incident-radar/internal/pipeline"
	"github.com/couchcryptid/incident-radar/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat).
		With("run_id", uuid.NewString())
	metrics := observability.NewMetrics()

	sources, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		logger.Error("failed to load sources file", "error", err)
		os.Exit(1)
	}
	if sources.Len() > 0 {
		logger.Info("source registry loaded", "sources", sources.Len())
	}

	// An unreadable or corrupt database is fatal here, before any pipeline work.
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open store", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}

	// Geocoding is feature-flagged; when disabled, events from sources without
	// coordinates are persisted unlocated.
	var resolver pipeline.LocationResolver
	if cfg.GeocoderEnabled {
		client := nominatim.NewClient(cfg.GeocoderBaseURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout, logger)
		resolver = geocode.NewResolver(store, client, cfg.GeocoderMinInterval, nil, metrics, logger)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("geocoding enabled",
			"url", cfg.GeocoderBaseURL, "min_interval", cfg.GeocoderMinInterval, "timeout", cfg.GeocoderTimeout)
	} else {
		logger.Info("geocoding disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	window := dedup.New(cfg.DedupHorizon, nil)

	p := pipeline.New(pipeline.Deps{
		Extractor:  reader,
		Store:      store,
		Window:     window,
		Resolver:   resolver,
		Candidates: extract.Heuristic{},
		Sources:    sources,
		Logger:     logger,
		Metrics:    metrics,
		BatchSize:  cfg.BatchSize,
	})

	flagger := pipeline.NewFlagger(store, writer, cfg.TemporalWindow, cfg.FlagInterval, nil, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	go func() {
		if err := flagger.Run(ctx); err != nil {
			logger.Error("flagger error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
