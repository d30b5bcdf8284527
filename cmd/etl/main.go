package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/occurrence-etl/internal/adapter/boundary"
	httpadapter "github.com/couchcryptid/occurrence-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/occurrence-etl/internal/adapter/kafka"
	"github.com/couchcryptid/occurrence-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/occurrence-etl/internal/adapter/postgres"
	"github.com/couchcryptid/occurrence-etl/internal/config"
	"github.com/couchcryptid/occurrence-etl/internal/domain"
	"github.com/couchcryptid/occurrence-etl/internal/geo"
	"github.com/couchcryptid/occurrence-etl/internal/observability"
	"github.com/couchcryptid/occurrence-etl/internal/pipeline"
)

// sink is a batch loader that owns a connection.
type sink interface {
	pipeline.BatchLoader
	io.Closer
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, logger); err != nil {
		logger.Error("service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	var layer *geo.Layer
	if cfg.BoundaryFile != "" {
		l, err := boundary.Layer(cfg.BoundaryFile, cfg.BoundaryCRS, "")
		if err != nil {
			return err
		}
		layer = l
		logger.Info("spatial subset enabled", "boundary", cfg.BoundaryFile, "crs", l.CRS.String())
	}

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	cleanerCfg, err := pipeline.NewCleanerConfig(cfg, layer, geocoder)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader, err := openSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	reader := kafkaadapter.NewReader(cfg, logger)

	p := pipeline.New(reader, pipeline.NewCleaner(cleanerCfg, logger), loader, logger, metrics, cfg.BatchSize)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, func() any { return p.Stats() }, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer stop()
		return p.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	if cerr := reader.Close(); cerr != nil {
		logger.Error("kafka reader close error", "error", cerr)
	}
	if cerr := loader.Close(); cerr != nil {
		logger.Error("sink close error", "error", cerr)
	}

	logger.Info("shutdown complete")
	return err
}

func openSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (sink, error) {
	if cfg.Sink == config.SinkPostgres {
		logger.Info("writing to postgres", "table", postgres.DefaultTable)
		return postgres.Open(ctx, cfg.DatabaseURL, postgres.DefaultTable, logger)
	}
	logger.Info("writing to kafka", "topic", cfg.KafkaSinkTopic)
	return kafkaadapter.NewWriter(cfg, logger), nil
}
