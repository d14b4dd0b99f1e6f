package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gin-gonic/gin"

	"github.com/izumo-civic/civicdata-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/izumo-civic/civicdata-service/internal/adapter/kafka"
	"github.com/izumo-civic/civicdata-service/internal/adapter/mapbox"
	"github.com/izumo-civic/civicdata-service/internal/adapter/web"
	"github.com/izumo-civic/civicdata-service/internal/config"
	"github.com/izumo-civic/civicdata-service/internal/domain"
	"github.com/izumo-civic/civicdata-service/internal/news"
	"github.com/izumo-civic/civicdata-service/internal/observability"
	"github.com/izumo-civic/civicdata-service/internal/parking"
	"github.com/izumo-civic/civicdata-service/internal/pipeline"
	"github.com/izumo-civic/civicdata-service/internal/sources"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	catalog := sources.Default()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	estimatorOpts := []domain.EstimatorOption{}
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		estimatorOpts = append(estimatorOpts, domain.WithGeocoder(mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)))
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}
	estimator := domain.NewEstimator(catalog.BaseCoordinates(), catalog.DefaultCenter, logger, estimatorOpts...)

	fetcher := web.NewClient(cfg.ScrapeTimeout, cfg.UserAgent)
	scraper := parking.NewScraper(fetcher, estimator, logger, metrics)
	aggregator := parking.NewAggregator(scraper, catalog, cfg.ScrapeConcurrency, logger, metrics)

	fallback := news.FileFallback{Path: cfg.NewsFallbackPath}
	newsService := news.NewService(fetcher, catalog.Feeds, fallback, cfg.FeedTimeout, logger, metrics)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	api := httpadapter.NewAPI(aggregator, newsService, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional snapshot publisher; readiness follows it when enabled.
	var ready sharedobs.ReadinessChecker = httpadapter.AlwaysReady{}
	var writer *kafkaadapter.Writer
	if cfg.PublishEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher := pipeline.New(aggregator, writer, cfg.PublishInterval, logger, metrics)
		ready = publisher

		go func() {
			if err := publisher.Run(ctx); err != nil {
				logger.Error("publisher error", "error", err)
			}
		}()
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, api.Router(), logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
