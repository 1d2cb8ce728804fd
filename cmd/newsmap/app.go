package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/insurance-news-map/internal/adapter/feed"
	kafkaadapter "github.com/couchcryptid/insurance-news-map/internal/adapter/kafka"
	"github.com/couchcryptid/insurance-news-map/internal/adapter/nominatim"
	"github.com/couchcryptid/insurance-news-map/internal/adapter/prose"
	"github.com/couchcryptid/insurance-news-map/internal/adapter/scrape"
	"github.com/couchcryptid/insurance-news-map/internal/config"
	"github.com/couchcryptid/insurance-news-map/internal/domain"
	"github.com/couchcryptid/insurance-news-map/internal/observability"
	"github.com/couchcryptid/insurance-news-map/internal/pipeline"
)

// sink is a publisher that holds a connection.
type sink interface {
	pipeline.Publisher
	Close() error
}

// app holds the wired pipeline and the resources that need closing.
type app struct {
	pipeline *pipeline.Pipeline
	sink     sink
	logger   *slog.Logger
	warmDone chan struct{}
}

func newApp(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*app, error) {
	sources, err := buildSources(cfg)
	if err != nil {
		return nil, err
	}

	client := nominatim.NewClient(cfg.GeocodeURL, cfg.GeocodeTimeout, cfg.GeocodeInterval, cfg.UserAgent, metrics, logger)
	geocoder := nominatim.NewCachedGeocoder(client, cfg.GeocodeCacheSize, cfg.GeocodeTTL, metrics, logger)
	logger.Info("geocoding configured",
		"url", cfg.GeocodeURL, "interval", cfg.GeocodeInterval, "ttl", cfg.GeocodeTTL, "cache_size", cfg.GeocodeCacheSize)

	extractor, err := prose.NewExtractor(logger)
	if err != nil {
		return nil, err
	}
	locator := domain.NewLocationChain(extractor, domain.DefaultGazetteer())
	enricher := pipeline.NewEnricher(locator, geocoder)
	cache := pipeline.NewResultCache(cfg.ResultTTL, nil)

	p := pipeline.New(sources, enricher, cache, logger, metrics, pipeline.Options{
		MaxRawItems:   cfg.MaxRawItems,
		MaxArticles:   cfg.MaxArticles,
		EnrichWorkers: cfg.EnrichWorkers,
		SourceTimeout: cfg.SourceTimeout,
	})

	a := &app{pipeline: p, logger: logger}
	if cfg.KafkaEnabled {
		a.sink = kafkaadapter.NewWriter(cfg, logger)
		p.WithPublisher(a.sink)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka sink disabled")
	}
	return a, nil
}

// buildSources creates one adapter per configured source, in merge order.
func buildSources(cfg *config.Config) ([]pipeline.Source, error) {
	sources := make([]pipeline.Source, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		var (
			s   pipeline.Source
			err error
		)
		switch src.Kind {
		case config.KindFeed:
			s, err = feed.NewAdapter(src, cfg.SourceTimeout, cfg.UserAgent)
		case config.KindScrape:
			s, err = scrape.NewAdapter(src, cfg.SourceTimeout, cfg.UserAgent)
		default:
			err = fmt.Errorf("source %s: unknown kind %q", src.Name, src.Kind)
		}
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, nil
}

// startWarm runs the warm-up and refresh loop in the background.
func (a *app) startWarm(ctx context.Context, interval time.Duration) {
	done := make(chan struct{})
	a.warmDone = done
	go func() {
		defer close(done)
		if err := a.pipeline.KeepWarm(ctx, interval); err != nil {
			a.logger.Error("refresh loop error", "error", err)
		}
	}()
}

// close waits, at most until ctx is done, for an in-flight build to finish
// publishing, then closes the sink.
func (a *app) close(ctx context.Context) {
	if a.warmDone != nil {
		select {
		case <-a.warmDone:
		case <-ctx.Done():
			a.logger.Warn("build still running at shutdown", "error", ctx.Err())
		}
	}
	if a.sink == nil {
		return
	}
	if err := a.sink.Close(); err != nil {
		a.logger.Error("kafka writer close error", "error", err)
	}
}
