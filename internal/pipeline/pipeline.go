package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/insurance-news-map/internal/domain"
	"github.com/couchcryptid/insurance-news-map/internal/observability"
	"golang.org/x/sync/singleflight"
)

// ErrAllSourcesFailed is returned when no source adapter produced a result.
var ErrAllSourcesFailed = errors.New("all sources failed")

// Source fetches one external source and normalizes it into raw items.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.RawItem, error)
}

// Enricher turns a raw item into an article or rejects it with a domain
// rejection error. Any other error aborts the build.
type Enricher interface {
	Enrich(ctx context.Context, item domain.RawItem) (domain.EnrichedArticle, error)
}

// Publisher receives every freshly built payload.
type Publisher interface {
	Publish(ctx context.Context, builtAt time.Time, articles []domain.EnrichedArticle) error
}

// Options bounds a build.
type Options struct {
	MaxRawItems   int
	MaxArticles   int
	EnrichWorkers int
	SourceTimeout time.Duration
}

// DefaultOptions mirrors the service defaults.
func DefaultOptions() Options {
	return Options{
		MaxRawItems:   400,
		MaxArticles:   200,
		EnrichWorkers: 1,
		SourceTimeout: 15 * time.Second,
	}
}

// Pipeline orchestrates the ingest-enrich-finalize build behind a result cache.
type Pipeline struct {
	sources   []Source
	enricher  Enricher
	publisher Publisher
	cache     *ResultCache
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics
	builds    singleflight.Group
	ready     atomic.Bool
}

// New creates a Pipeline. Sources are merged in the order given.
func New(sources []Source, enricher Enricher, cache *ResultCache, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	def := DefaultOptions()
	if opts.MaxRawItems <= 0 {
		opts.MaxRawItems = def.MaxRawItems
	}
	if opts.MaxArticles <= 0 {
		opts.MaxArticles = def.MaxArticles
	}
	if opts.EnrichWorkers <= 0 {
		opts.EnrichWorkers = def.EnrichWorkers
	}
	return &Pipeline{
		sources:  sources,
		enricher: enricher,
		cache:    cache,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
	}
}

// WithPublisher attaches a sink that receives every new payload.
func (p *Pipeline) WithPublisher(pub Publisher) *Pipeline {
	p.publisher = pub
	return p
}

// CheckReadiness returns nil once a payload has been built successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no news payload has been built yet")
	}
	return nil
}

// Run returns the cached payload while it is fresh, otherwise rebuilds it.
// Concurrent callers that miss the cache share one build.
func (p *Pipeline) Run(ctx context.Context) ([]domain.EnrichedArticle, error) {
	if payload, ok := p.cache.Get(); ok {
		p.metrics.ResultCache.WithLabelValues("hit").Inc()
		return payload, nil
	}
	p.metrics.ResultCache.WithLabelValues("miss").Inc()

	return p.shared(ctx, true)
}

// Refresh rebuilds the payload regardless of cache freshness.
func (p *Pipeline) Refresh(ctx context.Context) ([]domain.EnrichedArticle, error) {
	return p.shared(ctx, false)
}

func (p *Pipeline) shared(ctx context.Context, useCache bool) ([]domain.EnrichedArticle, error) {
	// A build is shared by every waiter and ignores caller cancellation.
	ctx = context.WithoutCancel(ctx)

	v, err, _ := p.builds.Do("build", func() (any, error) {
		if useCache {
			if payload, ok := p.cache.Get(); ok {
				return payload, nil
			}
		}
		return p.build(ctx)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]domain.EnrichedArticle)), nil
}

// build runs one full ingest-enrich-finalize cycle and replaces the cached
// payload on success. On failure the cache is left untouched.
func (p *Pipeline) build(ctx context.Context) ([]domain.EnrichedArticle, error) {
	start := time.Now()

	payload, err := p.assemble(ctx)
	if err != nil {
		p.metrics.PipelineRuns.WithLabelValues("error").Inc()
		p.logger.Error("pipeline build failed", "error", err)
		return nil, err
	}

	builtAt := p.cache.Put(payload)
	p.ready.Store(true)
	p.metrics.PipelineRuns.WithLabelValues("success").Inc()
	p.metrics.PipelineRunDuration.Observe(time.Since(start).Seconds())
	p.metrics.ArticlesPublished.Set(float64(len(payload)))
	p.logger.Info("pipeline build complete", "articles", len(payload), "duration", time.Since(start))

	p.publish(ctx, builtAt, payload)
	return payload, nil
}

func (p *Pipeline) assemble(ctx context.Context) ([]domain.EnrichedArticle, error) {
	raw, err := p.ingest(ctx)
	if err != nil {
		return nil, err
	}
	articles, err := p.enrich(ctx, raw)
	if err != nil {
		return nil, err
	}
	return finalize(articles, p.opts.MaxArticles), nil
}

type fetchResult struct {
	items []domain.RawItem
	err   error
}

// ingest fetches every source concurrently, merges the successes in source
// order, drops items without title or link, and caps the merged list. A failed
// source is logged and skipped; only the failure of every source is fatal.
func (p *Pipeline) ingest(ctx context.Context) ([]domain.RawItem, error) {
	results := make([]fetchResult, len(p.sources))

	var wg sync.WaitGroup
	for i, src := range p.sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = p.fetch(ctx, src)
		}()
	}
	wg.Wait()

	var (
		merged []domain.RawItem
		errs   []error
	)
	for i, r := range results {
		name := p.sources[i].Name()
		if r.err != nil {
			p.metrics.SourceFetches.WithLabelValues(name, "error").Inc()
			p.logger.Warn("source fetch failed, skipping", "source", name, "error", r.err)
			errs = append(errs, r.err)
			continue
		}
		p.metrics.SourceFetches.WithLabelValues(name, "success").Inc()
		p.metrics.SourceItems.WithLabelValues(name).Observe(float64(len(r.items)))
		merged = append(merged, r.items...)
	}

	if len(p.sources) > 0 && len(errs) == len(p.sources) {
		return nil, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
	}

	valid := merged[:0]
	for _, item := range merged {
		if item.Valid() {
			valid = append(valid, item)
		}
	}
	if len(valid) > p.opts.MaxRawItems {
		valid = valid[:p.opts.MaxRawItems]
	}

	p.metrics.ItemsIngested.Add(float64(len(valid)))
	return valid, nil
}

// fetch calls one source under its own timeout. A panicking adapter counts as
// a failed source.
func (p *Pipeline) fetch(ctx context.Context, src Source) (res fetchResult) {
	defer func() {
		if r := recover(); r != nil {
			res = fetchResult{err: fmt.Errorf("source panicked: %v", r)}
		}
	}()

	if p.opts.SourceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.SourceTimeout)
		defer cancel()
	}
	items, err := src.Fetch(ctx)
	return fetchResult{items: items, err: err}
}

// enrich runs each item through the enricher. With a single worker items are
// processed strictly in order; with more, a bounded pool fills per-index slots
// so the surviving order still follows the input.
func (p *Pipeline) enrich(ctx context.Context, raw []domain.RawItem) ([]domain.EnrichedArticle, error) {
	workers := min(max(p.opts.EnrichWorkers, 1), max(len(raw), 1))

	slots := make([]*domain.EnrichedArticle, len(raw))
	if workers == 1 {
		for i, item := range raw {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			art, err := p.enrichOne(ctx, item)
			if err != nil {
				return nil, err
			}
			slots[i] = art
		}
		return collect(slots), nil
	}

	var (
		wg       sync.WaitGroup
		firstErr error
		errOnce  sync.Once
		next     atomic.Int64
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= len(raw) || ctx.Err() != nil {
					return
				}
				art, err := p.enrichOne(ctx, raw[i])
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					next.Store(int64(len(raw)))
					return
				}
				slots[i] = art
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return collect(slots), nil
}

// enrichOne returns nil for a rejected item and an error only for failures
// that must abort the build.
func (p *Pipeline) enrichOne(ctx context.Context, item domain.RawItem) (art *domain.EnrichedArticle, err error) {
	defer func() {
		if r := recover(); r != nil {
			art, err = nil, fmt.Errorf("enrich item %s panicked: %v", item.ID, r)
		}
	}()

	a, err := p.enricher.Enrich(ctx, item)
	if err != nil {
		if domain.IsRejection(err) {
			p.metrics.ItemsRejected.WithLabelValues(rejectionReason(err)).Inc()
			p.logger.Debug("item rejected", "id", item.ID, "reason", err)
			return nil, nil
		}
		return nil, fmt.Errorf("enrich item %s: %w", item.ID, err)
	}
	return &a, nil
}

func (p *Pipeline) publish(ctx context.Context, builtAt time.Time, payload []domain.EnrichedArticle) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, builtAt, payload); err != nil {
		p.metrics.SinkPublishes.WithLabelValues("error").Inc()
		p.logger.Warn("publish payload failed", "error", err, "articles", len(payload))
		return
	}
	p.metrics.SinkPublishes.WithLabelValues("success").Inc()
}

func collect(slots []*domain.EnrichedArticle) []domain.EnrichedArticle {
	out := make([]domain.EnrichedArticle, 0, len(slots))
	for _, a := range slots {
		if a != nil {
			out = append(out, *a)
		}
	}
	return out
}

// finalize sorts most recent first and caps the result. Ties keep input order.
func finalize(articles []domain.EnrichedArticle, limit int) []domain.EnrichedArticle {
	slices.SortStableFunc(articles, func(a, b domain.EnrichedArticle) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoCategory):
		return "no_category"
	case errors.Is(err, domain.ErrNoLocation):
		return "no_location"
	default:
		return "no_coordinates"
	}
}
