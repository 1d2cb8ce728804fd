package pipeline

import (
	"context"

	"github.com/couchcryptid/insurance-news-map/internal/domain"
)

// ArticleEnricher implements Enricher with the domain classify, locate, and
// geocode steps.
type ArticleEnricher struct {
	locator  domain.LocationStrategy
	geocoder domain.Geocoder
}

// NewEnricher creates an ArticleEnricher. Pass a nil geocoder to reject every
// item at the coordinates step.
func NewEnricher(locator domain.LocationStrategy, geocoder domain.Geocoder) *ArticleEnricher {
	return &ArticleEnricher{
		locator:  locator,
		geocoder: geocoder,
	}
}

func (e *ArticleEnricher) Enrich(ctx context.Context, item domain.RawItem) (domain.EnrichedArticle, error) {
	return domain.EnrichItem(ctx, item, e.locator, e.geocoder)
}
