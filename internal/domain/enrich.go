package domain

import (
	"context"
	"errors"
)

// Rejection reasons. A rejected item is dropped silently.
var (
	ErrNoCategory    = errors.New("no category")
	ErrNoLocation    = errors.New("no location")
	ErrNoCoordinates = errors.New("no coordinates")
)

// IsRejection reports whether err is one of the per-item rejection reasons.
func IsRejection(err error) bool {
	return errors.Is(err, ErrNoCategory) || errors.Is(err, ErrNoLocation) || errors.Is(err, ErrNoCoordinates)
}

// EnrichItem classifies, locates, and geocodes a raw item. The forced category
// wins over the classifier. A nil geocoder rejects every item with
// ErrNoCoordinates since an article without coordinates cannot be mapped.
func EnrichItem(ctx context.Context, item RawItem, locator LocationStrategy, geocoder Geocoder) (EnrichedArticle, error) {
	text := item.Text()

	category := item.ForcedCategory
	if category == "" {
		var ok bool
		if category, ok = Classify(text); !ok {
			return EnrichedArticle{}, ErrNoCategory
		}
	}

	location, ok := locator.Locate(text)
	if !ok {
		return EnrichedArticle{}, ErrNoLocation
	}

	if geocoder == nil {
		return EnrichedArticle{}, ErrNoCoordinates
	}
	coords, ok := geocoder.Resolve(ctx, location)
	if !ok || !coords.Finite() {
		return EnrichedArticle{}, ErrNoCoordinates
	}

	return EnrichedArticle{
		ID:           item.ID,
		Title:        item.Title,
		Link:         item.Link,
		PublishedAt:  item.PublishedAt,
		Category:     category,
		SourceName:   item.SourceName,
		LocationName: location,
		Latitude:     coords.Latitude,
		Longitude:    coords.Longitude,
	}, nil
}
