package domain

import (
	"fmt"
	"strings"
	"time"
)

// Category is the event class an article is mapped under.
type Category string

const (
	MajorLoss         Category = "Major Loss"
	MergerAcquisition Category = "M&A"
)

// ParseCategory maps a configured category label to a Category. Both the
// display form ("Major Loss", "M&A") and a loose form ("major_loss", "ma")
// are accepted.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "major loss", "major_loss", "majorloss", "loss":
		return MajorLoss, nil
	case "m&a", "ma", "merger_acquisition", "mergeracquisition", "merger":
		return MergerAcquisition, nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

// RawItem is a normalized item as produced by a source adapter.
type RawItem struct {
	ID          string
	Title       string
	Link        string
	PublishedAt time.Time
	Snippet     string
	SourceName  string

	// ForcedCategory bypasses the classifier when set.
	ForcedCategory Category
}

// Valid reports whether the item has the title and link required for enrichment.
func (r RawItem) Valid() bool {
	return strings.TrimSpace(r.Title) != "" && strings.TrimSpace(r.Link) != ""
}

// Text is the classification and location input. Title and snippet are kept
// as separate sentences so a phrase cannot run from one into the other.
func (r RawItem) Text() string {
	if strings.TrimSpace(r.Snippet) == "" {
		return r.Title
	}
	return r.Title + ". " + r.Snippet
}

// ItemID builds the display/dedup key "<prefix>-<index>-<link>".
func ItemID(prefix string, index int, link string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, index, link)
}

// EnrichedArticle is the map-ready record served to clients.
type EnrichedArticle struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Link         string    `json:"link"`
	PublishedAt  time.Time `json:"date"`
	Category     Category  `json:"category"`
	SourceName   string    `json:"source"`
	LocationName string    `json:"location"`
	Latitude     float64   `json:"lat"`
	Longitude    float64   `json:"lng"`
}

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}
