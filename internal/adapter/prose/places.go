// Package prose recognizes place names in news text using the prose
// named-entity tagger.
package prose

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"
)

// placeLabel is the entity label prose assigns to geopolitical entities
// (countries, cities, states).
const placeLabel = "GPE"

// Extractor implements domain.PlaceExtractor. The tagging model is loaded
// once and shared by every call.
type Extractor struct {
	// prose does not document its model as safe for concurrent use.
	mu     sync.Mutex
	model  *prose.Model
	logger *slog.Logger
}

// NewExtractor loads the default prose model and creates a place extractor.
func NewExtractor(logger *slog.Logger) (*Extractor, error) {
	doc, err := prose.NewDocument("", prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("load prose model: %w", err)
	}
	return &Extractor{model: doc.Model, logger: logger}, nil
}

// ExtractPlaces returns GPE entities in order of appearance. Tagging errors
// yield no places so the caller falls through to its next strategy.
func (e *Extractor) ExtractPlaces(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false), prose.UsingModel(e.model))
	if err != nil {
		e.logger.Debug("place extraction failed", "error", err)
		return nil
	}
	return places(doc.Entities())
}

func places(entities []prose.Entity) []string {
	var out []string
	for _, ent := range entities {
		if ent.Label != placeLabel {
			continue
		}
		if name := strings.TrimSpace(ent.Text); name != "" {
			out = append(out, name)
		}
	}
	return out
}
