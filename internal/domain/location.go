package domain

import (
	"regexp"
	"strings"
)

// PlaceExtractor recognizes place names in free text, in order of appearance.
type PlaceExtractor interface {
	ExtractPlaces(text string) []string
}

// LocationStrategy proposes a single place name for a piece of text.
type LocationStrategy interface {
	Locate(text string) (string, bool)
}

// LocationChain tries each strategy in order and returns the first hit.
type LocationChain []LocationStrategy

// Locate implements LocationStrategy.
func (c LocationChain) Locate(text string) (string, bool) {
	for _, s := range c {
		if s == nil {
			continue
		}
		if place, ok := s.Locate(text); ok {
			return place, true
		}
	}
	return "", false
}

// NewLocationChain returns the default chain: recognized places first, then
// the "City, Region" phrase, then a gazetteer scan. A nil extractor or nil
// gazetteer skips its step.
func NewLocationChain(places PlaceExtractor, gazetteer *Gazetteer) LocationChain {
	chain := LocationChain{}
	if places != nil {
		chain = append(chain, PlacesStrategy{Extractor: places, Gazetteer: gazetteer})
	}
	chain = append(chain, CommaPhraseStrategy{})
	if gazetteer != nil {
		chain = append(chain, GazetteerStrategy{Gazetteer: gazetteer})
	}
	return chain
}

// PlacesStrategy takes the first place reported by a PlaceExtractor that can
// be confirmed. A place inside the text's "City, Region" phrase resolves to the
// whole phrase; any other place must be listed in the gazetteer. Unconfirmed
// hits, such as capitalized headline words tagged as places, are skipped.
type PlacesStrategy struct {
	Extractor PlaceExtractor
	Gazetteer *Gazetteer
}

func (s PlacesStrategy) Locate(text string) (string, bool) {
	phrase, hasPhrase := CommaPhraseStrategy{}.Locate(text)
	for _, p := range s.Extractor.ExtractPlaces(text) {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
		case hasPhrase && containsWord(phrase, p):
			return phrase, true
		case s.Gazetteer.Known(p):
			return p, true
		}
	}
	return "", false
}

// GazetteerStrategy returns the first gazetteer place mentioned in the text.
type GazetteerStrategy struct {
	Gazetteer *Gazetteer
}

func (s GazetteerStrategy) Locate(text string) (string, bool) {
	found := s.Gazetteer.Find(text)
	if len(found) == 0 {
		return "", false
	}
	return found[0], true
}

// commaPhraseRe matches "Word(s), Word(s)" where each side is one to three
// capitalized words, e.g. "Fort Myers, Florida".
var commaPhraseRe = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s[A-Z][a-z]+){0,2}),\s([A-Z][a-z]+(?:\s[A-Z][a-z]+){0,2})\b`)

// CommaPhraseStrategy reads a "City, Region" phrase out of the text.
type CommaPhraseStrategy struct{}

func (CommaPhraseStrategy) Locate(text string) (string, bool) {
	m := commaPhraseRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1] + ", " + m[2], true
}
