package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/couchcryptid/insurance-news-map/internal/domain"
	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	KindFeed   = "feed"
	KindScrape = "scrape"
)

// SourceConfig describes one source adapter. List order is merge order.
type SourceConfig struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Prefix string `yaml:"prefix"`
	URL    string `yaml:"url"`

	// Category forces a category on every item of a feed source.
	Category string `yaml:"category,omitempty"`

	// Scrape-only filters: links must live on Host and match PathPattern.
	Host        string `yaml:"host,omitempty"`
	PathPattern string `yaml:"path_pattern,omitempty"`
}

type sourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// DefaultSources returns the built-in source list: the loss feed, the M&A
// feed, and the Haggie Partners press-release listing.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:     "Google News",
			Kind:     KindFeed,
			Prefix:   "gnl",
			URL:      "https://news.google.com/rss/search?q=insurance+reinsurance+(major+loss+OR+large+loss+OR+catastrophe+OR+hurricane+OR+wildfire+OR+flood+OR+cyber)&hl=en-GB&gl=GB&ceid=GB:en",
			Category: string(domain.MajorLoss),
		},
		{
			Name:     "Google News",
			Kind:     KindFeed,
			Prefix:   "gnm",
			URL:      "https://news.google.com/rss/search?q=insurance+reinsurance+(merger+OR+acquisition+OR+takeover+OR+buyout)&hl=en-GB&gl=GB&ceid=GB:en",
			Category: string(domain.MergerAcquisition),
		},
		{
			Name:        "Haggie Partners",
			Kind:        KindScrape,
			Prefix:      "hp",
			URL:         "https://www.haggiepartners.com/press-releases/",
			Host:        "haggiepartners.com",
			PathPattern: "press-release|press-releases",
		},
	}
}

// LoadSources reads and validates a YAML source list.
func LoadSources(path string) ([]SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources: %w", err)
	}
	if len(f.Sources) == 0 {
		return nil, errors.New("no sources defined")
	}

	for i, s := range f.Sources {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
	}
	return f.Sources, nil
}

// Validate checks that the source is complete for its kind.
func (s SourceConfig) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Prefix == "" {
		return fmt.Errorf("%s: prefix is required", s.Name)
	}
	if s.URL == "" {
		return fmt.Errorf("%s: url is required", s.Name)
	}
	if s.Category != "" {
		if _, err := domain.ParseCategory(s.Category); err != nil {
			return fmt.Errorf("%s: %w", s.Name, err)
		}
	}

	switch s.Kind {
	case KindFeed:
		return nil
	case KindScrape:
		if s.Host == "" {
			return fmt.Errorf("%s: host is required for scrape sources", s.Name)
		}
		if _, err := regexp.Compile(s.PathPattern); err != nil {
			return fmt.Errorf("%s: invalid path_pattern: %w", s.Name, err)
		}
		return nil
	default:
		return fmt.Errorf("%s: unknown kind %q", s.Name, s.Kind)
	}
}
