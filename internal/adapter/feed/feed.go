// Package feed adapts syndicated RSS/Atom search feeds into raw news items.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/couchcryptid/insurance-news-map/internal/config"
	"github.com/couchcryptid/insurance-news-map/internal/domain"
	"github.com/mmcdole/gofeed"
)

// Parser fetches and parses a feed. *gofeed.Parser satisfies it.
type Parser interface {
	ParseURLWithContext(feedURL string, ctx context.Context) (*gofeed.Feed, error)
}

// Adapter is a feed-backed source. Every item it yields carries the source's
// forced category, if one is configured.
type Adapter struct {
	name     string
	prefix   string
	url      string
	category domain.Category
	parser   Parser
}

// NewAdapter builds a feed adapter for a configured source.
func NewAdapter(src config.SourceConfig, timeout time.Duration, userAgent string) (*Adapter, error) {
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: timeout}
	p.UserAgent = userAgent
	return newAdapter(src, p)
}

func newAdapter(src config.SourceConfig, p Parser) (*Adapter, error) {
	var category domain.Category
	if src.Category != "" {
		c, err := domain.ParseCategory(src.Category)
		if err != nil {
			return nil, fmt.Errorf("feed source %s: %w", src.Name, err)
		}
		category = c
	}
	return &Adapter{
		name:     src.Name,
		prefix:   src.Prefix,
		url:      src.URL,
		category: category,
		parser:   p,
	}, nil
}

// Name identifies the source in logs and metrics.
func (a *Adapter) Name() string {
	return a.name + " (" + a.prefix + ")"
}

// Fetch retrieves the feed and maps its entries to raw items in feed order.
func (a *Adapter) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	f, err := a.parser.ParseURLWithContext(a.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", a.name, err)
	}

	items := make([]domain.RawItem, 0, len(f.Items))
	for i, it := range f.Items {
		if it == nil {
			continue
		}
		link := strings.TrimSpace(it.Link)
		items = append(items, domain.RawItem{
			ID:             domain.ItemID(a.prefix, i, link),
			Title:          strings.TrimSpace(it.Title),
			Link:           link,
			PublishedAt:    publishedAt(it),
			Snippet:        snippet(it),
			SourceName:     a.name,
			ForcedCategory: a.category,
		})
	}
	return items, nil
}

// publishedAt prefers the publish date, then the update date, then now.
func publishedAt(it *gofeed.Item) time.Time {
	switch {
	case it.PublishedParsed != nil && !it.PublishedParsed.IsZero():
		return it.PublishedParsed.UTC()
	case it.UpdatedParsed != nil && !it.UpdatedParsed.IsZero():
		return it.UpdatedParsed.UTC()
	default:
		return domain.Now().UTC()
	}
}

func snippet(it *gofeed.Item) string {
	s := it.Description
	if s == "" {
		s = it.Content
	}
	return plainText(s)
}

// plainText strips markup and collapses whitespace.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
