// Package scrape harvests press-release links from HTML listing pages that
// offer no syndication feed.
package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/couchcryptid/insurance-news-map/internal/config"
	"github.com/couchcryptid/insurance-news-map/internal/domain"
	"golang.org/x/net/html/charset"
)

// MaxItems caps the number of links taken from one listing page.
const MaxItems = 50

var (
	pressReleaseRe  = regexp.MustCompile(`(?i)press release`)
	domainKeywordRe = regexp.MustCompile(`(?i)acquires|acquisition|merger|catastrophe|loss|reinsurance|insurance`)
)

// Adapter is a scrape-backed source. Listing pages carry no reliable publish
// date, so every item is stamped with the fetch time.
type Adapter struct {
	name      string
	prefix    string
	pageURL   *url.URL
	host      string
	pathRe    *regexp.Regexp
	userAgent string
	client    *http.Client
	links     LinkParser
}

// NewAdapter builds a scrape adapter for a configured source.
func NewAdapter(src config.SourceConfig, timeout time.Duration, userAgent string) (*Adapter, error) {
	u, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("scrape source %s: parse url: %w", src.Name, err)
	}
	pathRe, err := regexp.Compile(src.PathPattern)
	if err != nil {
		return nil, fmt.Errorf("scrape source %s: path pattern: %w", src.Name, err)
	}
	return &Adapter{
		name:      src.Name,
		prefix:    src.Prefix,
		pageURL:   u,
		host:      strings.ToLower(src.Host),
		pathRe:    pathRe,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		links:     GoqueryParser{},
	}, nil
}

// Name identifies the source in logs and metrics.
func (a *Adapter) Name() string {
	return a.name + " (" + a.prefix + ")"
}

// Fetch downloads the listing page and returns the matching press-release
// links, deduplicated by link and capped at MaxItems. A non-2xx response
// yields no items rather than an error.
func (a *Adapter) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	body, ok, err := a.fetchHTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch page %s: %w", a.name, err)
	}
	if !ok {
		return nil, nil
	}

	links, err := a.links.ParseLinks(body)
	if err != nil {
		return nil, fmt.Errorf("parse page %s: %w", a.name, err)
	}

	// Duplicate links keep their first position and their last link text.
	var order []string
	texts := make(map[string]string, len(links))
	for _, l := range links {
		link, ok := a.accept(l)
		if !ok {
			continue
		}
		if _, dup := texts[link]; !dup {
			order = append(order, link)
		}
		texts[link] = l.Text
	}
	if len(order) > MaxItems {
		order = order[:MaxItems]
	}

	now := domain.Now().UTC()
	items := make([]domain.RawItem, len(order))
	for i, link := range order {
		items[i] = domain.RawItem{
			ID:          domain.ItemID(a.prefix, i, link),
			Title:       texts[link],
			Link:        link,
			PublishedAt: now,
			Snippet:     texts[link],
			SourceName:  a.name,
		}
	}
	return items, nil
}

// accept resolves the link against the listing page and reports whether it
// points at a press release on the expected host with relevant link text.
func (a *Adapter) accept(l Link) (string, bool) {
	if l.Href == "" || l.Text == "" {
		return "", false
	}
	ref, err := url.Parse(l.Href)
	if err != nil {
		return "", false
	}
	abs := a.pageURL.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""
	link := abs.String()

	onHost := strings.Contains(strings.ToLower(abs.Host), a.host)
	isPress := onHost && a.pathRe.MatchString(abs.Path)
	looksRelevant := pressReleaseRe.MatchString(l.Text) || domainKeywordRe.MatchString(l.Text)
	return link, isPress && looksRelevant
}

// fetchHTML returns the page body decoded to UTF-8. ok is false for non-2xx responses.
func (a *Adapter) fetchHTML(ctx context.Context) (io.Reader, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.pageURL.String(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.1")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, false, nil
	}

	r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, false, fmt.Errorf("decode charset: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false, fmt.Errorf("read body: %w", err)
	}
	return bytes.NewReader(data), true, nil
}
