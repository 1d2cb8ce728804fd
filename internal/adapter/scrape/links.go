package scrape

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is an anchor's raw href and trimmed text.
type Link struct {
	Href string
	Text string
}

// LinkParser extracts anchors from an HTML document in document order.
type LinkParser interface {
	ParseLinks(r io.Reader) ([]Link, error)
}

// GoqueryParser implements LinkParser with goquery.
type GoqueryParser struct{}

func (GoqueryParser) ParseLinks(r io.Reader) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var links []Link
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		links = append(links, Link{
			Href: strings.TrimSpace(href),
			Text: strings.Join(strings.Fields(s.Text()), " "),
		})
	})
	return links, nil
}
