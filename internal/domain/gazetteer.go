package domain

import (
	"bufio"
	_ "embed"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

//go:embed places.txt
var defaultPlaces string

// Gazetteer is a fixed list of known place names. Matching is exact and
// case-sensitive on whole words.
type Gazetteer struct {
	names map[string]struct{}
	byLen []string // longest first so "New York" wins over "York"
}

// NewGazetteer builds a gazetteer from place names. Blank names are ignored.
func NewGazetteer(names []string) *Gazetteer {
	g := &Gazetteer{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := g.names[n]; ok {
			continue
		}
		g.names[n] = struct{}{}
		g.byLen = append(g.byLen, n)
	}
	sort.Slice(g.byLen, func(i, j int) bool {
		if len(g.byLen[i]) == len(g.byLen[j]) {
			return g.byLen[i] < g.byLen[j]
		}
		return len(g.byLen[i]) > len(g.byLen[j])
	})
	return g
}

var defaultGazetteer = sync.OnceValue(func() *Gazetteer {
	return NewGazetteer(parsePlaceList(defaultPlaces))
})

// DefaultGazetteer returns the built-in list of countries, first-level regions,
// and major cities. It is built once and shared.
func DefaultGazetteer() *Gazetteer {
	return defaultGazetteer()
}

// parsePlaceList reads one name per line, skipping blanks and # comments.
func parsePlaceList(data string) []string {
	var names []string
	sc := bufio.NewScanner(strings.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names
}

// Known reports whether name is listed. A nil Gazetteer knows nothing.
func (g *Gazetteer) Known(name string) bool {
	if g == nil {
		return false
	}
	_, ok := g.names[strings.TrimSpace(name)]
	return ok
}

type placeMatch struct {
	start, end int
	name       string
}

// Find returns the listed places mentioned in text, in order of appearance.
// Overlapping mentions resolve to the longest name.
func (g *Gazetteer) Find(text string) []string {
	if g == nil || text == "" {
		return nil
	}

	var matches []placeMatch
	for _, name := range g.byLen {
		for from := 0; from < len(text); {
			i := strings.Index(text[from:], name)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(name)
			if wordAt(text, start, end) {
				matches = append(matches, placeMatch{start: start, end: end, name: name})
			}
			from = start + 1
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].start == matches[j].start {
			return matches[i].end > matches[j].end
		}
		return matches[i].start < matches[j].start
	})

	var out []string
	covered := 0
	for _, m := range matches {
		if m.start < covered {
			continue
		}
		out = append(out, m.name)
		covered = m.end
	}
	return out
}

// containsWord reports whether word occurs in text on word boundaries.
func containsWord(text, word string) bool {
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		if wordAt(text, start, start+len(word)) {
			return true
		}
		from = start + 1
	}
	return false
}

// wordAt reports whether text[start:end] is bounded by non-word runes.
func wordAt(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
