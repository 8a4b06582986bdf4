package catalog

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"gamepass-catalog/models"
)

// broadScanThreshold triggers the all-anchors fallback when the selector
// cascade yields suspiciously few games for a catalog page.
const broadScanThreshold = 20

// Stats summarizes one extraction pass.
type Stats struct {
	Candidates    int
	Accepted      int
	Rejected      int
	RejectReasons map[string]int
}

// Extractor pulls game entries out of a rendered page snapshot.
// Extraction is idempotent: running it twice over the same document
// yields the same set of games.
type Extractor struct {
	selectors []string
	baseURL   *url.URL
	now       func() time.Time
}

// NewExtractor builds an extractor resolving relative links against base.
func NewExtractor(base string) (*Extractor, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}
	return &Extractor{
		selectors: DefaultLinkSelectors,
		baseURL:   parsed,
		now:       time.Now,
	}, nil
}

// WithSelectors overrides the link-selector cascade.
func (e *Extractor) WithSelectors(selectors []string) *Extractor {
	e.selectors = selectors
	return e
}

// WithNow overrides the discovery timestamp source. Test hook.
func (e *Extractor) WithNow(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Extract scans doc for game entries. The selector cascade is evaluated
// left to right; the first selector that produces accepted games wins.
// When that still yields fewer games than a catalog page plausibly
// holds, every anchor on the page is scanned as a fallback.
func (e *Extractor) Extract(doc *goquery.Document) ([]*models.Game, Stats) {
	stats := Stats{RejectReasons: make(map[string]int)}
	seen := newSeenKeys()
	var games []*models.Game

	for _, selector := range e.selectors {
		accepted := e.scan(doc.Find(selector), seen, &stats, &games)
		if accepted > 0 {
			break
		}
	}

	if len(games) < broadScanThreshold {
		e.scan(doc.Find("a[href]"), seen, &stats, &games)
	}
	return games, stats
}

func (e *Extractor) scan(sel *goquery.Selection, seen *seenKeys, stats *Stats, games *[]*models.Game) int {
	accepted := 0
	sel.Each(func(_ int, link *goquery.Selection) {
		stats.Candidates++
		game, reason := e.candidate(link)
		if game == nil {
			stats.Rejected++
			stats.RejectReasons[reason]++
			return
		}
		if !seen.add(game) {
			return
		}
		*games = append(*games, game)
		accepted++
		stats.Accepted++
	})
	return accepted
}

// candidate classifies one anchor. A nil game carries the reject reason.
func (e *Extractor) candidate(link *goquery.Selection) (*models.Game, string) {
	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return nil, "no_href"
	}

	abs := e.absolute(href)
	abs = NormalizeStoreURL(abs)
	slug, id, found := storeSlugID(abs)
	if !found {
		return nil, "not_store_url"
	}
	if len(id) < 3 || len(id) > 60 {
		return nil, "id_length"
	}

	name := e.resolveName(link, slug)
	if name == "" {
		return nil, "no_name"
	}
	if valid, reason := IsValidGame(abs, name); !valid {
		slog.Debug("candidate rejected",
			slog.String("name", name),
			slog.String("url", abs),
			slog.String("reason", reason),
		)
		return nil, reason
	}

	return &models.Game{
		Name:         name,
		URL:          abs,
		DiscoveredAt: e.now(),
	}, ""
}

// resolveName runs the name fallback chain: accessible label, title
// attribute, the link's own text, a nested heading, and finally the URL
// slug. The first candidate that survives cleaning wins.
func (e *Extractor) resolveName(link *goquery.Selection, slug string) string {
	for _, raw := range nameCandidates(link) {
		if cleaned := CleanName(raw); usableName(cleaned) {
			return cleaned
		}
	}
	if name := NameFromSlug(slug); usableName(name) {
		return name
	}
	return ""
}

func nameCandidates(link *goquery.Selection) []string {
	var out []string
	if label, ok := link.Attr("aria-label"); ok && len(label) >= 2 {
		out = append(out, label)
	}
	if title, ok := link.Attr("title"); ok && len(title) >= 2 {
		out = append(out, title)
	}
	if text := strings.TrimSpace(link.Text()); text != "" && !containsSkipText(text) && len(text) > 2 && len(text) < 100 {
		out = append(out, text)
	}
	for _, tag := range nestedNameTags {
		text := strings.TrimSpace(link.Find(tag).First().Text())
		if text != "" && !containsSkipText(text) && len(text) > 2 && len(text) < 100 {
			out = append(out, text)
			break
		}
	}
	return out
}

func usableName(name string) bool {
	return len(name) >= 2 && !strings.EqualFold(strings.TrimSpace(name), "store")
}

func containsSkipText(text string) bool {
	upper := strings.ToUpper(text)
	for _, skip := range skipTexts {
		if strings.Contains(upper, skip) {
			return true
		}
	}
	return false
}

func (e *Extractor) absolute(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return e.baseURL.ResolveReference(ref).String()
}

// seenKeys tracks dedupe keys within a single extraction pass.
type seenKeys struct {
	urls  map[string]struct{}
	names map[string]struct{}
}

func newSeenKeys() *seenKeys {
	return &seenKeys{
		urls:  make(map[string]struct{}),
		names: make(map[string]struct{}),
	}
}

func (s *seenKeys) add(g *models.Game) bool {
	urlKey := g.CanonicalURL()
	nameKey := g.NameKey()
	if _, dup := s.urls[urlKey]; dup {
		return false
	}
	if _, dup := s.names[nameKey]; dup {
		return false
	}
	s.urls[urlKey] = struct{}{}
	s.names[nameKey] = struct{}{}
	return true
}
