// Package models defines data structures for the catalog scraper.
package models

import (
	"net/url"
	"strings"
	"time"
)

// Game represents one catalog entry discovered on the store page.
type Game struct {
	Name         string    `csv:"name" json:"name"`
	URL          string    `csv:"url" json:"url"`
	ReleaseDate  string    `csv:"release_date,omitempty" json:"release_date,omitempty"`
	DiscoveredAt time.Time `csv:"discovered_at" json:"discovered_at"`
}

// CanonicalURL returns the game's detail URL with query string and
// fragment removed. It is the primary dedupe key for a run.
func (g *Game) CanonicalURL() string {
	return CanonicalizeURL(g.URL)
}

// NameKey returns the case-insensitive dedupe key for the game's name.
func (g *Game) NameKey() string {
	return strings.ToLower(strings.TrimSpace(g.Name))
}

// ReleaseYear parses the leading year of the release date, or 0 when
// the date is absent or malformed.
func (g *Game) ReleaseYear() int {
	if len(g.ReleaseDate) < 4 {
		return 0
	}
	year := 0
	for _, r := range g.ReleaseDate[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		year = year*10 + int(r-'0')
	}
	return year
}

// CanonicalizeURL strips the query string and fragment from a URL.
// Unparseable input is returned trimmed, so it still works as a map key.
func CanonicalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexAny(raw, "?#"); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// ScrapeResult holds the overall outcome of one scraper run.
type ScrapeResult struct {
	Games          []*Game
	StartTime      time.Time
	EndTime        time.Time
	RevealAttempts int
	Extracted      int
	Rejected       int
	Enriched       int
	FilteredOut    int
	ErrorCount     int
	ErrorsByType   map[string]int
}
