package catalog

import (
	"sort"
	"strings"

	"gamepass-catalog/models"
)

// Set accumulates games across reveal attempts with first-seen-wins
// dedupe. Within one run no two retained games share a canonical URL or
// a case-insensitive name.
type Set struct {
	urls  map[string]struct{}
	names map[string]struct{}
	order []*models.Game
}

// NewSet returns an empty accumulator.
func NewSet() *Set {
	return &Set{
		urls:  make(map[string]struct{}),
		names: make(map[string]struct{}),
	}
}

// Add retains g unless it collides with an earlier entry. Names shorter
// than three characters are noise left over from cleaning and are
// dropped here rather than retained.
func (s *Set) Add(g *models.Game) bool {
	if g == nil || len(strings.TrimSpace(g.Name)) < 3 {
		return false
	}
	urlKey := g.CanonicalURL()
	if urlKey == "" {
		return false
	}
	nameKey := g.NameKey()
	if _, dup := s.urls[urlKey]; dup {
		return false
	}
	if _, dup := s.names[nameKey]; dup {
		return false
	}
	s.urls[urlKey] = struct{}{}
	s.names[nameKey] = struct{}{}
	s.order = append(s.order, g)
	return true
}

// Len returns the number of retained games.
func (s *Set) Len() int {
	return len(s.order)
}

// Games returns the retained games in discovery order.
func (s *Set) Games() []*models.Game {
	out := make([]*models.Game, len(s.order))
	copy(out, s.order)
	return out
}

// SortByName orders games ascending by display name. Used when no
// release-date filter is active.
func SortByName(games []*models.Game) {
	sort.Slice(games, func(i, j int) bool {
		return games[i].Name < games[j].Name
	})
}

// SortByReleaseDateDesc orders games newest first; ISO dates compare
// correctly as strings. Name breaks ties to keep the order stable.
func SortByReleaseDateDesc(games []*models.Game) {
	sort.Slice(games, func(i, j int) bool {
		if games[i].ReleaseDate != games[j].ReleaseDate {
			return games[i].ReleaseDate > games[j].ReleaseDate
		}
		return games[i].Name < games[j].Name
	})
}
