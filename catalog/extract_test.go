package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const catalogHTML = `<html><body>
<nav><a href="/en-US/games/all-games">All Games</a></nav>
<div class="gamelist">
  <a href="/en-us/games/store/halo-infinite/9PMD0CZCL0GB" aria-label="Halo Infinite">explore Halo Infinite
ULTIMATE · PC</a>
  <a href="/games/store/forza-horizon-5/9NKX70BBCDRN"><h3>Forza Horizon 5</h3></a>
  <a href="/games/store/halo-infinite/9PMD0CZCL0GB?tab=details" aria-label="Halo Infinite">Halo Infinite</a>
  <a href="/games/store/sea-of-thieves/9P2N57MC619K"></a>
  <a href="/games/store/halo-wars/9NBLGGH4TBSX?xr=shellnav">Halo Wars</a>
</div>
</body></html>`

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor("https://www.xbox.com/en-US/xbox-game-pass/games")
	if err != nil {
		t.Fatalf("new extractor: %v", err)
	}
	return e.WithNow(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	})
}

func TestExtract(t *testing.T) {
	extractor := newTestExtractor(t)
	doc := parseDoc(t, catalogHTML)

	games, stats := extractor.Extract(doc)

	if len(games) != 3 {
		t.Fatalf("extracted %d games, want 3: %+v", len(games), games)
	}

	byName := make(map[string]string, len(games))
	for _, g := range games {
		byName[g.Name] = g.URL
	}

	// Locale prefix is collapsed so both halo links share one URL.
	wantHalo := "https://www.xbox.com/games/store/halo-infinite/9PMD0CZCL0GB"
	if got := byName["Halo Infinite"]; got != wantHalo {
		t.Fatalf("halo url = %q, want %q", got, wantHalo)
	}
	if _, ok := byName["Forza Horizon 5"]; !ok {
		t.Fatalf("missing Forza Horizon 5: %v", byName)
	}
	// No usable text anywhere, so the name comes from the URL slug.
	if _, ok := byName["Sea Of Thieves"]; !ok {
		t.Fatalf("missing slug-derived Sea Of Thieves: %v", byName)
	}

	if stats.Accepted != 3 {
		t.Fatalf("stats.Accepted = %d, want 3", stats.Accepted)
	}
	if stats.RejectReasons["url_pattern"] == 0 {
		t.Fatalf("expected url_pattern rejections, got %v", stats.RejectReasons)
	}
}

func TestExtractIdempotent(t *testing.T) {
	extractor := newTestExtractor(t)
	doc := parseDoc(t, catalogHTML)

	first, _ := extractor.Extract(doc)
	second, _ := extractor.Extract(doc)

	if len(first) != len(second) {
		t.Fatalf("first pass %d games, second pass %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Name != second[i].Name || first[i].URL != second[i].URL {
			t.Fatalf("pass mismatch at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestExtractBroadScanFallback(t *testing.T) {
	// No selector in the cascade matches this markup shape, so only the
	// all-anchors fallback can find the game.
	html := `<html><body>
<section><a href="/games/store/hades/9P8DL6W0JBB8" title="Hades">play now</a></section>
</body></html>`

	extractor := newTestExtractor(t).WithSelectors([]string{"div.never-matches a"})
	games, _ := extractor.Extract(parseDoc(t, html))

	if len(games) != 1 || games[0].Name != "Hades" {
		t.Fatalf("games = %+v, want single Hades entry", games)
	}
}
