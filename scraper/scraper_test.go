package scraper

import (
	"context"
	"errors"
	"net"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/jarcoal/httpmock"

	"gamepass-catalog/config"
	"gamepass-catalog/enrich"
	"gamepass-catalog/models"
	"gamepass-catalog/pipeline"
)

// staticPage serves fixed markup and inert script results.
type staticPage struct {
	html      string
	navigated []string
}

func (p *staticPage) Navigate(ctx context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	return nil
}

func (p *staticPage) HTML(ctx context.Context) (string, error) {
	return p.html, nil
}

func (p *staticPage) Eval(ctx context.Context, script string, out any) error {
	switch v := out.(type) {
	case *int64:
		*v = 2000
	case *bool:
		*v = false
	case *int:
		*v = 0
	}
	return nil
}

func (p *staticPage) Close() error { return nil }

// collectingWriter records writes in memory.
type collectingWriter struct {
	games []*models.Game
}

func (w *collectingWriter) Write(games []*models.Game) error {
	w.games = append(w.games, games...)
	return nil
}

func (w *collectingWriter) Close() error    { return nil }
func (w *collectingWriter) Validate() error { return nil }

const testCatalogHTML = `<html><body>
<a href="/games/store/old-game/9OLDGAME0001" aria-label="Old Game">Old Game</a>
<a href="/games/store/new-game/9NEWGAME0001" aria-label="New Game">New Game</a>
<a href="/en-US/games/all-games">All Games</a>
</body></html>`

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "https://www.xbox.com/en-US/xbox-game-pass/games"
	cfg.MaxLoadAttempts = 3
	cfg.NoProgressThreshold = 1
	cfg.SettleDelay = 0
	return cfg
}

func TestRunDiscoversAndPersists(t *testing.T) {
	cfg := testConfig()
	page := &staticPage{html: testCatalogHTML}

	writer := &collectingWriter{}
	p, err := pipeline.NewPipeline(writer, cfg)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	s := NewScraper(cfg, page, nil)
	result, err := s.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(page.navigated) != 1 || page.navigated[0] != cfg.BaseURL {
		t.Fatalf("navigated = %v, want [%s]", page.navigated, cfg.BaseURL)
	}
	if result.Extracted != 2 {
		t.Fatalf("extracted = %d, want 2", result.Extracted)
	}
	if len(writer.games) != 2 {
		t.Fatalf("persisted %d games, want 2", len(writer.games))
	}
	// No year filter, so output is alphabetical.
	if writer.games[0].Name != "New Game" || writer.games[1].Name != "Old Game" {
		t.Fatalf("order = [%s, %s], want alphabetical",
			writer.games[0].Name, writer.games[1].Name)
	}
}

func TestRunEnrichesAndFiltersByYear(t *testing.T) {
	cfg := testConfig()
	cfg.EnrichmentEnabled = true
	cfg.APIBaseURL = "https://api.test"
	cfg.APIKey = "test-key"
	cfg.TargetYear = 2025
	cfg.RateMinDelay = 0
	cfg.CacheFile = filepath.Join(t.TempDir(), "cache.json")

	cache, err := enrich.OpenCache(cfg.CacheFile)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	limiter := enrich.NewRateLimiter(cfg.RateMaxRequests, cfg.RateWindow, cfg.RateMinDelay)
	client := enrich.NewClient(cfg, limiter, cache)

	httpmock.ActivateNonDefault(client.HTTPClient())
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterResponder("GET", "https://api.test/search/",
		func(req *http.Request) (*http.Response, error) {
			date := "2024-05-05 00:00:00"
			if req.URL.Query().Get("query") == "New Game" {
				date = "2025-03-15 00:00:00"
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
				"number_of_total_results": 1,
				"results": []map[string]any{
					{"original_release_date": date},
				},
			})
		})

	page := &staticPage{html: testCatalogHTML}
	writer := &collectingWriter{}
	p, err := pipeline.NewPipeline(writer, cfg)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}

	s := NewScraper(cfg, page, client)
	result, err := s.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.Enriched != 2 {
		t.Fatalf("enriched = %d, want 2", result.Enriched)
	}
	if result.FilteredOut != 1 {
		t.Fatalf("filtered out = %d, want 1", result.FilteredOut)
	}
	if len(writer.games) != 1 || writer.games[0].Name != "New Game" {
		t.Fatalf("persisted = %+v, want only New Game", writer.games)
	}
	if writer.games[0].ReleaseDate != "2025-03-15" {
		t.Fatalf("release date = %q, want 2025-03-15", writer.games[0].ReleaseDate)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "context timeout", err: context.DeadlineExceeded, expected: "timeout"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, expected: "timeout"},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, expected: "connection"},
		{name: "other", err: errors.New("some other error"), expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorTypeLabel(classifyError(tt.err)); got != tt.expected {
				t.Fatalf("classifyError(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestErrorTypeLabelWrappedTypes(t *testing.T) {
	nav := ErrNavigation{URL: "https://x.test", Err: errors.New("boom")}
	if got := errorTypeLabel(nav); got != "navigation" {
		t.Fatalf("label = %q, want navigation", got)
	}
	snap := ErrSnapshot{Err: ErrTimeout{Err: context.DeadlineExceeded}}
	// The outermost classified type wins.
	if got := errorTypeLabel(snap); got != "timeout" {
		t.Fatalf("label = %q, want timeout", got)
	}
}
