// Package scraper orchestrates a catalog run: reveal the page, extract
// and accumulate games, enrich release dates, and hand the result to
// the persistence pipeline.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"gamepass-catalog/browser"
	"gamepass-catalog/catalog"
	"gamepass-catalog/config"
	"gamepass-catalog/enrich"
	"gamepass-catalog/models"
	"gamepass-catalog/pipeline"
)

// Scraper drives one full catalog run. The page and the enrichment
// client are injected; a nil client disables enrichment.
type Scraper struct {
	cfg     *config.Config
	page    browser.Page
	client  *enrich.Client
	Metrics *Metrics

	mu           sync.Mutex
	errorCount   int
	errorsByType map[string]int
}

// NewScraper builds a scraper around an already-acquired page.
func NewScraper(cfg *config.Config, page browser.Page, client *enrich.Client) *Scraper {
	return &Scraper{
		cfg:          cfg,
		page:         page,
		client:       client,
		Metrics:      NewMetrics(),
		errorsByType: make(map[string]int),
	}
}

// Run executes the scrape and streams the final list through p. Only
// navigation failure and a failed write are fatal; per-item extraction
// and enrichment trouble is counted and absorbed.
func (s *Scraper) Run(ctx context.Context, p *pipeline.Pipeline) (*models.ScrapeResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	extractor, err := catalog.NewExtractor(s.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("build extractor: %w", err)
	}
	set := catalog.NewSet()
	rejected := 0

	extract := func(ctx context.Context) (int, error) {
		html, err := s.page.HTML(ctx)
		if err != nil {
			classified := ErrSnapshot{Err: classifyError(err)}
			s.recordError(classified)
			return set.Len(), classified
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			classified := ErrSnapshot{Err: err}
			s.recordError(classified)
			return set.Len(), classified
		}

		games, stats := extractor.Extract(doc)
		accepted := 0
		for _, game := range games {
			if set.Add(game) {
				accepted++
			}
		}
		s.Metrics.IncExtracted(accepted)
		s.Metrics.IncRejected(stats.Rejected)
		rejected += stats.Rejected
		return set.Len(), nil
	}

	if err := s.page.Navigate(ctx, s.cfg.BaseURL); err != nil {
		classified := ErrNavigation{URL: s.cfg.BaseURL, Err: classifyError(err)}
		s.recordError(classified)
		return nil, classified
	}

	loader := browser.NewLoader(s.page, extract, s.cfg)
	loader.DismissConsent(ctx)
	loader.WidenPageSize(ctx)
	loader.InitialReveal(ctx)

	progress, err := loader.RevealAll(ctx, s.cfg.MaxLoadAttempts)
	if err != nil {
		return nil, fmt.Errorf("reveal loop: %w", err)
	}
	s.Metrics.AddReveal("click", progress.Clicks)
	s.Metrics.AddReveal("scroll", progress.Scrolls)
	slog.Info("catalog revealed",
		slog.Int("games", set.Len()),
		slog.Int("attempts", progress.Attempts),
		slog.Bool("converged", progress.Converged),
	)

	games := set.Games()
	enriched := s.enrichAll(ctx, games)

	summary, err := p.Persist(games)
	if err != nil {
		return nil, fmt.Errorf("persist games: %w", err)
	}
	s.Metrics.AddKept(summary.Written)
	slog.Info("games persisted",
		slog.Int("written", summary.Written),
		slog.Int("filtered_out", summary.FilteredOut),
		slog.Int("duplicates", summary.Duplicates),
	)

	return &models.ScrapeResult{
		Games:          games,
		StartTime:      start,
		EndTime:        time.Now(),
		RevealAttempts: progress.Attempts,
		Extracted:      set.Len(),
		Rejected:       rejected,
		Enriched:       enriched,
		FilteredOut:    summary.FilteredOut,
		ErrorCount:     s.snapshotErrorCount(),
		ErrorsByType:   s.snapshotErrors(),
	}, nil
}

// enrichAll resolves release dates in place. A run that is cancelled
// mid-enrichment keeps whatever dates it already resolved.
func (s *Scraper) enrichAll(ctx context.Context, games []*models.Game) int {
	if s.client == nil {
		return 0
	}

	enriched := 0
	for i, game := range games {
		if ctx.Err() != nil {
			slog.Warn("enrichment interrupted",
				slog.Int("done", i),
				slog.Int("total", len(games)),
			)
			break
		}

		lookupStart := time.Now()
		date, outcome := s.client.Lookup(ctx, game.Name)
		s.Metrics.ObserveLookup(time.Since(lookupStart))
		s.Metrics.IncEnrichment(string(outcome))

		switch outcome {
		case enrich.OutcomeError, enrich.OutcomeAbuseExhausted:
			s.recordErrorLabel("enrichment")
		}
		if date != "" {
			game.ReleaseDate = date
			enriched++
		}

		if (i+1)%25 == 0 {
			slog.Info("enrichment progress",
				slog.Int("done", i+1),
				slog.Int("total", len(games)),
				slog.Int("enriched", enriched),
				slog.Int("quota_remaining", s.client.RemainingQuota()),
			)
		}
	}
	return enriched
}

func (s *Scraper) recordError(err error) {
	label := errorTypeLabel(err)
	s.recordErrorLabel(label)
	slog.Error("scraper error",
		slog.String("category", label),
		slog.Any("error", err),
	)
}

func (s *Scraper) recordErrorLabel(label string) {
	s.mu.Lock()
	s.errorCount++
	s.errorsByType[label]++
	s.mu.Unlock()
	s.Metrics.IncError(label)
}

func (s *Scraper) snapshotErrorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorCount
}

func (s *Scraper) snapshotErrors() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		out[k] = v
	}
	return out
}
