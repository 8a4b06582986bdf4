// Package pipeline takes the final game list through dedupe, filtering,
// sorting, and persistence.
package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"gamepass-catalog/catalog"
	"gamepass-catalog/config"
	"gamepass-catalog/models"
)

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(games []*models.Game) error
	Close() error
	Validate() error
}

// NewWriter builds the writer for the configured output format. For the
// dual format the JSON path is derived from the CSV path.
func NewWriter(cfg *config.Config) (OutputWriter, error) {
	switch cfg.OutputFormat {
	case "csv":
		return NewCSVWriter(cfg.OutputFile)
	case "json":
		return NewJSONWriter(cfg.OutputFile)
	case "dual":
		return NewDualWriter(cfg.OutputFile, siblingJSONPath(cfg.OutputFile))
	default:
		return nil, fmt.Errorf("unknown output format %q", cfg.OutputFormat)
	}
}

func siblingJSONPath(csvPath string) string {
	if stem, ok := strings.CutSuffix(csvPath, ".csv"); ok {
		return stem + ".json"
	}
	return csvPath + ".json"
}

// Summary reports what the persistence stage did.
type Summary struct {
	Received    int
	Duplicates  int
	FilteredOut int
	Written     int
}

// Pipeline runs the terminal stage: a bounded duplicate guard, the
// optional release-year filter, deterministic ordering, and the write.
type Pipeline struct {
	writer     OutputWriter
	seen       *lru.Cache[string, struct{}]
	enrichment bool
	targetYear int

	mu sync.Mutex
}

// NewPipeline builds the persistence stage. The duplicate guard is
// LRU-bounded so a pathological page cannot grow it without limit.
func NewPipeline(writer OutputWriter, cfg *config.Config) (*Pipeline, error) {
	seen, err := lru.New[string, struct{}](cfg.DedupeMaxSize)
	if err != nil {
		return nil, fmt.Errorf("create dedupe cache: %w", err)
	}
	return &Pipeline{
		writer:     writer,
		seen:       seen,
		enrichment: cfg.EnrichmentEnabled,
		targetYear: cfg.TargetYear,
	}, nil
}

// Persist deduplicates, filters, sorts, and writes games. When
// enrichment ran, a game without a resolved release date is dropped
// rather than written unlabeled, and the output is ordered newest
// release first; without enrichment the order is alphabetical.
func (p *Pipeline) Persist(games []*models.Game) (Summary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	summary := Summary{Received: len(games)}

	kept := make([]*models.Game, 0, len(games))
	for _, game := range games {
		if game == nil {
			continue
		}
		key := game.CanonicalURL()
		if key == "" {
			key = game.NameKey()
		}
		if _, dup := p.seen.Get(key); dup {
			summary.Duplicates++
			continue
		}
		p.seen.Add(key, struct{}{})

		if p.enrichment && game.ReleaseDate == "" {
			summary.FilteredOut++
			slog.Debug("game has no resolved release date",
				slog.String("name", game.Name),
			)
			continue
		}
		if p.targetYear != 0 && game.ReleaseYear() != p.targetYear {
			summary.FilteredOut++
			slog.Debug("game outside target year",
				slog.String("name", game.Name),
				slog.String("release_date", game.ReleaseDate),
			)
			continue
		}
		kept = append(kept, game)
	}

	if p.enrichment {
		catalog.SortByReleaseDateDesc(kept)
	} else {
		catalog.SortByName(kept)
	}

	if err := p.writer.Write(kept); err != nil {
		return summary, fmt.Errorf("write games: %w", err)
	}
	summary.Written = len(kept)
	return summary, nil
}

// Close finalizes the underlying writer.
func (p *Pipeline) Close() error {
	return p.writer.Close()
}

// Validate checks the produced output files.
func (p *Pipeline) Validate() error {
	return p.writer.Validate()
}
