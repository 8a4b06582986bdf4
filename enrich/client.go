// Package enrich resolves release dates for catalog entries through an
// external search API, throttled by a sliding-window rate limiter and
// backed by a persistent cache so runs are restartable.
package enrich

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"gamepass-catalog/config"
)

// StatusAbuseDetected is the service's "Enhance Your Calm" status. It is
// distinct from generic 4xx/5xx failures and demands a long cooldown
// rather than a short backoff.
const StatusAbuseDetected = 420

// Outcome classifies the result of a single Lookup.
type Outcome string

const (
	OutcomeCacheHit       Outcome = "cache_hit"
	OutcomeFound          Outcome = "found"
	OutcomeNotFound       Outcome = "not_found"
	OutcomeError          Outcome = "error"
	OutcomeAbuseExhausted Outcome = "abuse_exhausted"
)

// Client queries the release-date search API for single games.
type Client struct {
	http            *resty.Client
	limiter         *RateLimiter
	cache           *Cache
	apiKey          string
	abuseCooldown   time.Duration
	abuseMaxRetries int
	clock           Clock
}

// NewClient builds an enrichment client from cfg. The limiter and cache
// are injected so the orchestrator owns their lifecycle.
func NewClient(cfg *config.Config, limiter *RateLimiter, cache *Cache) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.APIBaseURL).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("User-Agent", "GamePassReleaseChecker/1.0")

	return &Client{
		http:            httpClient,
		limiter:         limiter,
		cache:           cache,
		apiKey:          cfg.APIKey,
		abuseCooldown:   cfg.AbuseCooldown,
		abuseMaxRetries: cfg.AbuseMaxRetries,
		clock:           systemClock{},
	}
}

// WithClock overrides the client's clock. Test hook.
func (c *Client) WithClock(clock Clock) *Client {
	c.clock = clock
	return c
}

// HTTPClient exposes the underlying transport owner for test mocking.
func (c *Client) HTTPClient() *http.Client {
	return c.http.GetClient()
}

// RemainingQuota reports how many requests are left in the limiter's
// current window.
func (c *Client) RemainingQuota() int {
	return c.limiter.Remaining()
}

type searchResponse struct {
	NumberOfTotalResults int `json:"number_of_total_results"`
	Results              []struct {
		OriginalReleaseDate string `json:"original_release_date"`
	} `json:"results"`
}

// Lookup resolves the release date for name. A cached result, including
// a cached "not found", is returned without touching the network. Every
// definitive network answer (success, no match, exhausted retries, or a
// transport/parse failure) is cached so the name is never re-queried.
// date is "" unless the outcome carries one.
func (c *Client) Lookup(ctx context.Context, name string) (date string, outcome Outcome) {
	if cached, ok := c.cache.Get(name); ok {
		if cached == nil {
			return "", OutcomeCacheHit
		}
		return *cached, OutcomeCacheHit
	}

	for attempt := 0; ; attempt++ {
		c.limiter.Acquire()

		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"api_key":   c.apiKey,
				"format":    "json",
				"query":     name,
				"resources": "game",
				"limit":     "1",
			}).
			Get("/search/")
		if err != nil {
			slog.Error("release date request failed",
				slog.String("game", name),
				slog.Any("error", err),
			)
			// An interrupted run never got an answer for this name;
			// caching it would stop a restart from retrying.
			if ctx.Err() == nil {
				c.cacheMiss(name)
			}
			return "", OutcomeError
		}

		if resp.StatusCode() == StatusAbuseDetected {
			if attempt >= c.abuseMaxRetries-1 {
				slog.Error("abuse signal persists, giving up on lookup",
					slog.String("game", name),
					slog.Int("attempts", attempt+1),
				)
				c.cacheMiss(name)
				return "", OutcomeAbuseExhausted
			}
			slog.Warn("abuse signal received, cooling down",
				slog.String("game", name),
				slog.Duration("cooldown", c.abuseCooldown),
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", c.abuseMaxRetries),
			)
			c.clock.Sleep(c.abuseCooldown)
			c.limiter.Reset()
			continue
		}

		if resp.IsError() {
			slog.Error("release date lookup failed",
				slog.String("game", name),
				slog.Int("status", resp.StatusCode()),
			)
			c.cacheMiss(name)
			return "", OutcomeError
		}

		var parsed searchResponse
		if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
			slog.Error("release date response unparseable",
				slog.String("game", name),
				slog.Any("error", err),
			)
			c.cacheMiss(name)
			return "", OutcomeError
		}

		if parsed.NumberOfTotalResults == 0 || len(parsed.Results) == 0 {
			c.cacheMiss(name)
			return "", OutcomeNotFound
		}
		raw := parsed.Results[0].OriginalReleaseDate
		if raw == "" {
			c.cacheMiss(name)
			return "", OutcomeNotFound
		}

		normalized := NormalizeDate(raw)
		if err := c.cache.Put(name, &normalized); err != nil {
			slog.Error("cache write failed", slog.Any("error", err))
		}
		return normalized, OutcomeFound
	}
}

func (c *Client) cacheMiss(name string) {
	if err := c.cache.Put(name, nil); err != nil {
		slog.Error("cache write failed", slog.Any("error", err))
	}
}

// NormalizeDate reduces a service date, "YYYY-MM-DD" optionally followed
// by a time-of-day, to its plain ISO date. Input that does not parse is
// passed through date-part-only so a slightly off-spec value still sorts.
func NormalizeDate(raw string) string {
	datePart := strings.Fields(raw)
	if len(datePart) == 0 {
		return ""
	}
	parsed, err := time.Parse("2006-01-02", datePart[0])
	if err != nil {
		return datePart[0]
	}
	return parsed.Format("2006-01-02")
}
