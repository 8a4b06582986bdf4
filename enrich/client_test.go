package enrich

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"gamepass-catalog/config"
)

const searchURL = "https://api.test/search/"

func newTestClient(t *testing.T, clock *fakeClock) *Client {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.EnrichmentEnabled = true
	cfg.APIBaseURL = "https://api.test"
	cfg.APIKey = "test-key"
	cfg.AbuseCooldown = time.Hour
	cfg.AbuseMaxRetries = 3

	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache.json"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	limiter := NewRateLimiter(cfg.RateMaxRequests, cfg.RateWindow, 0).WithClock(clock)

	client := NewClient(cfg, limiter, cache).WithClock(clock)
	httpmock.ActivateNonDefault(client.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func foundResponder(date string) httpmock.Responder {
	return httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
		"number_of_total_results": 1,
		"results": []map[string]any{
			{"original_release_date": date},
		},
	})
}

func TestLookupFoundNormalizesAndCaches(t *testing.T) {
	clock := newFakeClock()
	client := newTestClient(t, clock)
	httpmock.RegisterResponder("GET", searchURL, foundResponder("2025-03-15 00:00:00"))

	date, outcome := client.Lookup(context.Background(), "Halo Infinite")
	if outcome != OutcomeFound {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeFound)
	}
	if date != "2025-03-15" {
		t.Fatalf("date = %q, want 2025-03-15", date)
	}

	date, outcome = client.Lookup(context.Background(), "halo infinite")
	if outcome != OutcomeCacheHit {
		t.Fatalf("second outcome = %q, want %q", outcome, OutcomeCacheHit)
	}
	if date != "2025-03-15" {
		t.Fatalf("cached date = %q, want 2025-03-15", date)
	}
	if calls := httpmock.GetTotalCallCount(); calls != 1 {
		t.Fatalf("network calls = %d, want 1", calls)
	}
}

func TestLookupNotFoundCachedAsNull(t *testing.T) {
	clock := newFakeClock()
	client := newTestClient(t, clock)
	httpmock.RegisterResponder("GET", searchURL,
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"number_of_total_results": 0,
			"results":                 []map[string]any{},
		}))

	if _, outcome := client.Lookup(context.Background(), "Obscure Game"); outcome != OutcomeNotFound {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeNotFound)
	}
	// The negative answer is cached; the name is never re-queried.
	if _, outcome := client.Lookup(context.Background(), "Obscure Game"); outcome != OutcomeCacheHit {
		t.Fatalf("second outcome = %q, want %q", outcome, OutcomeCacheHit)
	}
	if calls := httpmock.GetTotalCallCount(); calls != 1 {
		t.Fatalf("network calls = %d, want 1", calls)
	}
}

func TestLookupAbuseCooldownThenSuccess(t *testing.T) {
	clock := newFakeClock()
	client := newTestClient(t, clock)

	calls := 0
	httpmock.RegisterResponder("GET", searchURL,
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls <= 2 {
				return httpmock.NewStringResponse(StatusAbuseDetected, ""), nil
			}
			return foundResponder("2025-07-01")(req)
		})

	date, outcome := client.Lookup(context.Background(), "Starfield")
	if outcome != OutcomeFound {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeFound)
	}
	if date != "2025-07-01" {
		t.Fatalf("date = %q, want 2025-07-01", date)
	}
	if calls != 3 {
		t.Fatalf("network calls = %d, want 3", calls)
	}

	cooldowns := 0
	for _, d := range clock.sleeps() {
		if d == time.Hour {
			cooldowns++
		}
	}
	if cooldowns != 2 {
		t.Fatalf("cooldown sleeps = %d, want 2 (sleeps: %v)", cooldowns, clock.sleeps())
	}
}

func TestLookupAbuseExhausted(t *testing.T) {
	clock := newFakeClock()
	client := newTestClient(t, clock)
	httpmock.RegisterResponder("GET", searchURL,
		httpmock.NewStringResponder(StatusAbuseDetected, ""))

	_, outcome := client.Lookup(context.Background(), "Starfield")
	if outcome != OutcomeAbuseExhausted {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeAbuseExhausted)
	}
	if calls := httpmock.GetTotalCallCount(); calls != 3 {
		t.Fatalf("network calls = %d, want 3", calls)
	}

	// Exhaustion is recorded, so a retry of the same name stays local.
	if _, outcome := client.Lookup(context.Background(), "Starfield"); outcome != OutcomeCacheHit {
		t.Fatalf("second outcome = %q, want %q", outcome, OutcomeCacheHit)
	}
	if calls := httpmock.GetTotalCallCount(); calls != 3 {
		t.Fatalf("network calls after cache hit = %d, want 3", calls)
	}
}

func TestLookupCancelledRunNotCached(t *testing.T) {
	clock := newFakeClock()
	client := newTestClient(t, clock)
	httpmock.RegisterResponder("GET", searchURL, foundResponder("2025-03-15 00:00:00"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, outcome := client.Lookup(ctx, "Halo Infinite"); outcome != OutcomeError {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeError)
	}

	// The name was never answered, so a later run queries the network.
	date, outcome := client.Lookup(context.Background(), "Halo Infinite")
	if outcome != OutcomeFound {
		t.Fatalf("retry outcome = %q, want %q", outcome, OutcomeFound)
	}
	if date != "2025-03-15" {
		t.Fatalf("retry date = %q, want 2025-03-15", date)
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "2025-03-15 00:00:00", want: "2025-03-15"},
		{raw: "2025-03-15", want: "2025-03-15"},
		{raw: "2025/03/15", want: "2025/03/15"},
		{raw: "", want: ""},
		{raw: "   ", want: ""},
	}
	for _, tt := range tests {
		if got := NormalizeDate(tt.raw); got != tt.want {
			t.Fatalf("NormalizeDate(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
