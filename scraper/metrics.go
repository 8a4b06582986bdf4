package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry            *prometheus.Registry
	ItemsExtractedTotal prometheus.Counter
	ItemsRejectedTotal  prometheus.Counter
	ItemsKeptTotal      prometheus.Counter
	RevealAttemptsTotal *prometheus.CounterVec
	EnrichmentTotal     *prometheus.CounterVec
	LookupDuration      prometheus.Histogram
	ErrorsTotal         *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	itemsExtracted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_items_extracted_total",
			Help: "Total catalog entries accepted by extraction.",
		},
	)
	itemsRejected := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_items_rejected_total",
			Help: "Total link candidates rejected during extraction.",
		},
	)
	itemsKept := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_items_kept_total",
			Help: "Total games surviving dedupe and filtering into the output.",
		},
	)
	revealAttempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_reveal_attempts_total",
			Help: "Total page-reveal attempts by action taken.",
		},
		[]string{"action"},
	)
	enrichment := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_enrichment_lookups_total",
			Help: "Total release-date lookups by outcome.",
		},
		[]string{"outcome"},
	)
	lookupDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_enrichment_lookup_duration_seconds",
			Help:    "Wall-clock duration of release-date lookups, rate-limit waits included.",
			Buckets: prometheus.DefBuckets,
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(itemsExtracted, itemsRejected, itemsKept, revealAttempts, enrichment, lookupDuration, errorsTotal)

	return &Metrics{
		Registry:            registry,
		ItemsExtractedTotal: itemsExtracted,
		ItemsRejectedTotal:  itemsRejected,
		ItemsKeptTotal:      itemsKept,
		RevealAttemptsTotal: revealAttempts,
		EnrichmentTotal:     enrichment,
		LookupDuration:      lookupDuration,
		ErrorsTotal:         errorsTotal,
	}
}

// IncExtracted adds accepted extraction results.
func (m *Metrics) IncExtracted(n int) {
	if m == nil {
		return
	}
	m.ItemsExtractedTotal.Add(float64(n))
}

// IncRejected adds rejected link candidates.
func (m *Metrics) IncRejected(n int) {
	if m == nil {
		return
	}
	m.ItemsRejectedTotal.Add(float64(n))
}

// AddKept adds games written to the output.
func (m *Metrics) AddKept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ItemsKeptTotal.Add(float64(n))
}

// AddReveal adds reveal attempts for an action label.
func (m *Metrics) AddReveal(action string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RevealAttemptsTotal.WithLabelValues(action).Add(float64(n))
}

// IncEnrichment increments the lookup counter for an outcome label.
func (m *Metrics) IncEnrichment(outcome string) {
	if m == nil {
		return
	}
	m.EnrichmentTotal.WithLabelValues(outcome).Inc()
}

// ObserveLookup records one release-date lookup duration.
func (m *Metrics) ObserveLookup(d time.Duration) {
	if m == nil {
		return
	}
	m.LookupDuration.Observe(d.Seconds())
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
