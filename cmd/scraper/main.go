package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gamepass-catalog/browser"
	"gamepass-catalog/config"
	"gamepass-catalog/enrich"
	"gamepass-catalog/models"
	"gamepass-catalog/pipeline"
	"gamepass-catalog/scraper"
)

func main() {
	defaultCfg := config.DefaultConfig()

	apiKeyDefault := defaultCfg.APIKey
	if value, ok := config.EnvString("GAMEPASS_API_KEY"); ok {
		apiKeyDefault = value
	}
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("GAMEPASS_OUTPUT"); ok {
		outputDefault = value
	}
	cacheDefault := defaultCfg.CacheFile
	if value, ok := config.EnvString("GAMEPASS_CACHE"); ok {
		cacheDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("GAMEPASS_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	attemptsDefault := defaultCfg.MaxLoadAttempts
	if value, ok, err := config.EnvInt("GAMEPASS_MAX_ATTEMPTS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid GAMEPASS_MAX_ATTEMPTS: %v\n", err)
		os.Exit(1)
	} else if ok {
		attemptsDefault = value
	}
	headlessDefault := defaultCfg.Headless
	if value, ok, err := config.EnvBool("GAMEPASS_HEADLESS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid GAMEPASS_HEADLESS: %v\n", err)
		os.Exit(1)
	} else if ok {
		headlessDefault = value
	}

	baseURL := flag.String("base-url", defaultCfg.BaseURL, "Catalog page URL")
	headless := flag.Bool("headless", headlessDefault, "Run the browser headless")
	maxAttempts := flag.Int("max-attempts", attemptsDefault, "Maximum page-reveal attempts")
	enrichDates := flag.Bool("enrich", false, "Resolve release dates through the search API")
	apiKey := flag.String("api-key", apiKeyDefault, "Search API key (required with -enrich)")
	targetYear := flag.Int("year", defaultCfg.TargetYear, "Keep only games released in this year (0 disables)")
	cacheFile := flag.String("cache", cacheDefault, "Release-date cache file path")
	outputFile := flag.String("output", outputDefault, "Output file path")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: csv, json, or dual")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaultCfg
	cfg.BaseURL = *baseURL
	cfg.Headless = *headless
	cfg.MaxLoadAttempts = *maxAttempts
	cfg.EnrichmentEnabled = *enrichDates
	cfg.APIKey = *apiKey
	cfg.TargetYear = *targetYear
	cfg.CacheFile = *cacheFile
	cfg.OutputFile = *outputFile
	cfg.OutputFormat = strings.ToLower(*outputFormat)
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting catalog scrape",
		slog.String("base_url", cfg.BaseURL),
		slog.Bool("headless", cfg.Headless),
		slog.Bool("enrichment", cfg.EnrichmentEnabled),
		slog.Int("target_year", cfg.TargetYear),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing in-flight work")
	}()

	page, err := browser.NewChromePage(ctx, cfg)
	if err != nil {
		slog.Error("acquiring browser", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := page.Close(); err != nil {
			slog.Error("close browser", slog.Any("error", err))
		}
	}()

	var client *enrich.Client
	if cfg.EnrichmentEnabled {
		cache, err := enrich.OpenCache(cfg.CacheFile)
		if err != nil {
			slog.Error("opening release-date cache", slog.Any("error", err))
			os.Exit(1)
		}
		limiter := enrich.NewRateLimiter(cfg.RateMaxRequests, cfg.RateWindow, cfg.RateMinDelay)
		client = enrich.NewClient(cfg, limiter, cache)
	}

	writer, err := pipeline.NewWriter(cfg)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}
	p, err := pipeline.NewPipeline(writer, cfg)
	if err != nil {
		slog.Error("creating pipeline", slog.Any("error", err))
		os.Exit(1)
	}

	s := scraper.NewScraper(cfg, page, client)

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" && s.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	result, err := s.Run(ctx, p)
	if err != nil {
		p.Close()
		slog.Error("scraping failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := p.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, cfg.OutputFile)
}

func printSummary(result *models.ScrapeResult, outputFile string) {
	separator := "--------------------------------------------------"
	duration := result.EndTime.Sub(result.StartTime)

	fmt.Println("\n" + separator)
	fmt.Println("Catalog scrape complete")
	fmt.Printf("  Games found:     %d\n", len(result.Games))
	fmt.Printf("  Reveal attempts: %d\n", result.RevealAttempts)
	fmt.Printf("  Enriched:        %d\n", result.Enriched)
	fmt.Printf("  Filtered out:    %d\n", result.FilteredOut)
	fmt.Printf("  Errors:          %d\n", result.ErrorCount)
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:     %v\n", result.ErrorsByType)
	}
	fmt.Printf("  Duration:        %v\n", duration.Round(time.Millisecond))
	fmt.Printf("  Output file:     %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
