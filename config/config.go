// Package config holds run configuration for the catalog scraper.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL   string
	UserAgent string
	Headless  bool

	// Page-reveal loop.
	MaxLoadAttempts     int
	NoProgressThreshold int
	MaxScrolls          int
	SettleDelay         time.Duration

	// Release-date enrichment.
	EnrichmentEnabled bool
	TargetYear        int // 0 disables the year filter
	APIBaseURL        string
	APIKey            string
	RequestTimeout    time.Duration

	// Enrichment API rate limit.
	RateMaxRequests int
	RateWindow      time.Duration
	RateMinDelay    time.Duration
	AbuseCooldown   time.Duration
	AbuseMaxRetries int

	CacheFile     string
	OutputFile    string
	OutputFormat  string // csv, json, or dual
	DedupeMaxSize int
	MetricsAddr   string
	Verbose       bool
}

// DefaultConfig returns conservative defaults for the Game Pass catalog.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:             "https://www.xbox.com/en-US/xbox-game-pass/games#all-games",
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Headless:            true,
		MaxLoadAttempts:     50,
		NoProgressThreshold: 5,
		MaxScrolls:          20,
		SettleDelay:         2 * time.Second,
		EnrichmentEnabled:   false,
		TargetYear:          0,
		APIBaseURL:          "https://www.giantbomb.com/api",
		APIKey:              "",
		RequestTimeout:      10 * time.Second,
		RateMaxRequests:     200,
		RateWindow:          time.Hour,
		RateMinDelay:        2 * time.Second,
		AbuseCooldown:       time.Hour,
		AbuseMaxRetries:     3,
		CacheFile:           "release_date_cache.json",
		OutputFile:          "output/gamepass_games.csv",
		OutputFormat:        "dual",
		DedupeMaxSize:       10000,
		MetricsAddr:         "",
		Verbose:             false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.MaxLoadAttempts <= 0 {
		return fmt.Errorf("max load attempts must be positive")
	}
	if c.NoProgressThreshold <= 0 {
		return fmt.Errorf("no-progress threshold must be positive")
	}
	if c.MaxScrolls <= 0 {
		return fmt.Errorf("max scrolls must be positive")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay cannot be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	if c.EnrichmentEnabled {
		if c.APIBaseURL == "" {
			return fmt.Errorf("API base URL cannot be empty when enrichment is enabled")
		}
		if c.APIKey == "" {
			return fmt.Errorf("API key cannot be empty when enrichment is enabled")
		}
		if c.RateMaxRequests <= 0 {
			return fmt.Errorf("rate max requests must be positive")
		}
		if c.RateWindow <= 0 {
			return fmt.Errorf("rate window must be positive")
		}
		if c.RateMinDelay < 0 {
			return fmt.Errorf("rate min delay cannot be negative")
		}
		if c.AbuseCooldown <= 0 {
			return fmt.Errorf("abuse cooldown must be positive")
		}
		if c.AbuseMaxRetries < 0 {
			return fmt.Errorf("abuse max retries cannot be negative")
		}
		if c.CacheFile == "" {
			return fmt.Errorf("cache file cannot be empty when enrichment is enabled")
		}
	}
	if c.TargetYear != 0 && (c.TargetYear < 1970 || c.TargetYear > 2100) {
		return fmt.Errorf("target year %d out of range", c.TargetYear)
	}
	if c.TargetYear != 0 && !c.EnrichmentEnabled {
		return fmt.Errorf("target year filter requires enrichment to be enabled")
	}

	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	return nil
}

// EnvString reads a string environment override.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer environment override.
func EnvInt(key string) (int, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvBool reads a boolean environment override.
func EnvBool(key string) (bool, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return false, false, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, true, nil
}
