// Package config centralizes the environment-driven settings for both the
// crawler and the search binaries. A single Config value is built once at
// startup (via Load) and threaded explicitly into every constructor from
// there on, rather than read from the environment ad hoc throughout the
// codebase.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rse-project/rse/internal/rseerr"
)

const defaultUserAgentFormat = "RSE/%s"

// Version is the crawler's release version, baked in at build time via
// -ldflags; it feeds the default User-Agent the same way the Rust original
// derived DEFAULT_USER_AGENT from CARGO_PKG_VERSION.
var Version = "0.1.0"

// Config holds every tunable named in the system specification.
type Config struct {
	// Crawler
	Delay               time.Duration
	CrawlerWorkers      int
	ProcessingWorkers   int
	MaxCrawlDepth       int
	HasMaxCrawlDepth    bool
	HTTPTimeout         time.Duration
	UserAgent           string
	MinWordFrequency    int
	MaxWordFrequency    int
	MinWordLength       int
	MaxWordLength       int
	SeedURLs            string
	DatabaseURL         string
	ScraperCapacityMult int
	ProcessorCapacityMult int

	// Ranker / search
	RankerConstant    float64
	RatingFactor      float64
	ListeningAddress  string
}

// Load builds a Config from the process environment, applying the defaults
// spelled out in the specification's configuration table. Viper is used as
// the loader so every key also accepts a matching CLI flag or config file
// entry when wired up by a cobra command, while still defaulting cleanly
// from the bare environment for simple `DELAY=2 ./rsecrawl` invocations.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("delay", 1)
	v.SetDefault("crawler_workers", 1)
	v.SetDefault("processing_workers", 1)
	v.SetDefault("max_crawl_depth", -1)
	v.SetDefault("http_timeout", 10)
	v.SetDefault("user_agent", fmt.Sprintf(defaultUserAgentFormat, Version))
	v.SetDefault("min_word_frequency", 1)
	v.SetDefault("max_word_frequency", 100)
	v.SetDefault("min_word_length", 3)
	v.SetDefault("max_word_length", 20)
	v.SetDefault("scraper_capacity_multiplier", 400)
	v.SetDefault("processor_capacity_multiplier", 10)
	v.SetDefault("ranker_constant", 0.7)
	v.SetDefault("rating_factor", 0.4)
	v.SetDefault("listening_address", "0.0.0.0:8080")

	maxDepth := v.GetInt("max_crawl_depth")

	cfg := &Config{
		Delay:                 time.Duration(v.GetInt("delay")) * time.Second,
		CrawlerWorkers:        v.GetInt("crawler_workers"),
		ProcessingWorkers:     v.GetInt("processing_workers"),
		MaxCrawlDepth:         maxDepth,
		HasMaxCrawlDepth:      maxDepth >= 0,
		HTTPTimeout:           time.Duration(v.GetInt("http_timeout")) * time.Second,
		UserAgent:             v.GetString("user_agent"),
		MinWordFrequency:      v.GetInt("min_word_frequency"),
		MaxWordFrequency:      v.GetInt("max_word_frequency"),
		MinWordLength:         v.GetInt("min_word_length"),
		MaxWordLength:         v.GetInt("max_word_length"),
		SeedURLs:              v.GetString("seed_urls"),
		DatabaseURL:           v.GetString("database_url"),
		ScraperCapacityMult:   v.GetInt("scraper_capacity_multiplier"),
		ProcessorCapacityMult: v.GetInt("processor_capacity_multiplier"),
		RankerConstant:        v.GetFloat64("ranker_constant"),
		RatingFactor:          v.GetFloat64("rating_factor"),
		ListeningAddress:      v.GetString("listening_address"),
	}

	if cfg.SeedURLs == "" {
		return nil, rseerr.New(rseerr.Internal, "SEED_URLS must be set")
	}
	if cfg.DatabaseURL == "" {
		return nil, rseerr.New(rseerr.Internal, "DATABASE_URL must be set")
	}

	return cfg, nil
}

// LoadForSearch builds a Config for the search binary, which does not
// require SEED_URLS to be present.
func LoadForSearch() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("database_url", "")
	v.SetDefault("ranker_constant", 0.7)
	v.SetDefault("rating_factor", 0.4)
	v.SetDefault("listening_address", "0.0.0.0:8080")

	cfg := &Config{
		DatabaseURL:      v.GetString("database_url"),
		RankerConstant:   v.GetFloat64("ranker_constant"),
		RatingFactor:     v.GetFloat64("rating_factor"),
		ListeningAddress: v.GetString("listening_address"),
	}

	if cfg.DatabaseURL == "" {
		return nil, rseerr.New(rseerr.Internal, "DATABASE_URL must be set")
	}

	return cfg, nil
}
