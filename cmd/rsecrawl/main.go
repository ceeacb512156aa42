// Command rsecrawl runs a single crawl to completion: it loads
// configuration, wires the robots cache, extractor, frontier, crawl
// engine, and storage adapter together, then seeds and drives the crawl.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rse-project/rse/internal/config"
	"github.com/rse-project/rse/internal/crawlengine"
	"github.com/rse-project/rse/internal/extractor"
	"github.com/rse-project/rse/internal/fetcher"
	"github.com/rse-project/rse/internal/frontier"
	"github.com/rse-project/rse/internal/messaging"
	"github.com/rse-project/rse/internal/robots"
	"github.com/rse-project/rse/internal/seed"
	"github.com/rse-project/rse/internal/store/sqlite"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rsecrawl",
		Short: "Crawl seed URLs and index the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	return cmd
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	seedURLs, err := seed.ReadURLs(cfg.SeedURLs)
	if err != nil {
		return fmt.Errorf("reading seed urls: %w", err)
	}

	store, err := sqlite.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	ft := fetcher.New(cfg.UserAgent, cfg.HTTPTimeout)
	robotsCache := robots.NewCache(ft)
	politeness := frontier.NewPoliteness(cfg.Delay)

	var frontierOpts []frontier.Option
	if cfg.HasMaxCrawlDepth {
		frontierOpts = append(frontierOpts, frontier.WithMaxDepth(cfg.MaxCrawlDepth))
	}
	fr := frontier.New(cfg.CrawlerWorkers*cfg.ScraperCapacityMult, frontierOpts...)

	events := messaging.NewChannelQueue(cfg.CrawlerWorkers)
	eventSink := make(chan []byte)
	go func() {
		for range eventSink {
			// Side-channel consumer: a real deployment would forward
			// these to analytics or a second indexer. The crawl itself
			// does not depend on anyone listening.
		}
	}()
	go func() { _ = events.Consume(eventSink) }()
	defer events.Close()

	engineCfg := crawlengine.Config{
		NumFetchers:          cfg.CrawlerWorkers,
		NumProcessors:        cfg.ProcessingWorkers,
		Delay:                cfg.Delay,
		ProcessorCapacityMul: cfg.ProcessorCapacityMult,
		Bounds: extractor.Bounds{
			MinFreq:   cfg.MinWordFrequency,
			MaxFreq:   cfg.MaxWordFrequency,
			MinLength: cfg.MinWordLength,
			MaxLength: cfg.MaxWordLength,
		},
	}
	engine := crawlengine.New(engineCfg, fr, robotsCache, ft, store, politeness, events)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	engine.Run(ctx, seedURLs)
	fmt.Printf("crawl finished in %s\n", time.Since(start))

	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
