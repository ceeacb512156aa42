// Package crawlengine orchestrates the crawl: a pool of fetch workers
// pulls URLs off the frontier, consults the robots cache, downloads the
// page, and hands it to a pool of process workers that extract structured
// data and persist it. A single control loop retires discovered links
// back onto the frontier and decides when the whole crawl is done.
package crawlengine

import (
	"context"
	"log"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rse-project/rse/internal/extractor"
	"github.com/rse-project/rse/internal/fetcher"
	"github.com/rse-project/rse/internal/frontier"
	"github.com/rse-project/rse/internal/messaging"
	"github.com/rse-project/rse/internal/robots"
	"github.com/rse-project/rse/internal/storage"
)

// ScrapedPage is the in-flight item handed from a fetch worker to a
// process worker. It exists only between fetch completion and process
// completion, then it is dropped.
type ScrapedPage struct {
	URL   string
	Body  []byte
	Links []*url.URL
	Depth int
}

// discovery is a single fetch worker's report of new links found on a
// page, destined for the control loop.
type discovery struct {
	sourceURL string
	found     map[string]int // url -> depth
}

// Config bundles the knobs the engine needs beyond its collaborators.
type Config struct {
	NumFetchers          int
	NumProcessors        int
	Delay                time.Duration
	ProcessorCapacityMul int
	Bounds               extractor.Bounds
}

// Engine drives a single crawl to completion.
type Engine struct {
	cfg        Config
	frontier   *frontier.Frontier
	robots     *robots.Cache
	fetcher    fetcher.Fetcher
	store      storage.Store
	politeness *frontier.Politeness
	events     messaging.Producer

	items      chan ScrapedPage
	discovered chan discovery

	activeFetchers int64
}

// New builds an Engine. events may be nil, in which case the
// CrawledPage side-channel is simply not published.
func New(cfg Config, f *frontier.Frontier, rc *robots.Cache, ft fetcher.Fetcher, store storage.Store, politeness *frontier.Politeness, events messaging.Producer) *Engine {
	return &Engine{
		cfg:        cfg,
		frontier:   f,
		robots:     rc,
		fetcher:    ft,
		store:      store,
		politeness: politeness,
		events:     events,
		items:      make(chan ScrapedPage, cfg.NumProcessors*cfg.ProcessorCapacityMul),
		discovered: make(chan discovery, cfg.NumFetchers),
	}
}

// Run seeds the frontier and drives the crawl to completion, returning
// once every discovered URL has been fetched and processed.
func (e *Engine) Run(ctx context.Context, seeds []string) {
	e.frontier.Seed(seeds)

	var fetchWG, processWG sync.WaitGroup

	fetchWG.Add(e.cfg.NumFetchers)
	for i := 0; i < e.cfg.NumFetchers; i++ {
		go func() {
			defer fetchWG.Done()
			e.fetchWorker(ctx)
		}()
	}

	processWG.Add(e.cfg.NumProcessors)
	for i := 0; i < e.cfg.NumProcessors; i++ {
		go func() {
			defer processWG.Done()
			e.processWorker()
		}()
	}

	controlDone := make(chan struct{})
	go func() {
		defer close(controlDone)
		e.controlLoop()
	}()

	<-controlDone
	fetchWG.Wait()
	close(e.items)
	processWG.Wait()
}

// fetchWorker implements the fetch-worker loop of §4.4: pop an item,
// check robots, fetch, extract links, forward the page and its
// discoveries, then pace itself. The depth cap is not checked here; the
// frontier applies it when a URL is enqueued.
func (e *Engine) fetchWorker(ctx context.Context) {
	for {
		item, ok := e.frontier.Next()
		if !ok {
			return
		}

		atomic.AddInt64(&e.activeFetchers, 1)
		e.fetchOne(ctx, item)
		atomic.AddInt64(&e.activeFetchers, -1)
	}
}

func (e *Engine) fetchOne(ctx context.Context, item frontier.Item) {
	defer time.Sleep(e.cfg.Delay)

	parsed, err := url.Parse(item.URL)
	if err != nil {
		log.Printf("crawlengine: skipping invalid url %q: %v", item.URL, err)
		return
	}

	if !e.robots.IsCrawlable(ctx, parsed) {
		log.Printf("crawlengine: %s disallowed by robots.txt", item.URL)
		return
	}

	if e.politeness != nil {
		delay := time.Duration(0)
		if seconds, ok := e.robots.CrawlDelay(ctx, parsed); ok {
			delay = time.Duration(seconds * float64(time.Second))
		}
		e.politeness.Wait(parsed, delay)
	}

	res, err := e.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		log.Printf("crawlengine: fetching %s failed: %v", item.URL, err)
		return
	}
	if res.StatusCode >= 400 {
		log.Printf("crawlengine: fetching %s failed: status %d", item.URL, res.StatusCode)
		return
	}
	log.Printf("crawlengine: fetched %s (%s in %s)", item.URL, humanize.Bytes(uint64(len(res.Body))), res.Elapsed.Round(time.Millisecond))

	doc, err := extractor.ParseHTML(res.Body)
	if err != nil {
		log.Printf("crawlengine: parsing %s failed: %v", item.URL, err)
		return
	}
	links := extractor.ExtractLinks(doc, parsed)

	e.items <- ScrapedPage{URL: item.URL, Body: res.Body, Links: links, Depth: item.Depth}

	found := make(map[string]int, len(links))
	for _, link := range links {
		found[link.String()] = item.Depth + 1
	}
	e.discovered <- discovery{sourceURL: item.URL, found: found}

	if e.events != nil {
		linkStrs := make([]string, 0, len(links))
		for _, l := range links {
			linkStrs = append(linkStrs, l.String())
		}
		if err := messaging.PublishCrawledPage(e.events, messaging.CrawledPage{
			URL: item.URL, Depth: item.Depth, Links: linkStrs,
		}); err != nil {
			log.Printf("crawlengine: publishing crawled-page event for %s failed: %v", item.URL, err)
		}
	}
}

// processWorker implements the process-worker loop of §4.4: run the
// extractor over a scraped page's body and persist the results.
func (e *Engine) processWorker() {
	for page := range e.items {
		e.processOne(page)
	}
}

func (e *Engine) processOne(page ScrapedPage) {
	base, err := url.Parse(page.URL)
	if err != nil {
		log.Printf("crawlengine: processing %s failed: %v", page.URL, err)
		return
	}

	doc, err := extractor.ParseHTML(page.Body)
	if err != nil {
		log.Printf("crawlengine: processing %s failed: %v", page.URL, err)
		return
	}

	title := extractor.ExtractTitle(doc)
	description := extractor.ExtractDescription(doc)
	language := extractor.ExtractLanguage(doc)

	persisted, err := e.store.CreatePage(page.URL, title, description)
	if err != nil {
		log.Printf("crawlengine: create_page(%s) failed: %v", page.URL, err)
		return
	}

	freqByURL := make(map[string]int, len(page.Links))
	for _, link := range page.Links {
		if link.String() == base.String() {
			continue // a page linking to itself is skipped
		}
		freqByURL[link.String()]++
	}
	if len(freqByURL) > 0 {
		if err := e.store.CreateForwardLinks(persisted.ID, freqByURL); err != nil {
			log.Printf("crawlengine: create_forward_links(%s) failed: %v", page.URL, err)
		}
	}

	words, err := extractor.ExtractWords(doc, language, e.cfg.Bounds)
	if err != nil {
		log.Printf("crawlengine: extract_words(%s) failed: %v", page.URL, err)
		return
	}
	if len(words) == 0 {
		return
	}
	keywords := make([]storage.Keyword, 0, len(words))
	for word, freq := range words {
		keywords = append(keywords, storage.Keyword{PageID: persisted.ID, Word: word, Freq: freq})
	}
	if err := e.store.CreateKeywords(keywords); err != nil {
		log.Printf("crawlengine: create_keywords(%s) failed: %v", page.URL, err)
	}
}

// controlLoop owns the frontier's send side and the discovered channel's
// receive side. It re-enqueues discoveries and decides, via the
// termination predicate, when to close the frontier.
func (e *Engine) controlLoop() {
	for {
		select {
		case d := <-e.discovered:
			for u, depth := range d.found {
				e.frontier.TryEnqueue(u, depth)
			}
			continue
		default:
		}

		if len(e.discovered) == 0 && e.frontier.Len() == 0 && atomic.LoadInt64(&e.activeFetchers) == 0 {
			e.frontier.Close()
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}
