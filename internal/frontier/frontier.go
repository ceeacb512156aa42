// Package frontier implements the bounded, deduplicating URL queue that
// feeds the crawl engine's fetch workers.
package frontier

import (
	"sync"
	"time"
)

// Item is a single (URL, depth) pair waiting to be fetched.
type Item struct {
	URL   string
	Depth int
}

// Frontier tracks which URLs have ever been queued and hands them out
// through a bounded channel. It never drops an unseen URL for lack of
// capacity: try_enqueue retries on a full channel instead, letting
// backpressure slow producers down.
type Frontier struct {
	maxDepth    int
	hasMaxDepth bool

	mu   sync.Mutex
	seen map[string]bool

	toVisit  chan Item
	retryGap time.Duration
}

// Option configures a Frontier at construction time.
type Option func(*Frontier)

// WithMaxDepth caps the depth at which URLs are dropped before queueing.
func WithMaxDepth(depth int) Option {
	return func(f *Frontier) {
		f.maxDepth = depth
		f.hasMaxDepth = true
	}
}

// New builds a Frontier whose to_visit channel has the given capacity,
// typically NumFetchers * SCRAPER_CAPACITY_MULTIPLIER.
func New(capacity int, opts ...Option) *Frontier {
	f := &Frontier{
		seen:     make(map[string]bool),
		toVisit:  make(chan Item, capacity),
		retryGap: 5 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Seed inserts every seed URL into the seen-set and enqueues it at depth
// 0. Seeds are pushed once, at startup, and are never subject to the
// max-depth cutoff.
func (f *Frontier) Seed(urls []string) {
	for _, u := range urls {
		f.mu.Lock()
		alreadySeen := f.seen[u]
		if !alreadySeen {
			f.seen[u] = true
		}
		f.mu.Unlock()
		if alreadySeen {
			continue
		}
		f.toVisit <- Item{URL: u, Depth: 0}
	}
}

// TryEnqueue inserts url into the seen-set and sends it onto the to_visit
// channel, unless it has already been seen or depth is at or beyond
// MaxDepth (if configured), in which case it is dropped silently. A full channel is
// retried after a short sleep rather than dropping the URL.
func (f *Frontier) TryEnqueue(url string, depth int) {
	if f.hasMaxDepth && depth >= f.maxDepth {
		return
	}

	f.mu.Lock()
	if f.seen[url] {
		f.mu.Unlock()
		return
	}
	f.seen[url] = true
	f.mu.Unlock()

	item := Item{URL: url, Depth: depth}
	for {
		select {
		case f.toVisit <- item:
			return
		default:
			time.Sleep(f.retryGap)
		}
	}
}

// Next receives the next item from the queue. ok is false once the
// channel has been closed and drained, signaling that the engine has
// dropped the producer side.
func (f *Frontier) Next() (item Item, ok bool) {
	item, ok = <-f.toVisit
	return item, ok
}

// Len reports how many items are currently buffered, used by the control
// loop's termination predicate.
func (f *Frontier) Len() int {
	return len(f.toVisit)
}

// Cap reports the to_visit channel's capacity.
func (f *Frontier) Cap() int {
	return cap(f.toVisit)
}

// Close drops the send side of to_visit. Fetch workers observe this as a
// closed channel once the buffer drains.
func (f *Frontier) Close() {
	close(f.toVisit)
}
