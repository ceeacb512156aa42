package robots

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rse-project/rse/internal/fetcher"
)

// Cache fetches and memoizes robots.txt rules per host. Concurrent misses
// on the same host are tolerated: the first racer to take the write lock
// inserts its rules, and later racers discard theirs and return the cached
// value, which is safe because Parse is a pure function of the response
// body and every racer computes the same rules from the same bytes.
type Cache struct {
	fetcher fetcher.Fetcher
	mu      sync.RWMutex
	rules   map[string]Rules
}

// NewCache builds a Cache that uses f to retrieve robots.txt bodies.
func NewCache(f fetcher.Fetcher) *Cache {
	return &Cache{
		fetcher: f,
		rules:   make(map[string]Rules),
	}
}

// hostKey normalizes scheme, host, and port into the cache key.
func hostKey(u *url.URL) string {
	return strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
}

// IsCrawlable reports whether u is allowed by its host's robots.txt,
// fetching and caching the rules on first use. Network failures and
// non-2xx responses are treated as "no restrictions": the host is fully
// crawlable and the caller is never failed by a robots.txt problem.
func (c *Cache) IsCrawlable(ctx context.Context, u *url.URL) bool {
	rules := c.rulesFor(ctx, u)
	return rules.IsCrawlable(strings.ToLower(u.Path))
}

// CrawlDelay returns the Crawl-delay directive for u's host, if one was
// present in its robots.txt.
func (c *Cache) CrawlDelay(ctx context.Context, u *url.URL) (delay float64, ok bool) {
	rules := c.rulesFor(ctx, u)
	if !rules.HasCrawlDelay {
		return 0, false
	}
	return rules.CrawlDelay.Seconds(), true
}

func (c *Cache) rulesFor(ctx context.Context, u *url.URL) Rules {
	key := hostKey(u)

	c.mu.RLock()
	rules, ok := c.rules[key]
	c.mu.RUnlock()
	if ok {
		return rules
	}

	rules = c.fetchRules(ctx, u)

	c.mu.Lock()
	if existing, ok := c.rules[key]; ok {
		c.mu.Unlock()
		return existing
	}
	c.rules[key] = rules
	c.mu.Unlock()

	return rules
}

func (c *Cache) fetchRules(ctx context.Context, u *url.URL) Rules {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)

	res, err := c.fetcher.Fetch(ctx, robotsURL)
	if err != nil || res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return Rules{}
	}

	return Parse(string(res.Body))
}
