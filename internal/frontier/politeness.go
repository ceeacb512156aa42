package frontier

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Politeness enforces a minimum delay between requests to the same host,
// supplementing the engine's per-worker post-fetch delay with a per-host
// rate limiter seeded from robots.txt's Crawl-delay when one is known.
// This is the "stricter per-host scheduler" the concurrency model calls a
// legitimate implementation choice beyond the baseline per-worker delay.
type Politeness struct {
	defaultDelay time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewPoliteness builds a Politeness gate using defaultDelay as the
// minimum per-host spacing for hosts with no known crawl-delay.
func NewPoliteness(defaultDelay time.Duration) *Politeness {
	return &Politeness{
		defaultDelay: defaultDelay,
		limiters:     make(map[string]*rate.Limiter),
	}
}

// Wait blocks until host may be fetched again, applying crawlDelay (if
// positive) in place of the default delay for that host's limiter.
func (p *Politeness) Wait(u *url.URL, crawlDelay time.Duration) {
	limiter := p.limiterFor(u.Host, crawlDelay)
	_ = limiter.Wait(context.Background())
}

func (p *Politeness) limiterFor(host string, crawlDelay time.Duration) *rate.Limiter {
	delay := p.defaultDelay
	if crawlDelay > 0 {
		delay = crawlDelay
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	limiter, ok := p.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
		limiter.Allow() // consume the initial burst token so the first wait still spaces out
		p.limiters[host] = limiter
		return limiter
	}
	return limiter
}
