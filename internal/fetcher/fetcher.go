// Package fetcher implements the polite HTTP retrieval step of the crawl
// pipeline. It knows nothing about HTML, links, or words: it downloads a
// URL and hands back the raw body, leaving parsing to the extractor
// package.
package fetcher

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/rehttp"

	"github.com/rse-project/rse/internal/rseerr"
)

// Response is the result of a single fetch: the page body together with
// enough metadata for the caller to log or account for the request.
type Response struct {
	Body        []byte
	StatusCode  int
	ContentType string
	FinalURL    string
	Elapsed     time.Duration
}

// Fetcher downloads a single URL over HTTP.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// stdHTTPFetcher is a Fetcher backed by the standard library's http.Client,
// wrapped in a rehttp transport that retries transient failures with an
// exponential, jittered backoff.
type stdHTTPFetcher struct {
	userAgent string
	client    *http.Client
}

// New builds a Fetcher with the given User-Agent string and per-request
// timeout. It retries temporary errors (most of them transport-level) up
// to 3 times with jittered exponential backoff.
func New(userAgent string, timeout time.Duration) Fetcher {
	transport := rehttp.NewTransport(
		&http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
		rehttp.RetryAll(rehttp.RetryMaxRetries(3), rehttp.RetryTemporaryErr()),
		rehttp.ExpJitterDelay(1*time.Second, 10*time.Second),
	)
	client := &http.Client{Timeout: timeout, Transport: transport}
	return &stdHTTPFetcher{userAgent: userAgent, client: client}
}

// Fetch issues a single GET request, setting the headers a well-behaved
// crawler is expected to send, and reads the full body into memory.
func (f *stdHTTPFetcher) Fetch(ctx context.Context, target string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, rseerr.Wrap(rseerr.InvalidURL, err, "building request for %s", target)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Connection", "keep-alive")

	start := time.Now()
	res, err := f.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return nil, rseerr.Wrap(rseerr.Network, err, "fetching %s", target)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, rseerr.Wrap(rseerr.IO, err, "reading body of %s", target)
	}

	finalURL := target
	if res.Request != nil && res.Request.URL != nil {
		finalURL = res.Request.URL.String()
	}

	return &Response{
		Body:        body,
		StatusCode:  res.StatusCode,
		ContentType: res.Header.Get("Content-Type"),
		FinalURL:    finalURL,
		Elapsed:     elapsed,
	}, nil
}
