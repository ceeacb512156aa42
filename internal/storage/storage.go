// Package storage declares the persistence contract the crawl pipeline and
// search service depend on. The core never talks to a database directly;
// it issues create operations and read queries against this interface,
// leaving the schema and SQL dialect to a concrete adapter such as
// internal/store/sqlite.
package storage

import "time"

// Page is a persisted, indexed page.
type Page struct {
	ID            int64
	URL           string
	Title         string
	Description   string
	LastCrawledAt time.Time
}

// Keyword is a stemmed word occurring on a page, with its frequency.
type Keyword struct {
	PageID int64
	Word   string
	Freq   int
}

// ForwardLink records how many times a page links to a target URL.
type ForwardLink struct {
	FromPageID int64
	ToURL      string
	Freq       int
}

// CompletePage bundles a page with its keywords, used when the search
// path needs both at once (e.g. backlink sources for ranking).
type CompletePage struct {
	Page
	Keywords []Keyword
}

// Store is the persistence contract implemented by a concrete adapter.
type Store interface {
	// CreatePage upserts on URL: if a page with that URL already exists,
	// it is returned unchanged; otherwise a new row is inserted with
	// LastCrawledAt set to now.
	CreatePage(url, title, description string) (Page, error)

	// CreateForwardLinks inserts one row per (fromPageID, toURL, freq).
	CreateForwardLinks(fromPageID int64, freqByURL map[string]int) error

	// CreateKeywords bulk-inserts keyword rows.
	CreateKeywords(keywords []Keyword) error

	// GetPageByURL returns the page with the given URL, or ok=false if
	// none exists.
	GetPageByURL(url string) (page Page, ok bool, err error)

	// GetPagesWithWords returns the candidate set of pages whose title,
	// description, or keyword set contains any of the given words.
	GetPagesWithWords(words []string) ([]Page, error)

	// GetKeywordsByPageID returns the keywords recorded for a page.
	GetKeywordsByPageID(pageID int64) ([]Keyword, error)

	// GetBacklinks returns the indexed pages (with their keywords) that
	// have a forward link whose target URL equals page.URL.
	GetBacklinks(page Page) ([]CompletePage, error)
}
