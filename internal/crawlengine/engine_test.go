package crawlengine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rse-project/rse/internal/extractor"
	"github.com/rse-project/rse/internal/fetcher"
	"github.com/rse-project/rse/internal/frontier"
	"github.com/rse-project/rse/internal/robots"
	"github.com/rse-project/rse/internal/storage"
)

// memStore is a minimal in-memory storage.Store for exercising the engine
// without a real database.
type memStore struct {
	mu       sync.Mutex
	pages    map[string]storage.Page
	nextID   int64
	keywords map[int64][]storage.Keyword
	links    map[int64]map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		pages:    make(map[string]storage.Page),
		keywords: make(map[int64][]storage.Keyword),
		links:    make(map[int64]map[string]int),
	}
}

func (s *memStore) CreatePage(url, title, description string) (storage.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pages[url]; ok {
		return p, nil
	}
	s.nextID++
	p := storage.Page{ID: s.nextID, URL: url, Title: title, Description: description, LastCrawledAt: time.Now()}
	s.pages[url] = p
	return p, nil
}

func (s *memStore) CreateForwardLinks(fromPageID int64, freqByURL map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[fromPageID] = freqByURL
	return nil
}

func (s *memStore) CreateKeywords(keywords []storage.Keyword) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keywords {
		s.keywords[k.PageID] = append(s.keywords[k.PageID], k)
	}
	return nil
}

func (s *memStore) GetPageByURL(url string) (storage.Page, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[url]
	return p, ok, nil
}

func (s *memStore) GetPagesWithWords(words []string) ([]storage.Page, error) {
	return nil, nil
}

func (s *memStore) GetKeywordsByPageID(pageID int64) ([]storage.Keyword, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keywords[pageID], nil
}

func (s *memStore) GetBacklinks(page storage.Page) ([]storage.CompletePage, error) {
	return nil, nil
}

func (s *memStore) pageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

func TestEngineCrawlsLinkedPagesToCompletion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>root</title></head><body>
			<a href="/a">a</a>
		</body></html>`))
	})
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>a</title></head><body>hello world</body></html>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	ft := fetcher.New("test-agent", 5*time.Second)
	rc := robots.NewCache(ft)
	fr := frontier.New(40)
	store := newMemStore()

	cfg := Config{
		NumFetchers:          2,
		NumProcessors:        2,
		Delay:                0,
		ProcessorCapacityMul: 10,
		Bounds:               extractor.DefaultBounds(),
	}
	engine := New(cfg, fr, rc, ft, store, nil, nil)

	done := make(chan struct{})
	go func() {
		engine.Run(context.Background(), []string{server.URL + "/"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("engine.Run did not terminate")
	}

	require.Equal(t, 2, store.pageCount())
}
