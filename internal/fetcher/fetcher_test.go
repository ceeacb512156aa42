package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func serverMock() *httptest.Server {
	handler := http.NewServeMux()
	handler.HandleFunc("/foo/bar", resourceMock)
	handler.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	return httptest.NewServer(handler)
}

func resourceMock(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(`<html><head><title>hi</title></head><body>hello</body></html>`))
}

func TestStdHTTPFetcherFetch(t *testing.T) {
	server := serverMock()
	defer server.Close()

	f := New("test-agent", 10*time.Second)
	target := fmt.Sprintf("%s/foo/bar", server.URL)

	res, err := f.Fetch(context.Background(), target)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("Fetch: expected 200, got %d", res.StatusCode)
	}
	if len(res.Body) == 0 {
		t.Errorf("Fetch: expected non-empty body")
	}
}

func TestStdHTTPFetcherFetchNotFound(t *testing.T) {
	server := serverMock()
	defer server.Close()

	f := New("test-agent", 10*time.Second)
	target := fmt.Sprintf("%s/missing", server.URL)

	res, err := f.Fetch(context.Background(), target)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("Fetch: expected 404, got %d", res.StatusCode)
	}
}

func TestStdHTTPFetcherFetchInvalidURL(t *testing.T) {
	f := New("test-agent", 10*time.Second)
	_, err := f.Fetch(context.Background(), "://bad-url")
	if err == nil {
		t.Errorf("Fetch: expected error for invalid URL")
	}
}
