package main

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/rse-project/rse/internal/config"
	"github.com/rse-project/rse/internal/storage"
	"github.com/rse-project/rse/internal/store/sqlite"
)

func TestHandlerReturnsRankedResults(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	page, _ := store.CreatePage("https://example.com", "Rust Programming", "")
	_ = store.CreateKeywords([]storage.Keyword{{PageID: page.ID, Word: "rust", Freq: 3}})

	cfg := &config.Config{RatingFactor: 0.4, RankerConstant: 0.7}
	handler := newHandler(cfg, store)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/?q=rust", nil)
	handler.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].URL != "https://example.com" {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}
}

func TestHandlerReturnsQueryErrorForEmptyQuery(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	cfg := &config.Config{RatingFactor: 0.4, RankerConstant: 0.7}
	handler := newHandler(cfg, store)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	handler.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Error == nil || resp.Error.Kind != "query" {
		t.Fatalf("expected query error in body, got %+v", resp.Error)
	}
}
