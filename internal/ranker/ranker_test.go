package ranker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rse-project/rse/internal/storage"
)

type fakeStore struct {
	pages     map[int64]storage.Page
	keywords  map[int64][]storage.Keyword
	backlinks map[int64][]storage.CompletePage
	words     []string
}

func (f *fakeStore) CreatePage(url, title, description string) (storage.Page, error) {
	panic("not used")
}
func (f *fakeStore) CreateForwardLinks(fromPageID int64, freqByURL map[string]int) error {
	panic("not used")
}
func (f *fakeStore) CreateKeywords(keywords []storage.Keyword) error { panic("not used") }
func (f *fakeStore) GetPageByURL(url string) (storage.Page, bool, error) {
	panic("not used")
}

func (f *fakeStore) GetPagesWithWords(words []string) ([]storage.Page, error) {
	f.words = words
	pages := make([]storage.Page, 0, len(f.pages))
	for _, p := range f.pages {
		pages = append(pages, p)
	}
	return pages, nil
}

func (f *fakeStore) GetKeywordsByPageID(pageID int64) ([]storage.Keyword, error) {
	return f.keywords[pageID], nil
}

func (f *fakeStore) GetBacklinks(page storage.Page) ([]storage.CompletePage, error) {
	return f.backlinks[page.ID], nil
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	_, err := Search(&fakeStore{}, "   ", DefaultConfig())
	require.Error(t, err)
}

func TestSearchNoCandidatesReturnsEmptyNotError(t *testing.T) {
	store := &fakeStore{pages: map[int64]storage.Page{}}
	results, err := Search(store, "rust", DefaultConfig())
	require.NoError(t, err)
	require.Empty(t, results)
}

// Three pages A, B, C per the system's documented ranker-ordering scenario.
func TestSearchRanksByBacklinkWeightedRelevance(t *testing.T) {
	a := storage.Page{ID: 1, URL: "https://a.example"}
	b := storage.Page{ID: 2, URL: "https://b.example"}
	c := storage.Page{ID: 3, URL: "https://c.example"}

	store := &fakeStore{
		pages: map[int64]storage.Page{1: a, 2: b, 3: c},
		keywords: map[int64][]storage.Keyword{
			1: {{PageID: 1, Word: "rust", Freq: 5}},
			2: {{PageID: 2, Word: "rust", Freq: 2}, {PageID: 2, Word: "fast", Freq: 3}},
			3: {{PageID: 3, Word: "rust", Freq: 1}},
		},
		backlinks: map[int64][]storage.CompletePage{
			1: {{Page: b}, {Page: c}}, // A <- B, A <- C
			2: {{Page: c}},            // B <- C
			3: {},
		},
	}

	results, err := Search(store, "rust", DefaultConfig())
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, []int64{1, 2, 3}, []int64{results[0].Page.ID, results[1].Page.ID, results[2].Page.ID})

	wantA := 0.7 * (0.4 + 2.0/1 + 1.0/1)
	require.InDelta(t, wantA, results[0].Rank, 1e-9)
}

func TestLessTreatsNaNAsEqual(t *testing.T) {
	if less(math.NaN(), 1.0) {
		t.Errorf("NaN should never compare less")
	}
	if less(1.0, math.NaN()) {
		t.Errorf("NaN should never compare less")
	}
}
