package extractor

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing fixture html: %v", err)
	}
	return doc
}

func TestExtractTitle(t *testing.T) {
	doc := mustDoc(t, `<html><head><title>  Hello World  </title></head></html>`)
	if got := ExtractTitle(doc); got != "Hello World" {
		t.Errorf("ExtractTitle: got %q", got)
	}
}

func TestExtractTitleAbsent(t *testing.T) {
	doc := mustDoc(t, `<html><head></head></html>`)
	if got := ExtractTitle(doc); got != "" {
		t.Errorf("ExtractTitle: expected empty, got %q", got)
	}
}

func TestExtractDescription(t *testing.T) {
	doc := mustDoc(t, `<html><head><meta name="description" content="  a page about go  "></head></html>`)
	if got := ExtractDescription(doc); got != "a page about go" {
		t.Errorf("ExtractDescription: got %q", got)
	}
}

func TestExtractLanguage(t *testing.T) {
	doc := mustDoc(t, `<html lang="EN"><head></head></html>`)
	if got := ExtractLanguage(doc); got != "en" {
		t.Errorf("ExtractLanguage: got %q", got)
	}
}

func TestExtractMetaKeywords(t *testing.T) {
	doc := mustDoc(t, `<html><head><meta name="keywords" content="go, crawler ,  search"></head></html>`)
	got := ExtractMetaKeywords(doc)
	want := []string{"go", "crawler", "search"}
	if len(got) != len(want) {
		t.Fatalf("ExtractMetaKeywords: got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ExtractMetaKeywords[%d]: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestExtractLinksResolvesDedupesAndFiltersScheme(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<a href="/foo/bar">one</a>
		<a href="/foo/bar#frag">dup</a>
		<a href="https://other.example/page?x=1">two</a>
		<a href="mailto:[email protected]">skip</a>
		<a href="ftp://files.example/f">skip2</a>
	</body></html>`)
	base, _ := url.Parse("https://example.com/")

	links := ExtractLinks(doc, base)
	if len(links) != 2 {
		t.Fatalf("ExtractLinks: expected 2 links, got %d (%v)", len(links), links)
	}
	if links[0].String() != "https://example.com/foo/bar" {
		t.Errorf("ExtractLinks[0]: got %q", links[0].String())
	}
	if links[1].String() != "https://other.example/page" {
		t.Errorf("ExtractLinks[1]: got %q", links[1].String())
	}
}

func TestExtractWords(t *testing.T) {
	html := `<html><body><h1>Hello</h1><p>This is a test. This is another test.</p><script>evil()</script></body></html>`
	doc := mustDoc(t, html)

	words, err := ExtractWords(doc, "en", DefaultBounds())
	if err != nil {
		t.Fatalf("ExtractWords: %v", err)
	}

	want := map[string]int{"hello": 1, "this": 2, "test": 2, "anoth": 1}
	if len(words) != len(want) {
		t.Fatalf("ExtractWords: got %v want %v", words, want)
	}
	for stem, freq := range want {
		if words[stem] != freq {
			t.Errorf("ExtractWords[%s]: got %d want %d", stem, words[stem], freq)
		}
	}
	if _, ok := words["evil"]; ok {
		t.Errorf("ExtractWords: script contents leaked into extracted words")
	}
	if _, ok := words["is"]; ok {
		t.Errorf("ExtractWords: %q should be dropped by MinLen", "is")
	}
}

func TestExtractWordsInvalidBounds(t *testing.T) {
	doc := mustDoc(t, `<html><body>hello</body></html>`)
	_, err := ExtractWords(doc, "en", Bounds{MinFreq: 5, MaxFreq: 1, MinLength: 1, MaxLength: 10})
	if err == nil {
		t.Fatalf("ExtractWords: expected InvalidBoundaries error")
	}
}
