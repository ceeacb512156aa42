// Package extractor turns a raw HTML body into the structured fields the
// indexing pipeline persists: title, description, language, meta keywords,
// outbound links, and stemmed word frequencies. Every function here is a
// pure transformation from bytes to data; nothing in this package performs
// network I/O.
package extractor

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kljensen/snowball"

	"github.com/rse-project/rse/internal/rseerr"
)

// ParseHTML parses a raw HTML body into a goquery document. Malformed
// HTML is tolerated: the underlying parser recovers rather than failing.
func ParseHTML(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, rseerr.Wrap(rseerr.Selector, err, "parsing html document")
	}
	return doc, nil
}

// Bounds constrains which stemmed words survive extraction.
type Bounds struct {
	MinFreq   int
	MaxFreq   int
	MinLength int
	MaxLength int
}

// DefaultBounds mirrors the system's MIN/MAX_WORD_FREQUENCY and
// MIN/MAX_WORD_LENGTH defaults.
func DefaultBounds() Bounds {
	return Bounds{MinFreq: 1, MaxFreq: 100, MinLength: 3, MaxLength: 20}
}

// Validate checks the bounds are internally consistent.
func (b Bounds) Validate() error {
	if b.MinFreq > b.MaxFreq {
		return rseerr.New(rseerr.InvalidBoundaries, "min frequency %d exceeds max frequency %d", b.MinFreq, b.MaxFreq)
	}
	if b.MinLength > b.MaxLength {
		return rseerr.New(rseerr.InvalidBoundaries, "min length %d exceeds max length %d", b.MinLength, b.MaxLength)
	}
	return nil
}

// languageStemmers maps the two-letter codes named in the system glossary
// to the language names passed to kljensen/snowball. Arabic has no
// Snowball algorithm in that package, so it is intentionally absent; words
// in that language are stemmed as English by stemmerFor's default. If
// snowball.Stem rejects a language name it returns an error, and
// ExtractWords then keeps the token unstemmed.
var languageStemmers = map[string]string{
	"da": "danish",
	"nl": "dutch",
	"fi": "finnish",
	"fr": "french",
	"de": "german",
	"hu": "hungarian",
	"it": "italian",
	"no": "norwegian",
	"pt": "portuguese",
	"ro": "romanian",
	"ru": "russian",
	"es": "spanish",
	"sv": "swedish",
	"tr": "turkish",
}

// stemmerFor resolves a two-letter language code to a Snowball language
// name, defaulting to English for "en", "ar", unknown codes, and the
// empty string.
func stemmerFor(language string) string {
	if name, ok := languageStemmers[strings.ToLower(language)]; ok {
		return name
	}
	return "english"
}

// illegalCharacters matches runs of characters that are not ASCII
// alphanumeric or in the Latin-1 supplement block, mirroring the token
// cleanup the original indexing pipeline performed.
var illegalCharacters = regexp.MustCompile(`[^a-zA-Z0-9\x{00C0}-\x{00FF}]+`)

// ExtractTitle returns the trimmed inner text of the first <title>
// element, or "" if absent or empty.
func ExtractTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	return title
}

// ExtractDescription returns the trimmed content attribute of the first
// <meta name="description"> element.
func ExtractDescription(doc *goquery.Document) string {
	content, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	return strings.TrimSpace(content)
}

// ExtractLanguage returns the lowercased lang attribute of the root <html>
// element, or "" if absent.
func ExtractLanguage(doc *goquery.Document) string {
	lang, _ := doc.Find("html").First().Attr("lang")
	return strings.ToLower(strings.TrimSpace(lang))
}

// ExtractMetaKeywords splits the content of the first
// <meta name="keywords"> element on commas, trimming each entry. Empty
// entries are dropped.
func ExtractMetaKeywords(doc *goquery.Document) []string {
	content, exists := doc.Find(`meta[name="keywords"]`).First().Attr("content")
	if !exists {
		return nil
	}
	var keywords []string
	for _, part := range strings.Split(content, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			keywords = append(keywords, trimmed)
		}
	}
	return keywords
}

// ExtractLinks resolves every <a href> against baseURL, keeping only
// http/https targets, clearing fragment and query, and deduplicating
// while preserving first-seen order.
func ExtractLinks(doc *goquery.Document, baseURL *url.URL) []*url.URL {
	seen := make(map[string]bool)
	var links []*url.URL

	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := baseURL.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		resolved.Fragment = ""
		resolved.RawQuery = ""

		key := resolved.String()
		if seen[key] {
			return
		}
		seen[key] = true
		links = append(links, resolved)
	})

	return links
}

// ExtractWords walks the <body> text (skipping <script> and <style>
// subtrees), tokenizes, stems, and tallies frequencies, keeping only
// stems whose length and count fall inside bounds.
func ExtractWords(doc *goquery.Document, language string, bounds Bounds) (map[string]int, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	body := doc.Find("body").Clone()
	body.Find("script, style").Remove()

	// Join text nodes with single spaces so adjacent elements such as
	// <h1>Hello</h1><p>This do not fuse into one token.
	var parts []string
	collectText := func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "#text" {
			parts = append(parts, s.Text())
		}
	}
	body.Contents().Each(collectText)
	body.Find("*").Contents().Each(collectText)

	text := strings.ToLower(strings.Join(parts, " "))
	tokens := strings.Fields(text)

	lang := stemmerFor(language)
	counts := make(map[string]int)
	for _, token := range tokens {
		cleaned := illegalCharacters.ReplaceAllString(token, "")
		if cleaned == "" {
			continue
		}
		stem, err := snowball.Stem(cleaned, lang, false)
		if err != nil || stem == "" {
			stem = cleaned
		}
		counts[stem]++
	}

	result := make(map[string]int, len(counts))
	for stem, freq := range counts {
		if freq < bounds.MinFreq || freq > bounds.MaxFreq {
			continue
		}
		if len(stem) < bounds.MinLength || len(stem) > bounds.MaxLength {
			continue
		}
		result[stem] = freq
	}
	return result, nil
}
