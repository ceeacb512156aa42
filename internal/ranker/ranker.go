// Package ranker scores and orders search results using a PageRank-style
// formula that blends a page's own keyword relevance with the relevance
// of pages that link to it.
package ranker

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/kljensen/snowball"

	"github.com/rse-project/rse/internal/rseerr"
	"github.com/rse-project/rse/internal/storage"
)

// Config holds the two tunables the rank formula depends on.
type Config struct {
	RatingFactor   float64
	RankerConstant float64
}

// DefaultConfig mirrors RATING_FACTOR=0.4, RANKER_CONSTANT=0.7.
func DefaultConfig() Config {
	return Config{RatingFactor: 0.4, RankerConstant: 0.7}
}

// Result pairs a page with the rank it was assigned.
type Result struct {
	Page storage.Page
	Rank float64
}

var illegalCharacters = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// tokenizeQuery lowercases, splits on whitespace, strips non-alphanumeric
// characters, and stems each token with the English Snowball stemmer,
// producing a word-to-frequency multiset.
func tokenizeQuery(query string) map[string]int {
	counts := make(map[string]int)
	for _, raw := range strings.Fields(strings.ToLower(query)) {
		cleaned := illegalCharacters.ReplaceAllString(raw, "")
		if cleaned == "" {
			continue
		}
		stem, err := snowball.Stem(cleaned, "english", false)
		if err != nil || stem == "" {
			stem = cleaned
		}
		counts[stem]++
	}
	return counts
}

// Search runs a free-text query against store, returning pages ordered by
// rank, highest first.
func Search(store storage.Store, query string, cfg Config) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, rseerr.New(rseerr.Query, "no query provided")
	}

	q := tokenizeQuery(query)
	if len(q) == 0 {
		return nil, rseerr.New(rseerr.Query, "query contained no indexable tokens")
	}

	words := make([]string, 0, len(q))
	for w := range q {
		words = append(words, w)
	}

	candidates, err := store.GetPagesWithWords(words)
	if err != nil {
		return nil, rseerr.Wrap(rseerr.Database, err, "fetching candidate pages")
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	rel := make(map[int64]float64, len(candidates))
	for _, p := range candidates {
		keywords, err := store.GetKeywordsByPageID(p.ID)
		if err != nil {
			return nil, rseerr.Wrap(rseerr.Database, err, "fetching keywords for page %d", p.ID)
		}
		rel[p.ID] = relevance(q, keywords)
	}

	results := make([]Result, 0, len(candidates))
	for _, p := range candidates {
		backlinks, err := store.GetBacklinks(p)
		if err != nil {
			return nil, rseerr.Wrap(rseerr.Database, err, "fetching backlinks for page %d", p.ID)
		}
		results = append(results, Result{
			Page: p,
			Rank: rank(p, rel, backlinks, cfg),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return less(results[j].Rank, results[i].Rank)
	})

	return results, nil
}

// relevance computes rel(p) = Σ over (w ∈ Q ∩ K_p) of Q[w] × K_p[w].freq.
func relevance(q map[string]int, keywords []storage.Keyword) float64 {
	var sum float64
	for _, k := range keywords {
		if freq, ok := q[k.Word]; ok {
			sum += float64(freq) * float64(k.Freq)
		}
	}
	return sum
}

// backlinkFrequency counts, per (source page, target page), how many
// forward links in completePages point at target — each entry of
// completePages is one such occurrence, matching a backlink source page
// that appeared once per forward link row.
func backlinkFrequency(completePages []storage.CompletePage) map[int64]int {
	freq := make(map[int64]int, len(completePages))
	for _, cp := range completePages {
		freq[cp.ID]++
	}
	return freq
}

// rank computes rank(p) = RankerConstant * (RatingFactor + Σ over backlink
// sources b ≠ p of rel(b) / backlink_freq(b, p)).
func rank(p storage.Page, rel map[int64]float64, backlinks []storage.CompletePage, cfg Config) float64 {
	freq := backlinkFrequency(backlinks)

	sum := cfg.RatingFactor
	for sourceID, count := range freq {
		if sourceID == p.ID || count == 0 {
			continue
		}
		sum += rel[sourceID] / float64(count)
	}
	return cfg.RankerConstant * sum
}

// less is a NaN-safe "a < b" comparison: a NaN on either side is treated
// as equal to anything, so sort.SliceStable never panics or produces an
// inconsistent order.
func less(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return a < b
}
