// Package robots parses robots.txt files and caches the resulting rules
// per host, so a crawler consults a host's exclusions once rather than on
// every fetch.
package robots

import (
	"bufio"
	"strconv"
	"strings"
	"time"
)

// Rules is the parsed rule set for the `*` user-agent block of a single
// robots.txt file. Blocks for any other user-agent are parsed but
// discarded: the crawler only identifies itself generically.
type Rules struct {
	Disallow      []string
	Allow         []string
	CrawlDelay    time.Duration
	HasCrawlDelay bool
}

// Parse reads a robots.txt body and returns the accumulated rules for the
// `*` user-agent block. Any other block's directives are parsed (to keep
// the state machine honest about block boundaries) but not retained.
func Parse(body string) Rules {
	var rules Rules
	inWildcardBlock := false

	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := splitDirective(line)
		if !ok {
			continue
		}

		switch strings.ToLower(key) {
		case "user-agent":
			inWildcardBlock = value == "*"
		case "disallow":
			if inWildcardBlock && value != "" {
				rules.Disallow = append(rules.Disallow, strings.ToLower(value))
			}
		case "allow":
			if inWildcardBlock && value != "" {
				rules.Allow = append(rules.Allow, strings.ToLower(value))
			}
		case "crawl-delay":
			if inWildcardBlock && !rules.HasCrawlDelay {
				if d, ok := parseCrawlDelay(value); ok {
					rules.CrawlDelay = d
					rules.HasCrawlDelay = true
				}
			}
		}
	}

	return rules
}

// splitDirective splits a "Key: Value" line, trimming both sides. Lines
// without a colon are not valid directives.
func splitDirective(line string) (key, value string, ok bool) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

// parseCrawlDelay parses a Crawl-delay value expressed in (possibly
// fractional) seconds.
func parseCrawlDelay(value string) (time.Duration, bool) {
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}

// IsCrawlable reports whether path is allowed under these rules. The
// longest matching prefix between the disallow and allow lists decides;
// a tie goes to allow. No match at all means crawlable.
func (r Rules) IsCrawlable(path string) bool {
	path = strings.ToLower(path)

	longestDisallow := longestPrefixMatch(r.Disallow, path)
	longestAllow := longestPrefixMatch(r.Allow, path)

	if longestDisallow < 0 && longestAllow < 0 {
		return true
	}
	return longestAllow >= longestDisallow
}

// longestPrefixMatch returns the length of the longest entry in prefixes
// that is a prefix of path, or -1 if none match.
func longestPrefixMatch(prefixes []string, path string) int {
	longest := -1
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) && len(prefix) > longest {
			longest = len(prefix)
		}
	}
	return longest
}
