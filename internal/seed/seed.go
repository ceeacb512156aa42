// Package seed reads the crawler's seed-URL and stop-word lists from a
// file, dispatching on extension to a JSON, YAML, or plain-text reader.
package seed

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rse-project/rse/internal/rseerr"
)

// maxBytesToRead caps how much of a seed/stop-word file is read, so a
// malformed or hostile file cannot exhaust memory.
const maxBytesToRead = 1 << 20 // 1 MiB

// strategy reads a list of strings out of file content.
type strategy func(content []byte) ([]string, error)

var strategiesByExt = map[string]strategy{
	".json": readJSON,
	".yaml": readYAML,
	".yml":  readYAML,
	".txt":  readText,
}

// ReadURLs reads seed URLs (or stop words — the file shape is the same:
// a flat list of strings) from path, dispatching by file extension.
func ReadURLs(path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	strat, ok := strategiesByExt[ext]
	if !ok {
		return nil, rseerr.New(rseerr.Internal, "unsupported seed file extension %q", ext)
	}

	content, err := readCapped(path)
	if err != nil {
		return nil, rseerr.Wrap(rseerr.IO, err, "reading seed file %s", path)
	}

	urls, err := strat(content)
	if err != nil {
		return nil, rseerr.Wrap(rseerr.ReadWrite, err, "parsing seed file %s", path)
	}
	return urls, nil
}

// readCapped opens path and reads at most maxBytesToRead bytes.
func readCapped(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, maxBytesToRead))
}

// readJSON accepts either a flat JSON array of strings, or an object
// whose values are arrays of strings (grouped categories), flattening
// the latter into a single list. Entries keep their order within a group;
// the order in which groups are appended is not defined.
func readJSON(content []byte) ([]string, error) {
	var flat []string
	if err := json.Unmarshal(content, &flat); err == nil {
		return flat, nil
	}

	var grouped map[string][]string
	if err := json.Unmarshal(content, &grouped); err != nil {
		return nil, err
	}

	var result []string
	for _, urls := range grouped {
		result = append(result, urls...)
	}
	return result, nil
}

// readYAML accepts a YAML sequence of strings.
func readYAML(content []byte) ([]string, error) {
	var urls []string
	if err := yaml.Unmarshal(content, &urls); err != nil {
		return nil, err
	}
	return urls, nil
}

// readText treats each non-blank line as one entry.
func readText(content []byte) ([]string, error) {
	var urls []string
	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls, nil
}
