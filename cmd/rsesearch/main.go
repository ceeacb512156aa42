// Command rsesearch serves free-text search queries against the index
// built by rsecrawl: GET /?q=<query> returns a ranked list of matching
// pages as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/rse-project/rse/internal/config"
	"github.com/rse-project/rse/internal/ranker"
	"github.com/rse-project/rse/internal/rseerr"
	"github.com/rse-project/rse/internal/store/sqlite"
)

// searchResponse is the JSON envelope returned by the search endpoint.
// On failure, Error carries the {kind, message} pair, mirroring the
// error taxonomy's surface.
type searchResponse struct {
	Query   string          `json:"query,omitempty"`
	Results []searchResult  `json:"pages,omitempty"`
	Error   *rseerrEnvelope `json:"error,omitempty"`
}

type searchResult struct {
	URL         string  `json:"url"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Rank        float64 `json:"rank"`
}

type rseerrEnvelope struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func newHandler(cfg *config.Config, store *sqlite.Store) http.Handler {
	rankerCfg := ranker.Config{RatingFactor: cfg.RatingFactor, RankerConstant: cfg.RankerConstant}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")

		results, err := ranker.Search(store, query, rankerCfg)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]searchResult, 0, len(results))
		for _, res := range results {
			out = append(out, searchResult{
				URL:         res.Page.URL,
				Title:       res.Page.Title,
				Description: res.Page.Description,
				Rank:        res.Rank,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(searchResponse{Query: query, Results: out})
	})
	return mux
}

// writeError always responds with HTTP 200: the error kind/message travels
// in the JSON body's error field rather than the status line.
func writeError(w http.ResponseWriter, err error) {
	kind := string(rseerr.Internal)
	if rseerr.Is(err, rseerr.Query) {
		kind = string(rseerr.Query)
	} else if rseerr.Is(err, rseerr.Database) {
		kind = string(rseerr.Database)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(searchResponse{
		Error: &rseerrEnvelope{Kind: kind, Message: err.Error()},
	})
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rsesearch",
		Short: "Serve free-text search over an rsecrawl index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
}

func run() error {
	cfg, err := config.LoadForSearch()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	log.Printf("rsesearch listening on %s", cfg.ListeningAddress)
	return http.ListenAndServe(cfg.ListeningAddress, newHandler(cfg, store))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
