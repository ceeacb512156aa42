// Package sqlite is a concrete, swappable reference adapter implementing
// storage.Store against modernc.org/sqlite, a pure-Go SQLite driver that
// needs no cgo toolchain. It is intentionally minimal — not the mandated
// schema of any particular deployment, just a runnable example so the
// crawler and search binaries have something real to talk to.
package sqlite

import (
	"database/sql"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rse-project/rse/internal/rseerr"
	"github.com/rse-project/rse/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS pages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	last_crawled_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS keywords (
	page_id INTEGER NOT NULL REFERENCES pages(id),
	word TEXT NOT NULL,
	freq INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_keywords_word ON keywords(word);
CREATE INDEX IF NOT EXISTS idx_keywords_page_id ON keywords(page_id);

CREATE TABLE IF NOT EXISTS forward_links (
	from_page_id INTEGER NOT NULL REFERENCES pages(id),
	to_url TEXT NOT NULL,
	freq INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_forward_links_to_url ON forward_links(to_url);
`

// Store is a storage.Store backed by an on-disk or in-memory SQLite
// database.
type Store struct {
	db *sql.DB
}

// Open connects to dsn (e.g. "file:rse.db?cache=shared" or ":memory:")
// and ensures the schema exists.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, rseerr.Wrap(rseerr.Database, err, "opening sqlite database %s", dsn)
	}
	// SQLite tolerates only one writer at a time; serialize through a
	// single connection so the crawl engine's concurrent workers don't
	// trip over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, rseerr.Wrap(rseerr.Database, err, "applying schema to %s", dsn)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreatePage(url, title, description string) (storage.Page, error) {
	if page, ok, err := s.GetPageByURL(url); err != nil {
		return storage.Page{}, err
	} else if ok {
		return page, nil
	}

	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO pages (url, title, description, last_crawled_at) VALUES (?, ?, ?, ?)`,
		url, title, description, now,
	)
	if err != nil {
		return storage.Page{}, rseerr.Wrap(rseerr.Database, err, "inserting page %s", url)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storage.Page{}, rseerr.Wrap(rseerr.Database, err, "reading inserted page id for %s", url)
	}
	return storage.Page{ID: id, URL: url, Title: title, Description: description, LastCrawledAt: now}, nil
}

func (s *Store) CreateForwardLinks(fromPageID int64, freqByURL map[string]int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return rseerr.Wrap(rseerr.Database, err, "beginning forward-link transaction")
	}
	stmt, err := tx.Prepare(`INSERT INTO forward_links (from_page_id, to_url, freq) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return rseerr.Wrap(rseerr.Database, err, "preparing forward-link insert")
	}
	defer stmt.Close()

	for toURL, freq := range freqByURL {
		if _, err := stmt.Exec(fromPageID, toURL, freq); err != nil {
			tx.Rollback()
			return rseerr.Wrap(rseerr.Database, err, "inserting forward link to %s", toURL)
		}
	}
	if err := tx.Commit(); err != nil {
		return rseerr.Wrap(rseerr.Database, err, "committing forward-link transaction")
	}
	return nil
}

func (s *Store) CreateKeywords(keywords []storage.Keyword) error {
	tx, err := s.db.Begin()
	if err != nil {
		return rseerr.Wrap(rseerr.Database, err, "beginning keyword transaction")
	}
	stmt, err := tx.Prepare(`INSERT INTO keywords (page_id, word, freq) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return rseerr.Wrap(rseerr.Database, err, "preparing keyword insert")
	}
	defer stmt.Close()

	for _, k := range keywords {
		if _, err := stmt.Exec(k.PageID, k.Word, k.Freq); err != nil {
			tx.Rollback()
			return rseerr.Wrap(rseerr.Database, err, "inserting keyword %s", k.Word)
		}
	}
	if err := tx.Commit(); err != nil {
		return rseerr.Wrap(rseerr.Database, err, "committing keyword transaction")
	}
	return nil
}

func (s *Store) GetPageByURL(url string) (storage.Page, bool, error) {
	row := s.db.QueryRow(`SELECT id, url, title, description, last_crawled_at FROM pages WHERE url = ?`, url)
	var p storage.Page
	if err := row.Scan(&p.ID, &p.URL, &p.Title, &p.Description, &p.LastCrawledAt); err != nil {
		if err == sql.ErrNoRows {
			return storage.Page{}, false, nil
		}
		return storage.Page{}, false, rseerr.Wrap(rseerr.Database, err, "looking up page %s", url)
	}
	return p, true, nil
}

// GetPagesWithWords returns pages whose title, description, or keyword
// set contains any of the given words.
func (s *Store) GetPagesWithWords(words []string) ([]storage.Page, error) {
	if len(words) == 0 {
		return nil, nil
	}

	placeholders := make([]string, 0, len(words)*3)
	args := make([]any, 0, len(words)*3)
	for _, w := range words {
		placeholders = append(placeholders, "?", "?", "?")
		like := "%" + w + "%"
		args = append(args, like, like, w)
	}

	query := `
		SELECT DISTINCT p.id, p.url, p.title, p.description, p.last_crawled_at
		FROM pages p
		LEFT JOIN keywords k ON k.page_id = p.id
		WHERE ` + strings.TrimSuffix(strings.Repeat("(p.title LIKE ? OR p.description LIKE ? OR k.word = ?) OR ", len(words)), "OR ")

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, rseerr.Wrap(rseerr.Database, err, "querying candidate pages")
	}
	defer rows.Close()

	var pages []storage.Page
	for rows.Next() {
		var p storage.Page
		if err := rows.Scan(&p.ID, &p.URL, &p.Title, &p.Description, &p.LastCrawledAt); err != nil {
			return nil, rseerr.Wrap(rseerr.Database, err, "scanning candidate page")
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (s *Store) GetKeywordsByPageID(pageID int64) ([]storage.Keyword, error) {
	rows, err := s.db.Query(`SELECT page_id, word, freq FROM keywords WHERE page_id = ?`, pageID)
	if err != nil {
		return nil, rseerr.Wrap(rseerr.Database, err, "querying keywords for page %d", pageID)
	}
	defer rows.Close()

	var keywords []storage.Keyword
	for rows.Next() {
		var k storage.Keyword
		if err := rows.Scan(&k.PageID, &k.Word, &k.Freq); err != nil {
			return nil, rseerr.Wrap(rseerr.Database, err, "scanning keyword row")
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}

// GetBacklinks returns, once per forward-link row, the source page (with
// its keywords) that links to page.URL. A source page with several
// forward-link rows pointing at page (e.g. from successive re-crawls)
// appears once per row, which is how the ranker recovers backlink
// frequency.
func (s *Store) GetBacklinks(page storage.Page) ([]storage.CompletePage, error) {
	rows, err := s.db.Query(`
		SELECT p.id, p.url, p.title, p.description, p.last_crawled_at
		FROM forward_links fl
		JOIN pages p ON p.id = fl.from_page_id
		WHERE fl.to_url = ?
	`, page.URL)
	if err != nil {
		return nil, rseerr.Wrap(rseerr.Database, err, "querying backlinks for %s", page.URL)
	}
	defer rows.Close()

	var sources []storage.Page
	for rows.Next() {
		var p storage.Page
		if err := rows.Scan(&p.ID, &p.URL, &p.Title, &p.Description, &p.LastCrawledAt); err != nil {
			return nil, rseerr.Wrap(rseerr.Database, err, "scanning backlink row")
		}
		sources = append(sources, p)
	}
	if err := rows.Err(); err != nil {
		return nil, rseerr.Wrap(rseerr.Database, err, "iterating backlinks for %s", page.URL)
	}

	result := make([]storage.CompletePage, 0, len(sources))
	for _, src := range sources {
		keywords, err := s.GetKeywordsByPageID(src.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, storage.CompletePage{Page: src, Keywords: keywords})
	}
	return result, nil
}
