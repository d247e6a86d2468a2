//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/quire/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS posts_fts USING fts5(
			url UNINDEXED,
			title,
			body,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, url, title, body string, tags []string) error {
	if err := ftsDelete(tx, url); err != nil {
		return err
	}
	_, err := tx.Exec(`INSERT INTO posts_fts (url, title, body, tags) VALUES (?, ?, ?, ?)`,
		url, title, body, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, url string) error {
	if _, err := tx.Exec(`DELETE FROM posts_fts WHERE url = ?`, url); err != nil {
		return fmt.Errorf("index: delete fts: %w", err)
	}
	return nil
}

// matchExpr quotes every term so user input is never parsed as FTS5 query
// syntax. Adjacent strings are ANDed by FTS5.
func matchExpr(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

// Search runs an FTS5 query ranked by bm25, with highlighted snippets from
// the post body.
func (db *DB) Search(query string, limit int) ([]models.SearchHit, error) {
	terms := searchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := db.conn.Query(`
		SELECT posts_fts.url,
		       posts_fts.title,
		       p.date,
		       snippet(posts_fts, 2, '<b>', '</b>', '...', 64)
		FROM posts_fts
		JOIN posts p ON p.url = posts_fts.url
		WHERE posts_fts MATCH ?
		ORDER BY rank, p.date DESC
		LIMIT ?
	`, matchExpr(terms), limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	hits, err := scanHits(rows)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return hits, nil
}
