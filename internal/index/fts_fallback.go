//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/quire/internal/models"
)

func initFTS(_ *sql.DB) error {
	// Without FTS5, Search scans posts.body with LIKE.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _ string, _ []string) error {
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) error { return nil }

// Search matches every query term against title, body and tags with LIKE,
// newest posts first.
func (db *DB) Search(query string, limit int) ([]models.SearchHit, error) {
	terms := searchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	where := make([]string, 0, len(terms))
	args := make([]any, 0, len(terms)*3+1)
	for _, term := range terms {
		like := "%" + term + "%"
		where = append(where, `(title LIKE ? OR body LIKE ? OR tags LIKE ?)`)
		args = append(args, like, like, like)
	}
	args = append(args, limit)

	rows, err := db.conn.Query(`
		SELECT url, title, date, body
		FROM posts
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY date DESC, url
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	hits, err := scanHits(rows)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	for i := range hits {
		hits[i].Snippet = excerpt(hits[i].Snippet, terms[0])
	}
	return hits, nil
}
